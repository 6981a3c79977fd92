package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/config"
	"github.com/dmitrijs2005/ipchunk/internal/cryptox"
	"github.com/dmitrijs2005/ipchunk/internal/digest"
	"github.com/dmitrijs2005/ipchunk/internal/flagx"
	"github.com/dmitrijs2005/ipchunk/internal/logging"
	"github.com/dmitrijs2005/ipchunk/internal/pipeline"
)

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
	errOut io.Writer
	root   *cobra.Command
}

// NewApp builds the command tree around cfg. Command output goes to out;
// logs and prompts go to errOut.
func NewApp(cfg *config.Config, out, errOut io.Writer) *App {
	a := &App{
		config: cfg,
		logger: logging.Nop(),
		out:    out,
		errOut: errOut,
	}
	a.root = a.rootCommand()
	return a
}

// Run executes the command line args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	a.root.SetArgs(flagx.NormalizeConfigFlag(args))
	return a.root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ipchunk",
		Short: "Chunk and encrypt intellectual-property assets",
		Long: "ipchunk splits an asset into adaptively sized chunks, seals each one\n" +
			"with AES-256-GCM and names it by the hash of its ciphertext.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	// read before the tree is parsed by config.LoadConfig; declared so cobra accepts it
	root.PersistentFlags().StringP("config", "c", "", "config file (JSON or YAML)")
	a.config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		a.sizeCommand(),
		a.hashCommand(),
		a.encryptCommand(),
		a.decryptCommand(),
		a.verifyCommand(),
		a.rekeyCommand(),
		a.keygenCommand(),
	)
	return root
}

func (a *App) initialize(cmd *cobra.Command, _ []string) error {
	if err := a.config.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(a.errOut, a.config.LogLevel, a.config.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger.With("command", cmd.Name())
	return nil
}

// newService builds a pipeline whose codec uses the given nonce mode and
// digest, which for existing directories come from their manifest.
func (a *App) newService(nonceMode, algorithm string) (*pipeline.Service, error) {
	mode, err := cryptox.ParseNonceMode(nonceMode)
	if err != nil {
		return nil, err
	}
	alg, err := digest.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}

	codec := cryptox.NewCodec(
		cryptox.WithNonceMode(mode),
		cryptox.WithDigest(alg),
		cryptox.WithWorkers(a.config.Workers),
	)
	return pipeline.NewService(a.logger, codec), nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
