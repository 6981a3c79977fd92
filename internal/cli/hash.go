package cli

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/digest"
)

func (a *App) hashCommand() *cobra.Command {
	var algo string

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print a file's digest",
		Long:  "Print a file's digest. With the default algorithm this is the asset hash that names the file once published.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := digest.ParseAlgorithm(algo)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			h := digest.New(alg)
			if _, err := io.Copy(h, f); err != nil {
				return err
			}

			a.printf("%s  %s\n", hex.EncodeToString(h.Sum(nil)), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&algo, "algo", string(digest.DefaultAlgorithm), "hash algorithm (sha256, blake3)")
	return cmd
}
