package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/cryptox"
	"github.com/dmitrijs2005/ipchunk/internal/filex"
)

func (a *App) keygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <file>",
		Short: "Write a random hex encoded AES-256 key to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := common.MakeRandHexString(cryptox.KeySize)
			if err != nil {
				return err
			}
			if err := filex.WriteFileAtomic(args[0], []byte(key+"\n"), 0o600); err != nil {
				return err
			}
			a.printf("%s\n", args[0])
			return nil
		},
	}
}
