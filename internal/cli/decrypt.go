package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/filex"
	"github.com/dmitrijs2005/ipchunk/internal/pipeline"
)

func (a *App) decryptCommand() *cobra.Command {
	var (
		keys   keyOptions
		output string
	)

	cmd := &cobra.Command{
		Use:   "decrypt <dir>",
		Short: "Reassemble and decrypt an encrypted directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, chunks, err := readDir(args[0])
			if err != nil {
				return err
			}

			key, err := a.resolveKey(&keys, "decryption")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(key)

			svc, err := a.newService(m.NonceMode, m.DigestAlgorithm)
			if err != nil {
				return err
			}

			asset, err := svc.Open(ctx, m, pipeline.NewMemorySource(chunks...), key)
			if err != nil {
				return err
			}

			if err := filex.WriteFileAtomic(output, asset.Content(), 0o600); err != nil {
				return err
			}

			a.printf("%s %d bytes %s\n", output, asset.FileSize(), asset.FileType())
			return nil
		},
	}

	keys.bind(cmd, "", "decryption")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write the plaintext to")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
