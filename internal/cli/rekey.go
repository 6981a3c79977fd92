package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/filex"
	"github.com/dmitrijs2005/ipchunk/internal/pipeline"
)

func (a *App) rekeyCommand() *cobra.Command {
	var oldKeys, newKeys keyOptions

	cmd := &cobra.Command{
		Use:   "rekey <dir>",
		Short: "Re-encrypt an encrypted directory under a new key",
		Long: "Re-encrypt every chunk of an encrypted directory under a new key and\n" +
			"write the result to a new directory under --out. The source is left as is.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, chunks, err := readDir(args[0])
			if err != nil {
				return err
			}

			oldKey, err := a.resolveKey(&oldKeys, "current")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(oldKey)
			if err := pipeline.CheckKey(m, oldKey); err != nil {
				return err
			}

			newKey, err := a.resolveKey(&newKeys, "new")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(newKey)

			svc, err := a.newService(m.NonceMode, m.DigestAlgorithm)
			if err != nil {
				return err
			}

			ordered, err := svc.FetchOrdered(ctx, m, pipeline.NewMemorySource(chunks...))
			if err != nil {
				return err
			}

			rekeyed, err := svc.Rekey(ctx, ordered, oldKey, newKey)
			if err != nil {
				return err
			}

			nm, err := pipeline.RebindManifest(m, rekeyed, newKey)
			if err != nil {
				return err
			}

			dir, err := filex.NewRunDir(a.config.OutputDir)
			if err != nil {
				return err
			}
			if err := writeDir(dir, nm, rekeyed); err != nil {
				return err
			}

			a.printf("%s\n", dir)
			return nil
		},
	}

	oldKeys.bind(cmd, "", "current")
	newKeys.bind(cmd, "new-", "new")
	return cmd
}
