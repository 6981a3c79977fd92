package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/pipeline"
)

func (a *App) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir>",
		Short: "Check every chunk of an encrypted directory against its hash",
		Long: "Check that every chunk listed in the manifest is present, sits at its\n" +
			"index and hashes to its address. No key is needed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, chunks, err := readDir(args[0])
			if err != nil {
				return err
			}

			svc, err := a.newService(m.NonceMode, m.DigestAlgorithm)
			if err != nil {
				return err
			}

			ordered, err := svc.FetchOrdered(cmd.Context(), m, pipeline.NewMemorySource(chunks...))
			if err != nil {
				return err
			}

			a.printf("ok %d chunks asset=%x\n", len(ordered), m.AssetHash)
			return nil
		},
	}
}
