package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ipchunk/internal/chunker"
)

func (a *App) sizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "size <bytes>",
		Short: "Show the chunk size chosen for a file size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileSize, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[0], err)
			}

			chunkSize := chunker.ComputeChunkSize(fileSize, a.config.MinChunks)
			a.printf("chunk_size=%d chunks=%d\n", chunkSize, chunker.Count(fileSize, chunkSize))
			return nil
		},
	}
}
