package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relstack-labs/relsvg/internal/cli/config"
	"github.com/relstack-labs/relsvg/internal/transform"
	"github.com/relstack-labs/relsvg/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "watch <input>",
		Short: "Rebuild the output whenever the input changes",
		Long: `Transform the input document, then watch it and re-transform on every
save. Failed transforms are reported and the previous output is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			if cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			if out == "" {
				return fmt.Errorf("watch requires --out")
			}

			log := config.LoggerFromContext(ctx)
			rc := cfg.ResolverConfig()
			rc.Logger = log

			return watch.New(transform.New(rc), log).Run(ctx, args[0], out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (required)")
	return cmd
}
