// Package cli provides the command-line interface for relsvg.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/relstack-labs/relsvg/internal/cli/commands"
	"github.com/relstack-labs/relsvg/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relsvg",
		Short: "relsvg - SVG diagram compiler",
		Long: `relsvg compiles a generative superset of SVG into plain SVG.

Input documents may position elements relative to each other, evaluate
arithmetic and variables inside attributes, and stamp out repeated content
with loops and templates. The output is ordinary SVG with every position
resolved to a number.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cmd.SetContext(config.IntoContext(cmd.Context(), cfg, log))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
SVG diagram compiler
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./relsvg.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Int64("seed", 0, "Seed for random() and randint()")
	rootCmd.PersistentFlags().Int("precision", 0, "Decimal places for emitted coordinates")
	rootCmd.PersistentFlags().Float64("pad", 0, "Margin around content when deriving a viewBox")
	rootCmd.PersistentFlags().Int("loop-limit", 0, "Maximum total loop iterations per document")
	rootCmd.PersistentFlags().Int("var-limit", 0, "Maximum length of a variable value")
	rootCmd.PersistentFlags().Int("depth-limit", 0, "Maximum template instantiation depth")

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewTransformCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
