package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/relstack-labs/relsvg/internal/cli/config"
	"github.com/relstack-labs/relsvg/internal/transform"
)

// TransformOptions holds options for the transform command.
type TransformOptions struct {
	Out    string
	OutDir string
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform [flags] <input>...",
		Short: "Compile documents to plain SVG",
		Long: `Resolve one or more input documents and write plain SVG.

A single input writes to stdout unless --out is given. Multiple inputs are
resolved concurrently and require --out-dir. An input of "-" reads stdin.`,
		Example: `  # Resolve to stdout
  relsvg transform diagram.svg

  # Resolve to a file
  relsvg transform diagram.svg -o out/diagram.svg

  # Resolve a whole set concurrently
  relsvg transform src/*.svg --out-dir build/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Output file (single input only, - for stdout)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Directory for output files")

	return cmd
}

func runTransform(cmd *cobra.Command, args []string, opts *TransformOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	log := config.LoggerFromContext(ctx)

	outDir := opts.OutDir
	if outDir == "" {
		outDir = cfg.OutDir
	}
	if len(args) > 1 {
		if opts.Out != "" {
			return fmt.Errorf("--out only applies to a single input; use --out-dir")
		}
		if outDir == "" {
			return fmt.Errorf("multiple inputs require --out-dir")
		}
	}

	rc := cfg.ResolverConfig()
	rc.Logger = log
	tr := transform.New(rc)

	if len(args) == 1 {
		return transformOne(cmd, tr, args[0], opts.Out, outDir)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, in := range args {
		g.Go(func() error {
			runID := uuid.New().String()[:8]
			out, err := outputPath(in, outDir)
			if err != nil {
				return err
			}
			res, err := tr.TransformFile(gctx, in, out)
			if err != nil {
				log.Error("transform failed", "run", runID, "input", in, "error", err)
				return fmt.Errorf("%s: %w", in, err)
			}
			log.Info("transformed", "run", runID, "input", in, "output", out,
				"elements", len(res.Elements), "passes", res.Passes)
			return nil
		})
	}
	return g.Wait()
}

func transformOne(cmd *cobra.Command, tr *transform.Transformer, in, out, outDir string) error {
	ctx := cmd.Context()
	log := config.LoggerFromContext(ctx)
	runID := uuid.New().String()[:8]

	if out == "" && outDir != "" {
		var err error
		if out, err = outputPath(in, outDir); err != nil {
			return err
		}
	}

	if in == "-" {
		res, err := tr.Transform(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Info("transformed", "run", runID, "input", "stdin",
			"elements", len(res.Elements), "passes", res.Passes)
		return nil
	}

	if out == "" || out == "-" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = tr.Transform(ctx, f, cmd.OutOrStdout())
		return err
	}

	res, err := tr.TransformFile(ctx, in, out)
	if err != nil {
		return err
	}
	log.Info("transformed", "run", runID, "input", in, "output", out,
		"elements", len(res.Elements), "passes", res.Passes)
	return nil
}

// outputPath derives the output file for in inside outDir, refusing to
// clobber the input itself.
func outputPath(in, outDir string) (string, error) {
	if in == "-" {
		return "", fmt.Errorf("stdin input cannot be combined with --out-dir")
	}
	out := filepath.Join(outDir, filepath.Base(in))
	absIn, err1 := filepath.Abs(in)
	absOut, err2 := filepath.Abs(out)
	if err1 == nil && err2 == nil && strings.EqualFold(absIn, absOut) {
		return "", fmt.Errorf("output %s would overwrite input; choose a different --out-dir", out)
	}
	return out, nil
}
