package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/relstack-labs/relsvg/internal/cli/config"
	"github.com/relstack-labs/relsvg/internal/resolver"
	"github.com/relstack-labs/relsvg/internal/transform"
	"github.com/relstack-labs/relsvg/pkg/expr"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show how each element resolved",
		Long: `Resolve a document and print a table of every element with its final
state and bounding box, without writing the output document. When
resolution stalls, the blocked elements are listed with the reference
each one is waiting on.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	rc := cfg.ResolverConfig()
	rc.Logger = config.LoggerFromContext(ctx)
	tr := transform.New(rc)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := tr.Transform(ctx, f, io.Discard)
	if err != nil {
		var stall *resolver.StallError
		if errors.As(err, &stall) {
			renderStallTable(cmd.OutOrStdout(), stall)
		}
		return err
	}

	renderElementTable(cmd.OutOrStdout(), res)
	return nil
}

func renderElementTable(w io.Writer, res *resolver.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Tag", "ID", "Line", "State", "X", "Y", "W", "H"})

	for _, el := range res.Elements {
		row := table.Row{el.Tag, el.ID, el.Line, el.State.String()}
		if el.HasBox {
			row = append(row,
				expr.FormatNumber(el.Box.X, 3), expr.FormatNumber(el.Box.Y, 3),
				expr.FormatNumber(el.Box.W, 3), expr.FormatNumber(el.Box.H, 3))
		} else {
			row = append(row, "-", "-", "-", "-")
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d passes", res.Passes)})
	t.Render()
}

func renderStallTable(w io.Writer, stall *resolver.StallError) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Resolution stalled")
	t.AppendHeader(table.Row{"Tag", "ID", "Line", "Blocked on"})
	for _, b := range stall.Blocked {
		ref := b.Ref
		if ref == "" {
			ref = "?"
		}
		t.AppendRow(table.Row{b.Tag, b.ID, b.Line, ref})
	}
	t.Render()
}
