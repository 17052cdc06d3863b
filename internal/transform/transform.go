// Package transform is the document-level entry point: it reads an expanded
// SVG document, resolves it, and writes plain SVG.
package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/relstack-labs/relsvg/internal/resolver"
	"github.com/relstack-labs/relsvg/internal/xmlio"
)

// Transformer applies one configuration to any number of documents. It is
// safe to reuse; every document gets an isolated resolver run.
type Transformer struct {
	cfg resolver.Config
}

func New(cfg resolver.Config) *Transformer {
	return &Transformer{cfg: cfg}
}

// Transform reads one document from r, resolves it, and writes the result
// to w. Nothing is written on error, so a broken input never clobbers
// partial output downstream.
func (t *Transformer) Transform(ctx context.Context, r io.Reader, w io.Writer) (*resolver.Result, error) {
	root, err := xmlio.Read(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	res, err := resolver.New(t.cfg).Resolve(ctx, root)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := xmlio.Write(&buf, root); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	return res, nil
}

// TransformString resolves src and returns the output document.
func (t *Transformer) TransformString(ctx context.Context, src string) (string, *resolver.Result, error) {
	var buf bytes.Buffer
	res, err := t.Transform(ctx, bytes.NewReader([]byte(src)), &buf)
	if err != nil {
		return "", nil, err
	}
	return buf.String(), res, nil
}

// TransformFile resolves the document at in and writes it to out. An out of
// "-" or "" writes to stdout. The output file is only replaced after the
// whole document resolved.
func (t *Transformer) TransformFile(ctx context.Context, in, out string) (*resolver.Result, error) {
	f, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if out == "" || out == "-" {
		return t.Transform(ctx, f, os.Stdout)
	}

	var buf bytes.Buffer
	res, err := t.Transform(ctx, f, &buf)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	return res, nil
}
