package xmlio

import (
	"fmt"
	"io"
	"strings"

	"github.com/relstack-labs/relsvg/internal/document"
)

// Write serializes the element tree. Attributes are written in the order
// they appear on each element; childless elements self-close.
func Write(w io.Writer, root *document.Element) error {
	sw := &stickyWriter{w: w}
	writeNode(sw, root, 0)
	sw.writeString("\n")
	return sw.err
}

// WriteString serializes the tree to a string.
func WriteString(root *document.Element) (string, error) {
	var b strings.Builder
	if err := Write(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeNode(w *stickyWriter, n *document.Element, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n.Kind {
	case document.KindText:
		w.writeString(indent)
		w.writeString(escapeText(strings.TrimSpace(n.Text)))
		w.writeString("\n")
		return
	case document.KindComment:
		w.writeString(indent)
		w.writeString("<!--")
		w.writeString(n.Text)
		w.writeString("-->\n")
		return
	}

	w.writeString(indent)
	w.writeString("<")
	w.writeString(n.Tag)
	for _, a := range n.Attrs {
		w.writeString(" ")
		w.writeString(a.Name)
		w.writeString(`="`)
		w.writeString(escapeAttr(a.Value))
		w.writeString(`"`)
	}

	if len(n.Children) == 0 {
		w.writeString("/>\n")
		return
	}

	// A single text child stays inline: <text>label</text>.
	if len(n.Children) == 1 && n.Children[0].Kind == document.KindText {
		w.writeString(">")
		w.writeString(escapeText(strings.TrimSpace(n.Children[0].Text)))
		fmt.Fprintf(w, "</%s>\n", n.Tag)
		return
	}

	w.writeString(">\n")
	for _, c := range n.Children {
		writeNode(w, c, depth+1)
	}
	w.writeString(indent)
	fmt.Fprintf(w, "</%s>\n", n.Tag)
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// stickyWriter remembers the first write error so serialization code does
// not have to check every call.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}

func (s *stickyWriter) writeString(str string) {
	_, _ = s.Write([]byte(str))
}
