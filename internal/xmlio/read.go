// Package xmlio reads and writes the element tree over encoding/xml token
// streams. It exists because attribute order is significant in this system,
// so marshaling through structs is not an option: tokens go in and out in
// exactly the order the document had them.
package xmlio

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/relstack-labs/relsvg/internal/document"
)

// Read parses source text into an element tree. Attribute order, comments
// and text nodes are preserved; the XML declaration and doctype are not
// (the serializer writes its own declaration).
func Read(r io.Reader) (*document.Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	lines := newLineIndex(data)

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var (
		root  *document.Element
		stack []*document.Element
	)
	appendNode := func(n *document.Element) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, n)
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing input: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := document.NewElement(t.Name.Local)
			el.Line = lines.lineAt(dec.InputOffset())
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, document.Attr{
					Name:  attrName(a.Name),
					Value: a.Value,
				})
			}
			if root == nil && len(stack) == 0 {
				root = el
			} else {
				appendNode(el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end tag </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if strings.TrimSpace(text) == "" {
				continue
			}
			appendNode(document.NewText(text))

		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			appendNode(&document.Element{Kind: document.KindComment, Text: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element in input")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	return root, nil
}

// attrName reconstructs a prefixed attribute name from encoding/xml's
// namespace-expanded form, covering the prefixes that occur in SVG
// documents.
func attrName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case "xmlns":
		return "xmlns:" + n.Local
	case "http://www.w3.org/XML/1998/namespace", "xml":
		return "xml:" + n.Local
	case "http://www.w3.org/1999/xlink", "xlink":
		return "xlink:" + n.Local
	default:
		// Default-namespace attributes keep their local name.
		return n.Local
	}
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int64
}

func newLineIndex(data []byte) *lineIndex {
	idx := &lineIndex{starts: []int64{0}}
	for i, b := range data {
		if b == '\n' {
			idx.starts = append(idx.starts, int64(i)+1)
		}
	}
	return idx
}

func (l *lineIndex) lineAt(offset int64) int {
	lo, hi := 0, len(l.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if l.starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}
