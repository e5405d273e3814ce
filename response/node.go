package response

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	// ErrParse is returned for input that is not well-formed XML.
	ErrParse = errors.New("malformed response xml")
	// ErrProtocol is returned when a response does not have the expected shape.
	ErrProtocol = errors.New("unexpected response")
)

// DefaultMaxDepth limits element nesting while parsing.
const DefaultMaxDepth = 256

// Node is a parsed XML element.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

// Parse parses a complete document and returns its root element.
// Non-UTF-8 documents are decoded according to their XML declaration.
func Parse(data []byte) (*Node, error) {
	// strip UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
		text  strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) >= DefaultMaxDepth {
				return nil, fmt.Errorf("%w: nesting deeper than %d", ErrParse, DefaultMaxDepth)
			}
			n := &Node{Name: t.Name, Attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrParse)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text.Reset()

		case xml.CharData:
			if len(stack) > 0 {
				text.Write(t)
			}

		case xml.EndElement:
			n := stack[len(stack)-1]
			if len(n.Children) == 0 {
				n.Text = text.String()
			}
			text.Reset()
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return root, nil
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrMap returns the attributes keyed by local name. Namespace declarations
// are skipped.
func (n *Node) AttrMap() map[string]string {
	m := make(map[string]string, len(n.Attrs))
	for _, a := range n.Attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		m[a.Name.Local] = a.Value
	}
	return m
}

// Child returns the first direct child with the given local name.
func (n *Node) Child(local string) *Node {
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// FindFold returns the first element in document order, n included, whose
// local name equals local ignoring case.
func (n *Node) FindFold(local string) *Node {
	if strings.EqualFold(n.Name.Local, local) {
		return n
	}
	for _, c := range n.Children {
		if f := c.FindFold(local); f != nil {
			return f
		}
	}
	return nil
}

// FindContains returns the first element in document order, n included, whose
// local name contains sub ignoring case.
func (n *Node) FindContains(sub string) *Node {
	if strings.Contains(strings.ToLower(n.Name.Local), strings.ToLower(sub)) {
		return n
	}
	for _, c := range n.Children {
		if f := c.FindContains(sub); f != nil {
			return f
		}
	}
	return nil
}

// ChildTexts maps each direct child's local name to its text.
func (n *Node) ChildTexts() map[string]string {
	m := make(map[string]string, len(n.Children))
	for _, c := range n.Children {
		m[c.Name.Local] = c.Text
	}
	return m
}
