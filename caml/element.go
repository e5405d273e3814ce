package caml

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Attr is a single unqualified XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a minimal XML element tree. Names are written verbatim, so a
// prefixed name such as "ns1:listName" is emitted as is.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// NewElement creates an element with no attributes or children.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Set sets an attribute, replacing an existing one of the same name.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Attr returns the value of an attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Add appends a new child element and returns it.
func (e *Element) Add(name string) *Element {
	child := NewElement(name)
	e.Children = append(e.Children, child)
	return child
}

// Append appends existing elements as children.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Find returns the first direct child with the given name.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Render writes the element and its subtree into buf.
func (e *Element) Render(buf *bytes.Buffer) error {
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		if err := xml.EscapeText(buf, []byte(a.Value)); err != nil {
			return fmt.Errorf("escape attribute %s: %w", a.Name, err)
		}
		buf.WriteByte('"')
	}

	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString("/>")
		return nil
	}
	buf.WriteByte('>')

	if e.Text != "" {
		if err := xml.EscapeText(buf, []byte(e.Text)); err != nil {
			return fmt.Errorf("escape text of %s: %w", e.Name, err)
		}
	}
	for _, c := range e.Children {
		if err := c.Render(buf); err != nil {
			return err
		}
	}

	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteByte('>')
	return nil
}

// String renders the element. Rendering errors yield an empty string.
func (e *Element) String() string {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
