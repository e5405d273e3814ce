package schema

import (
	"errors"
	"fmt"
)

// TitleName is the internal name of the Title column in every locale.
const TitleName = "Title"

var (
	// ErrSchema is returned when a field name cannot be resolved or a schema is unusable.
	ErrSchema = errors.New("schema error")
	// ErrUnknownField is returned when a name matches no field of the catalog.
	ErrUnknownField = errors.New("unknown field")
)

// Lookup names the mapping a resolution went through.
type Lookup string

const (
	// ByDisplay resolves display names.
	ByDisplay Lookup = "display"
	// ByInternal resolves internal names.
	ByInternal Lookup = "internal"
)

// UnknownFieldError reports a name absent from the catalog.
type UnknownFieldError struct {
	Name string
	By   Lookup
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: %q is not a %s name of this list", ErrUnknownField, e.Name, e.By)
}

// Is reports both ErrUnknownField and ErrSchema.
func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField || target == ErrSchema
}

// Catalog resolves internal and display names to fields.
// A Catalog is immutable once built and safe for concurrent use.
type Catalog struct {
	fields     []Field
	byInternal map[string]Field
	byDisplay  map[string]Field
	title      Field
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	excludeHidden bool
}

// WithoutHidden drops hidden fields from both mappings, so a hidden column
// cannot shadow a visible one sharing its display name.
func WithoutHidden() BuildOption {
	return func(o *buildOptions) {
		o.excludeHidden = true
	}
}

// Build creates a catalog from schema fields. It fails with ErrSchema when the
// Title field is missing.
func Build(fields []Field, opts ...BuildOption) (*Catalog, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{
		fields:     make([]Field, 0, len(fields)),
		byInternal: make(map[string]Field, len(fields)),
		byDisplay:  make(map[string]Field, len(fields)+1),
	}
	for _, f := range fields {
		if o.excludeHidden && f.Hidden {
			continue
		}
		c.fields = append(c.fields, f)
		c.byInternal[f.InternalName] = f
		c.byDisplay[f.DisplayName] = f
	}

	title, ok := c.byInternal[TitleName]
	if !ok {
		return nil, fmt.Errorf("%w: list has no %s field", ErrSchema, TitleName)
	}
	c.title = title
	c.byDisplay[title.DisplayName] = title
	c.byDisplay[TitleName] = title

	return c, nil
}

// ResolveByDisplay returns the field with the given display name.
func (c *Catalog) ResolveByDisplay(name string) (Field, error) {
	f, ok := c.byDisplay[name]
	if !ok {
		return Field{}, &UnknownFieldError{Name: name, By: ByDisplay}
	}
	return f, nil
}

// ResolveByInternal returns the field with the given internal name.
func (c *Catalog) ResolveByInternal(name string) (Field, error) {
	f, ok := c.byInternal[name]
	if !ok {
		return Field{}, &UnknownFieldError{Name: name, By: ByInternal}
	}
	return f, nil
}

// Resolve tries the display name first, then the internal name.
func (c *Catalog) Resolve(name string) (Field, error) {
	if f, ok := c.byDisplay[name]; ok {
		return f, nil
	}
	if f, ok := c.byInternal[name]; ok {
		return f, nil
	}
	return Field{}, &UnknownFieldError{Name: name, By: ByDisplay}
}

// Title returns the field carrying the Title semantics.
func (c *Catalog) Title() Field {
	return c.title
}

// Fields returns the catalog fields in schema order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// InternalNames returns the internal names of all fields in schema order.
func (c *Catalog) InternalNames() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.InternalName
	}
	return names
}

// Len returns the number of fields in the catalog.
func (c *Catalog) Len() int {
	return len(c.fields)
}
