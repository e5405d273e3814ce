package caml

import (
	"errors"
	"fmt"

	"github.com/smnsjas/go-splists/schema"
)

// ErrInvalidQuery is returned for query descriptions that cannot be encoded.
var ErrInvalidQuery = errors.New("invalid query")

// Operator is a CAML comparison element name.
type Operator string

// Supported comparison operators.
const (
	Eq         Operator = "Eq"
	Neq        Operator = "Neq"
	Gt         Operator = "Gt"
	Geq        Operator = "Geq"
	Lt         Operator = "Lt"
	Leq        Operator = "Leq"
	Contains   Operator = "Contains"
	BeginsWith Operator = "BeginsWith"
	IsNull     Operator = "IsNull"
	IsNotNull  Operator = "IsNotNull"
)

// hasValue reports whether the comparison carries a Value element.
func (o Operator) hasValue() bool {
	return o != IsNull && o != IsNotNull
}

// Marker opens a logical group in the token form.
type Marker string

// Group markers.
const (
	And Marker = "And"
	Or  Marker = "Or"
)

// Token is either a Marker or a Comparison.
type Token interface {
	isToken()
}

// Node is either a Group or a Comparison.
type Node interface {
	isNode()
}

// Comparison tests one field against a value.
type Comparison struct {
	Op Operator
	// Field is the display name of the column.
	Field string
	Value any
}

// Cond creates a comparison.
func Cond(op Operator, field string, value any) Comparison {
	return Comparison{Op: op, Field: field, Value: value}
}

func (Marker) isToken()     {}
func (Comparison) isToken() {}
func (Comparison) isNode()  {}

// Group is a logical And/Or over at least two children.
type Group struct {
	Kind     Marker
	Children []Node
}

func (Group) isNode() {}

// AllOf returns an And group.
func AllOf(children ...Node) Group {
	return Group{Kind: And, Children: children}
}

// AnyOf returns an Or group.
func AnyOf(children ...Node) Group {
	return Group{Kind: Or, Children: children}
}

// Sort orders results by one field.
type Sort struct {
	Field      string
	Descending bool
}

// Asc sorts ascending (the server default).
func Asc(field string) Sort {
	return Sort{Field: field}
}

// Desc sorts descending.
func Desc(field string) Sort {
	return Sort{Field: field, Descending: true}
}

// Query describes a GetListItems query. At most one of Where and Tree is set.
type Query struct {
	Where   []Token
	Tree    Node
	OrderBy []Sort
	GroupBy []string
}

// ValueEncoder converts native values to wire strings.
type ValueEncoder interface {
	ToWire(f schema.Field, v any) (string, error)
}

// Builder encodes queries and batches for one list.
type Builder struct {
	catalog *schema.Catalog
	enc     ValueEncoder
}

// NewBuilder creates a builder resolving names with catalog and values with enc.
func NewBuilder(catalog *schema.Catalog, enc ValueEncoder) *Builder {
	return &Builder{catalog: catalog, enc: enc}
}

// Query builds the <Query> element: OrderBy, GroupBy, then Where.
func (b *Builder) Query(q *Query) (*Element, error) {
	if q.Where != nil && q.Tree != nil {
		return nil, fmt.Errorf("%w: both token and tree where clauses given", ErrInvalidQuery)
	}

	root := NewElement("Query")
	if len(q.OrderBy) > 0 {
		el, err := b.OrderBy(q.OrderBy)
		if err != nil {
			return nil, err
		}
		root.Append(el)
	}
	if len(q.GroupBy) > 0 {
		el, err := b.GroupBy(q.GroupBy)
		if err != nil {
			return nil, err
		}
		root.Append(el)
	}

	var (
		where *Element
		err   error
	)
	switch {
	case len(q.Where) > 0:
		where, err = b.Where(q.Where)
	case q.Tree != nil:
		where, err = b.Compile(q.Tree)
	}
	if err != nil {
		return nil, err
	}
	if where != nil {
		root.Append(where)
	}
	return root, nil
}

// Where compiles a token sequence into a <Where> element.
func (b *Builder) Where(tokens []Token) (*Element, error) {
	where := NewElement("Where")
	parents := []*Element{where}

	for i, tok := range tokens {
		top := parents[len(parents)-1]
		switch t := tok.(type) {
		case Marker:
			switch t {
			case And:
				parents = append(parents, top.Add(string(And)))
			case Or:
				// an Or directly under Where is widened, since Where holds a
				// single child; elsewhere the open Or closes and a sibling opens
				if top.Name == string(Or) {
					if len(parents) == 2 {
						continue
					}
					parents = parents[:len(parents)-1]
					top = parents[len(parents)-1]
				}
				parents = append(parents, top.Add(string(Or)))
			default:
				return nil, fmt.Errorf("%w: token %d: unknown marker %q", ErrInvalidQuery, i, string(t))
			}

		case Comparison:
			el, err := b.comparison(t)
			if err != nil {
				return nil, fmt.Errorf("token %d: %w", i, err)
			}
			top.Append(el)

		default:
			return nil, fmt.Errorf("%w: token %d: unsupported type %T", ErrInvalidQuery, i, tok)
		}
	}
	return where, nil
}

// Compile compiles a query tree into a <Where> element.
func (b *Builder) Compile(node Node) (*Element, error) {
	where := NewElement("Where")
	if err := b.compileNode(where, node); err != nil {
		return nil, err
	}
	return where, nil
}

func (b *Builder) compileNode(parent *Element, node Node) error {
	switch n := node.(type) {
	case Comparison:
		el, err := b.comparison(n)
		if err != nil {
			return err
		}
		parent.Append(el)
		return nil

	case Group:
		if n.Kind != And && n.Kind != Or {
			return fmt.Errorf("%w: unknown group %q", ErrInvalidQuery, string(n.Kind))
		}
		if len(n.Children) < 2 {
			return fmt.Errorf("%w: %s needs at least 2 children, got %d", ErrInvalidQuery, n.Kind, len(n.Children))
		}
		group := parent.Add(string(n.Kind))
		for _, child := range n.Children {
			if err := b.compileNode(group, child); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unsupported node %T", ErrInvalidQuery, node)
	}
}

func (b *Builder) comparison(c Comparison) (*Element, error) {
	if c.Op == "" {
		return nil, fmt.Errorf("%w: comparison on %q has no operator", ErrInvalidQuery, c.Field)
	}
	f, err := b.catalog.ResolveByDisplay(c.Field)
	if err != nil {
		return nil, err
	}

	el := NewElement(string(c.Op))
	el.Add("FieldRef").Set("Name", f.InternalName)
	if !c.Op.hasValue() {
		return el, nil
	}

	text, err := b.enc.ToWire(f, c.Value)
	if err != nil {
		return nil, err
	}
	v := el.Add("Value").Set("Type", f.ValueType())
	v.Text = text
	return el, nil
}

// OrderBy builds an <OrderBy> element. Names may be display or internal names.
func (b *Builder) OrderBy(sorts []Sort) (*Element, error) {
	el := NewElement("OrderBy")
	for _, s := range sorts {
		f, err := b.catalog.Resolve(s.Field)
		if err != nil {
			return nil, err
		}
		ref := el.Add("FieldRef").Set("Name", f.InternalName)
		if s.Descending {
			ref.Set("Ascending", "FALSE")
		}
	}
	return el, nil
}

// GroupBy builds a <GroupBy> element. Names may be display or internal names.
func (b *Builder) GroupBy(names []string) (*Element, error) {
	el := NewElement("GroupBy")
	for _, name := range names {
		f, err := b.catalog.Resolve(name)
		if err != nil {
			return nil, err
		}
		el.Add("FieldRef").Set("Name", f.InternalName)
	}
	return el, nil
}
