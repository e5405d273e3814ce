// Package codec converts list values between their wire strings and Go values.
//
// Conversion is directed by the schema type of the column:
//
//	Number, Currency  float64        <-> decimal text
//	DateTime          time.Time      <-> "2006-01-02 15:04:05" (no zone)
//	Boolean           "Yes" / "No"   <-> "1" / "0"
//	User              user name      <-> "<id>;#<name>"
//	UserMulti         []string       <-> pairs joined by ";#"
//	everything else   string         <-> string
//
// # Lenient Decoding
//
// ToNative never fails. When a wire value cannot be converted (unknown column,
// unparsable date or number) the wire string is returned unchanged and the
// failure is reported to the diagnostic callback, if one is set. Lists with
// partially migrated schemas keep working at the cost of returning some
// unconverted strings.
package codec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smnsjas/go-splists/schema"
	"github.com/smnsjas/go-splists/users"
)

// DateTimeLayout is the fixed wire format of DateTime values.
const DateTimeLayout = "2006-01-02 15:04:05"

// Wire values of Boolean columns and their native counterparts.
const (
	Yes = "Yes"
	No  = "No"

	wireTrue  = "1"
	wireFalse = "0"
)

var (
	// ErrInvalidBoolean is returned when a Boolean value is neither "Yes" nor "No".
	ErrInvalidBoolean = errors.New("invalid boolean value")
	// ErrUnknownUser is returned when a user name is absent from the directory.
	ErrUnknownUser = errors.New("unknown user")
	// ErrConversion marks a wire value that could not be converted to its native type.
	ErrConversion = errors.New("conversion failed")
)

// datePattern finds the timestamp inside values like "12;#2024-01-31 08:00:00".
var datePattern = regexp.MustCompile(`[0-9]+-[0-9]+-[0-9]+ [0-9]+:[0-9]+:[0-9]+`)

// Diagnostic describes a wire value returned unconverted by ToNative.
type Diagnostic struct {
	// Field is the internal name of the column.
	Field string
	Value string
	Err   error
}

// DiagnosticFunc receives lenient decoding fallbacks.
type DiagnosticFunc func(Diagnostic)

// Codec converts values of one list. It is safe for concurrent use.
type Codec struct {
	catalog *schema.Catalog
	users   *users.Directory
	loc     *time.Location
	locSet  bool
	diag    DiagnosticFunc
}

// Option configures a Codec.
type Option func(*Codec)

// WithUsers sets the directory used for person columns.
func WithUsers(d *users.Directory) Option {
	return func(c *Codec) {
		c.users = d
	}
}

// WithLocation sets the zone DateTime values are read and written in.
// Without it, wire values are parsed as UTC and times are written with their
// own wall clock.
func WithLocation(loc *time.Location) Option {
	return func(c *Codec) {
		if loc != nil {
			c.loc = loc
			c.locSet = true
		}
	}
}

// WithDiagnostic sets the callback for lenient decoding fallbacks.
func WithDiagnostic(fn DiagnosticFunc) Option {
	return func(c *Codec) {
		c.diag = fn
	}
}

// New creates a codec over a catalog.
func New(catalog *schema.Catalog, opts ...Option) *Codec {
	c := &Codec{catalog: catalog, loc: time.UTC}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the catalog the codec resolves names with.
func (c *Codec) Catalog() *schema.Catalog {
	return c.catalog
}

// ToWire converts a native value to its wire string.
func (c *Codec) ToWire(f schema.Field, v any) (string, error) {
	switch f.Type {
	case schema.TypeNumber, schema.TypeCurrency:
		return formatScalar(v), nil

	case schema.TypeDateTime:
		switch t := v.(type) {
		case time.Time:
			return c.formatTime(t), nil
		case *time.Time:
			if t == nil {
				return "", nil
			}
			return c.formatTime(*t), nil
		default:
			return formatScalar(v), nil
		}

	case schema.TypeBoolean:
		s, _ := v.(string)
		switch s {
		case Yes:
			return wireTrue, nil
		case No:
			return wireFalse, nil
		default:
			return "", fmt.Errorf("%w: %v for field %q, only %q or %q", ErrInvalidBoolean, v, f.DisplayName, Yes, No)
		}

	case schema.TypeUser:
		name := formatScalar(v)
		if c.users == nil {
			return name, nil
		}
		w, ok := c.users.Wire(name)
		if !ok {
			return "", fmt.Errorf("%w: %q for field %q", ErrUnknownUser, name, f.DisplayName)
		}
		return w, nil

	case schema.TypeUserMulti:
		names, ok := v.([]string)
		if !ok {
			return formatScalar(v), nil
		}
		wires := make([]string, len(names))
		for i, name := range names {
			wires[i] = name
			if c.users == nil {
				continue
			}
			w, ok := c.users.Wire(name)
			if !ok {
				return "", fmt.Errorf("%w: %q for field %q", ErrUnknownUser, name, f.DisplayName)
			}
			wires[i] = w
		}
		return strings.Join(wires, users.Delimiter), nil

	default:
		return formatScalar(v), nil
	}
}

// ToNative converts a wire string to its native value. Conversion failures
// return the wire string unchanged (see package documentation).
func (c *Codec) ToNative(f schema.Field, wire string) any {
	v, err := c.convert(f, wire)
	if err != nil {
		c.report(f.InternalName, wire, err)
		return wire
	}
	return v
}

func (c *Codec) convert(f schema.Field, wire string) (any, error) {
	switch f.Type {
	case schema.TypeNumber, schema.TypeCurrency:
		if wire == "" {
			return wire, nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(wire), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q: %v", ErrConversion, wire, err)
		}
		return n, nil

	case schema.TypeDateTime:
		if wire == "" {
			return wire, nil
		}
		s := wire
		if m := datePattern.FindString(wire); m != "" {
			s = m
		}
		t, err := time.ParseInLocation(DateTimeLayout, s, c.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: datetime %q: %v", ErrConversion, wire, err)
		}
		return t, nil

	case schema.TypeBoolean:
		switch wire {
		case wireTrue:
			return Yes, nil
		case wireFalse:
			return No, nil
		default:
			return "", nil
		}

	case schema.TypeUser, schema.TypeUserMulti:
		return c.decodeUsers(f, wire), nil

	default:
		return wire, nil
	}
}

// decodeUsers resolves a person value. Exact directory hits return the user
// name; otherwise the value is split into "<id>;#<name>" pairs, each resolved
// through the directory when possible.
func (c *Codec) decodeUsers(f schema.Field, wire string) any {
	if name, ok := c.users.Name(wire); ok {
		if f.Type == schema.TypeUserMulti {
			return []string{name}
		}
		return name
	}
	if !strings.Contains(wire, "#") {
		return wire
	}
	pairs := users.SplitPairs(wire)
	if len(pairs) == 0 {
		return wire
	}
	for i, p := range pairs {
		if name, ok := c.users.Name(p); ok {
			pairs[i] = name
		}
	}
	if f.Type == schema.TypeUser && len(pairs) == 1 {
		return pairs[0]
	}
	return pairs
}

// RowToWire converts a display-named row to an internal-named wire row.
// Unknown display names fail with schema.ErrSchema.
func (c *Codec) RowToWire(row map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(row))
	for name, v := range row {
		f, err := c.catalog.ResolveByDisplay(name)
		if err != nil {
			return nil, err
		}
		w, err := c.ToWire(f, v)
		if err != nil {
			return nil, err
		}
		out[f.InternalName] = w
	}
	return out, nil
}

// RowToNative converts an internal-named wire row to a display-named native
// row. Columns missing from the catalog keep their internal name and wire value.
func (c *Codec) RowToNative(row map[string]string) map[string]any {
	out := make(map[string]any, len(row))
	for name, wire := range row {
		f, err := c.catalog.ResolveByInternal(name)
		if err != nil {
			c.report(name, wire, err)
			out[name] = wire
			continue
		}
		out[f.DisplayName] = c.ToNative(f, wire)
	}
	return out
}

func (c *Codec) report(field, wire string, err error) {
	if c.diag != nil {
		c.diag(Diagnostic{Field: field, Value: wire, Err: err})
	}
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func (c *Codec) formatTime(t time.Time) string {
	if c.locSet {
		t = t.In(c.loc)
	}
	return t.Format(DateTimeLayout)
}
