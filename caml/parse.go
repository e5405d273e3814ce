package caml

import (
	"fmt"
	"strings"
)

// ParseTokens parses the textual token form used on the command line.
// Each token is "And", "Or", or "Op:Field[:Value]", e.g. "Eq:Status:Open".
// Values may contain colons.
func ParseTokens(args []string) ([]Token, error) {
	tokens := make([]Token, 0, len(args))
	for _, arg := range args {
		switch arg {
		case string(And):
			tokens = append(tokens, And)
			continue
		case string(Or):
			tokens = append(tokens, Or)
			continue
		}

		parts := strings.SplitN(arg, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: malformed token %q", ErrInvalidQuery, arg)
		}
		op, ok := parseOperator(parts[0])
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, parts[0])
		}
		c := Comparison{Op: op, Field: parts[1]}
		if len(parts) == 3 {
			c.Value = parts[2]
		} else if op.hasValue() {
			return nil, fmt.Errorf("%w: %s on %q needs a value", ErrInvalidQuery, op, parts[1])
		}
		tokens = append(tokens, c)
	}
	return tokens, nil
}

// ParseSort parses "Field" or "Field:desc" / "Field:asc".
func ParseSort(arg string) (Sort, error) {
	field, dir, found := strings.Cut(arg, ":")
	if field == "" {
		return Sort{}, fmt.Errorf("%w: empty sort field", ErrInvalidQuery)
	}
	if !found {
		return Asc(field), nil
	}
	switch strings.ToLower(dir) {
	case "asc":
		return Asc(field), nil
	case "desc":
		return Desc(field), nil
	default:
		return Sort{}, fmt.Errorf("%w: sort direction %q", ErrInvalidQuery, dir)
	}
}

var operators = []Operator{Eq, Neq, Gt, Geq, Lt, Leq, Contains, BeginsWith, IsNull, IsNotNull}

func parseOperator(s string) (Operator, bool) {
	for _, op := range operators {
		if strings.EqualFold(s, string(op)) {
			return op, true
		}
	}
	return "", false
}
