// Package listdict compares row sets so that external data can be synced
// into a list with the minimum number of batch methods.
//
// Rows are indexed by a composite key with FullDict, then compared with
// Changes (rows present on both sides whose columns differ) and Unique
// (rows only present in the new set). The results convert directly into
// batch actions.
package listdict

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/smnsjas/go-splists/caml"
)

// ErrMissingID is returned when a changed row has no value in the ID column.
var ErrMissingID = errors.New("row has no id")

// KeySeparator joins the parts of a composite index key.
const KeySeparator = "-"

// Row is one list row keyed by display name.
type Row map[string]any

// Index maps composite keys to rows.
type Index map[string]Row

// FullDict indexes rows by the values of keys. Missing values index as "".
// Later rows replace earlier rows with the same key.
func FullDict(rows []Row, keys ...string) Index {
	idx := make(Index, len(rows))
	parts := make([]string, len(keys))
	for _, row := range rows {
		for i, k := range keys {
			parts[i] = keyPart(row[k])
		}
		idx[strings.Join(parts, KeySeparator)] = row
	}
	return idx
}

// Changes returns, for every key present in both indexes, a row holding the
// columns whose new value differs from the old one. Columns absent from the
// new row are not changes. When idColumn is set, each change also carries
// the old row's id. Rows are ordered by key.
func Changes(newIdx, oldIdx Index, idColumn string, columns []string) ([]Row, error) {
	var out []Row
	for _, key := range sortedKeys(newIdx) {
		oldRow, ok := oldIdx[key]
		if !ok {
			continue
		}
		newRow := newIdx[key]

		update := Row{}
		for _, col := range columns {
			nv, ok := newRow[col]
			if !ok {
				continue
			}
			ov, had := oldRow[col]
			if had && equal(ov, nv) {
				continue
			}
			update[col] = nv
		}
		if len(update) == 0 {
			continue
		}
		if idColumn != "" {
			id, ok := oldRow[idColumn]
			if !ok {
				return nil, fmt.Errorf("%w: key %q, column %q", ErrMissingID, key, idColumn)
			}
			update[idColumn] = id
		}
		out = append(out, update)
	}
	return out, nil
}

// Unique returns the rows of newIdx whose key is not in oldIdx, ordered by key.
func Unique(newIdx, oldIdx Index) []Row {
	var out []Row
	for _, key := range sortedKeys(newIdx) {
		if _, ok := oldIdx[key]; !ok {
			out = append(out, newIdx[key])
		}
	}
	return out
}

// Creates converts rows into New batch actions.
func Creates(rows []Row) []caml.Action {
	actions := make([]caml.Action, 0, len(rows))
	for _, r := range rows {
		actions = append(actions, caml.Create{Fields: map[string]any(r)})
	}
	return actions
}

// Updates converts rows produced by Changes into Update batch actions. The
// id column is removed from the fields and must hold an integer.
func Updates(rows []Row, idColumn string) ([]caml.Action, error) {
	actions := make([]caml.Action, 0, len(rows))
	for i, r := range rows {
		raw, ok := r[idColumn]
		if !ok {
			return nil, fmt.Errorf("%w: row %d, column %q", ErrMissingID, i, idColumn)
		}
		id, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: id %v: %w", i, raw, err)
		}
		fields := make(map[string]any, len(r)-1)
		for k, v := range r {
			if k != idColumn {
				fields[k] = v
			}
		}
		actions = append(actions, caml.Update{ID: id, Fields: fields})
	}
	return actions, nil
}

func keyPart(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func sortedKeys(idx Index) []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
