// Package users maps site users between their plain names and the
// "<id>;#<name>" lookup encoding used by person columns.
package users

import (
	"context"
	"sort"
	"strings"
)

// Delimiter separates the id and name of a lookup value, and consecutive
// pairs of a multi-valued lookup.
const Delimiter = ";#"

// User is one entry of the site user list.
type User struct {
	ID   string
	Name string
}

// Wire returns the "<id>;#<name>" encoding of the user.
func (u User) Wire() string {
	return u.ID + Delimiter + u.Name
}

// Provider supplies a site's user directory.
type Provider interface {
	Users(ctx context.Context) (*Directory, error)
}

// Directory is a bidirectional name <-> wire mapping. It is immutable after
// construction and safe for concurrent use.
type Directory struct {
	toWire map[string]string
	toName map[string]string
}

// NewDirectory builds a directory. Entries with an empty name are skipped;
// for duplicate names the last entry wins in the forward mapping while every
// wire form stays resolvable.
func NewDirectory(entries []User) *Directory {
	d := &Directory{
		toWire: make(map[string]string, len(entries)),
		toName: make(map[string]string, len(entries)),
	}
	for _, u := range entries {
		if u.Name == "" {
			continue
		}
		w := u.Wire()
		d.toWire[u.Name] = w
		d.toName[w] = u.Name
	}
	return d
}

// Wire returns the wire form for a user name.
func (d *Directory) Wire(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	w, ok := d.toWire[name]
	return w, ok
}

// Name returns the user name for an exact wire form.
func (d *Directory) Name(wire string) (string, bool) {
	if d == nil {
		return "", false
	}
	n, ok := d.toName[wire]
	return n, ok
}

// Len returns the number of distinct wire forms.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.toName)
}

// Names returns the known user names, sorted.
func (d *Directory) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.toWire))
	for n := range d.toWire {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SplitPairs splits a lookup value into "<id>;#<name>" pairs. An incomplete
// trailing element is dropped.
func SplitPairs(value string) []string {
	parts := strings.Split(value, Delimiter)
	pairs := make([]string, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		pairs = append(pairs, parts[i]+Delimiter+parts[i+1])
	}
	return pairs
}
