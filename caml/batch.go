package caml

import (
	"fmt"
	"sort"
	"strconv"
)

// Command is the Cmd attribute of a batch Method.
type Command string

// Batch commands.
const (
	CmdNew    Command = "New"
	CmdUpdate Command = "Update"
	CmdDelete Command = "Delete"
)

// idField is the internal name of the item ID column.
const idField = "ID"

// Action is one entry of an UpdateListItems batch.
type Action interface {
	Command() Command
}

// Create adds a new item. Fields are keyed by display name.
type Create struct {
	Fields map[string]any
}

// Update changes fields of an existing item. Fields are keyed by display name.
type Update struct {
	ID     int
	Fields map[string]any
}

// Delete removes an item.
type Delete struct {
	ID int
}

// Command implements Action.
func (Create) Command() Command { return CmdNew }

// Command implements Action.
func (Update) Command() Command { return CmdUpdate }

// Command implements Action.
func (Delete) Command() Command { return CmdDelete }

// Batch builds the <Batch> element for actions. Methods are numbered from 1 in
// the order given.
func (b *Builder) Batch(actions []Action) (*Element, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidQuery)
	}

	batch := NewElement("Batch").Set("OnError", "Return").Set("ListVersion", "1")
	for i, a := range actions {
		if nilAction(a) {
			return nil, fmt.Errorf("method %d: %w: nil action", i+1, ErrInvalidQuery)
		}
		method := batch.Add("Method").
			Set("ID", strconv.Itoa(i+1)).
			Set("Cmd", string(a.Command()))

		var err error
		switch act := a.(type) {
		case Create:
			err = b.fields(method, act.Fields)
		case *Create:
			err = b.fields(method, act.Fields)
		case Update:
			addField(method, idField, strconv.Itoa(act.ID))
			err = b.fields(method, act.Fields)
		case *Update:
			addField(method, idField, strconv.Itoa(act.ID))
			err = b.fields(method, act.Fields)
		case Delete:
			addField(method, idField, strconv.Itoa(act.ID))
		case *Delete:
			addField(method, idField, strconv.Itoa(act.ID))
		default:
			err = fmt.Errorf("%w: unsupported action %T", ErrInvalidQuery, a)
		}
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i+1, err)
		}
	}
	return batch, nil
}

func nilAction(a Action) bool {
	switch act := a.(type) {
	case nil:
		return true
	case *Create:
		return act == nil
	case *Update:
		return act == nil
	case *Delete:
		return act == nil
	}
	return false
}

// fields appends one Field element per column, ordered by internal name.
func (b *Builder) fields(method *Element, row map[string]any) error {
	type pair struct{ name, value string }
	pairs := make([]pair, 0, len(row))
	for display, v := range row {
		f, err := b.catalog.ResolveByDisplay(display)
		if err != nil {
			return err
		}
		if f.InternalName == idField && method.Find("Field") != nil {
			continue
		}
		w, err := b.enc.ToWire(f, v)
		if err != nil {
			return err
		}
		pairs = append(pairs, pair{name: f.InternalName, value: w})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	for _, p := range pairs {
		addField(method, p.name, p.value)
	}
	return nil
}

func addField(method *Element, name, value string) {
	method.Add("Field").Set("Name", name).Text = value
}
