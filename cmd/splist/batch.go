package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smnsjas/go-splists/caml"
	"github.com/smnsjas/go-splists/listdict"
)

// batchEntry is one method of a batch file:
//
//	- cmd: New
//	  fields: {Title: Write docs, Status: Open}
//	- cmd: Update
//	  id: 12
//	  fields: {Status: Done}
//	- cmd: Delete
//	  id: 13
type batchEntry struct {
	Cmd    string         `json:"cmd" yaml:"cmd"`
	ID     int            `json:"id,omitempty" yaml:"id,omitempty"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// parseBatch decodes a YAML batch file into actions.
func parseBatch(data []byte) ([]caml.Action, error) {
	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("batch file has no methods")
	}

	actions := make([]caml.Action, 0, len(entries))
	for i, e := range entries {
		cmd, _ := parseCommand(e.Cmd)
		switch cmd {
		case caml.CmdNew:
			actions = append(actions, caml.Create{Fields: e.Fields})
		case caml.CmdUpdate:
			if e.ID <= 0 {
				return nil, fmt.Errorf("method %d: Update needs an id", i+1)
			}
			actions = append(actions, caml.Update{ID: e.ID, Fields: e.Fields})
		case caml.CmdDelete:
			if e.ID <= 0 {
				return nil, fmt.Errorf("method %d: Delete needs an id", i+1)
			}
			actions = append(actions, caml.Delete{ID: e.ID})
		default:
			return nil, fmt.Errorf("method %d: unknown cmd %q", i+1, e.Cmd)
		}
	}
	return actions, nil
}

// batchEntries is the inverse of parseBatch.
func batchEntries(actions []caml.Action) []batchEntry {
	out := make([]batchEntry, 0, len(actions))
	for _, a := range actions {
		e := batchEntry{Cmd: string(a.Command())}
		switch act := a.(type) {
		case caml.Create:
			e.Fields = act.Fields
		case caml.Update:
			e.ID, e.Fields = act.ID, act.Fields
		case caml.Delete:
			e.ID = act.ID
		}
		out = append(out, e)
	}
	return out
}

func parseCommand(s string) (caml.Command, bool) {
	for _, c := range []caml.Command{caml.CmdNew, caml.CmdUpdate, caml.CmdDelete} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// parseRows decodes a YAML sequence of rows keyed by display name.
func parseRows(data []byte) ([]listdict.Row, error) {
	var rows []listdict.Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}
	return rows, nil
}

// syncPlan compares wanted rows with the list's current rows, both indexed
// by keys, and returns the creates and updates that bring the list in line.
// Columns default to every column of the wanted rows except the keys.
func syncPlan(wanted, current []listdict.Row, keys, columns []string) ([]caml.Action, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one key column is required")
	}
	if len(columns) == 0 {
		columns = rowColumns(wanted, keys)
	}

	newIdx := listdict.FullDict(wanted, keys...)
	oldIdx := listdict.FullDict(current, keys...)

	changes, err := listdict.Changes(newIdx, oldIdx, idColumn, columns)
	if err != nil {
		return nil, err
	}
	updates, err := listdict.Updates(changes, idColumn)
	if err != nil {
		return nil, err
	}
	return append(listdict.Creates(listdict.Unique(newIdx, oldIdx)), updates...), nil
}

const idColumn = "ID"

func rowColumns(rows []listdict.Row, exclude []string) []string {
	skip := map[string]bool{idColumn: true}
	for _, k := range exclude {
		skip[k] = true
	}
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !skip[k] && !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
