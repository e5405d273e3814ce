package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smnsjas/go-splists/caml"
	"github.com/smnsjas/go-splists/lists"
	"github.com/smnsjas/go-splists/listdict"
)

type fieldOut struct {
	DisplayName  string `json:"display_name" yaml:"display_name"`
	InternalName string `json:"internal_name" yaml:"internal_name"`
	Type         string `json:"type" yaml:"type"`
	Hidden       bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

type viewOut struct {
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Name        string   `json:"name" yaml:"name"`
	Default     bool     `json:"default,omitempty" yaml:"default,omitempty"`
	Fields      []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type resultOut struct {
	Method string            `json:"method" yaml:"method"`
	Code   string            `json:"code" yaml:"code"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
	Row    map[string]string `json:"row,omitempty" yaml:"row,omitempty"`
}

type versionOut struct {
	Value    string `json:"value" yaml:"value"`
	Modified string `json:"modified" yaml:"modified"`
	Editor   string `json:"editor" yaml:"editor"`
}

var fieldsCmd = &cobra.Command{
	Use:   "fields <list>",
	Short: "Show the fields of a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openList(cmd.Context(), args[0], lists.WithoutUserDirectory())
		if err != nil {
			return err
		}
		fields, err := l.Fields()
		if err != nil {
			return err
		}
		out := make([]fieldOut, len(fields))
		for i, f := range fields {
			out[i] = fieldOut{DisplayName: f.DisplayName, InternalName: f.InternalName, Type: f.ValueType(), Hidden: f.Hidden}
		}
		return render(cmd.OutOrStdout(), cfg.Output, out)
	},
}

var viewsCmd = &cobra.Command{
	Use:   "views <list> [view]",
	Short: "List the views of a list, or show the fields of one view",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openList(cmd.Context(), args[0], lists.WithoutUserDirectory())
		if err != nil {
			return err
		}
		if len(args) == 2 {
			v, err := l.GetView(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, viewOut{DisplayName: v.DisplayName, Name: v.ViewName(), Default: v.Default, Fields: v.Fields})
		}

		views, err := l.Views()
		if err != nil {
			return err
		}
		out := make([]viewOut, len(views))
		for i, v := range views {
			out[i] = viewOut{DisplayName: v.DisplayName, Name: v.ViewName(), Default: v.Default}
		}
		return render(cmd.OutOrStdout(), cfg.Output, out)
	},
}

var itemsFlags struct {
	view    string
	fields  []string
	orderBy []string
	groupBy []string
	limit   int
	all     bool
}

var itemsCmd = &cobra.Command{
	Use:   "items <list> [token...]",
	Short: "Query list items",
	Long: `Query list items. Tokens form a prefix-notation filter:

  And | Or | <Op>:<Field>[:<Value>]

Operators: Eq Neq Gt Geq Lt Leq Contains BeginsWith IsNull IsNotNull.

  splist items Tasks And Eq:Status:Open Lt:"Due Date":"2024-06-01 00:00:00"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := itemsRequest(args[1:])
		if err != nil {
			return err
		}
		l, err := openList(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var rows []map[string]any
		if itemsFlags.all {
			rows, err = l.AllListItems(cmd.Context(), req)
		} else {
			rows, err = l.GetListItems(cmd.Context(), req)
		}
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, rows)
	},
}

func itemsRequest(tokens []string) (lists.ItemsRequest, error) {
	req := lists.ItemsRequest{
		View:     itemsFlags.view,
		Fields:   itemsFlags.fields,
		RowLimit: itemsFlags.limit,
	}

	var q caml.Query
	if len(tokens) > 0 {
		where, err := caml.ParseTokens(tokens)
		if err != nil {
			return req, err
		}
		q.Where = where
	}
	for _, s := range itemsFlags.orderBy {
		sort, err := caml.ParseSort(s)
		if err != nil {
			return req, err
		}
		q.OrderBy = append(q.OrderBy, sort)
	}
	q.GroupBy = itemsFlags.groupBy
	if q.Where != nil || q.OrderBy != nil || q.GroupBy != nil {
		req.Query = &q
	}
	return req, nil
}

var updateCmd = &cobra.Command{
	Use:   "update <list> <batch.yaml|->",
	Short: "Apply a batch of New, Update and Delete methods",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		actions, err := parseBatch(data)
		if err != nil {
			return err
		}
		l, err := openList(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return applyBatch(cmd, l, actions)
	},
}

var syncFlags struct {
	keys    []string
	columns []string
	dryRun  bool
}

var syncCmd = &cobra.Command{
	Use:   "sync <list> <rows.yaml|->",
	Short: "Create and update items so the list matches a row file",
	Long: `Rows are matched to list items by the --key columns. Unmatched rows are
created; matched rows whose --column values differ are updated. Items absent
from the file are left alone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		wanted, err := parseRows(data)
		if err != nil {
			return err
		}
		l, err := openList(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		columns := syncFlags.columns
		if len(columns) == 0 {
			columns = rowColumns(wanted, syncFlags.keys)
		}
		fetch := append([]string{idColumn}, syncFlags.keys...)
		fetch = append(fetch, columns...)
		rows, err := l.AllListItems(cmd.Context(), lists.ItemsRequest{Fields: fetch})
		if err != nil {
			return err
		}
		current := make([]listdict.Row, len(rows))
		for i, r := range rows {
			current[i] = r
		}

		actions, err := syncPlan(wanted, current, syncFlags.keys, columns)
		if err != nil {
			return err
		}
		logger.Info("sync planned", zap.String("list", args[0]), zap.Int("methods", len(actions)))
		if len(actions) == 0 || syncFlags.dryRun {
			return render(cmd.OutOrStdout(), cfg.Output, batchEntries(actions))
		}
		return applyBatch(cmd, l, actions)
	},
}

func applyBatch(cmd *cobra.Command, l *lists.List, actions []caml.Action) error {
	results, err := l.UpdateListItems(cmd.Context(), actions)
	if err != nil {
		return err
	}
	out := make([]resultOut, len(results))
	failed := 0
	for i, r := range results {
		out[i] = resultOut{Method: r.MethodID, Code: r.Code, Error: r.Text, Row: r.Row}
		if !r.Success() {
			failed++
		}
	}
	if err := render(cmd.OutOrStdout(), cfg.Output, out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d methods failed", failed, len(results))
	}
	return nil
}

var attachmentsCmd = &cobra.Command{
	Use:   "attachments <list> <item-id>",
	Short: "List the attachment URLs of an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		l, err := openList(cmd.Context(), args[0], lists.WithoutUserDirectory())
		if err != nil {
			return err
		}
		urls, err := l.GetAttachmentCollection(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, urls)
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <list> <item-id> <field>",
	Short: "Show the version history of one field of an item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		l, err := openList(cmd.Context(), args[0], lists.WithoutUserDirectory())
		if err != nil {
			return err
		}
		versions, err := l.GetVersionCollection(cmd.Context(), id, args[2])
		if err != nil {
			return err
		}
		out := make([]versionOut, len(versions))
		for i, v := range versions {
			out[i] = versionOut{Value: v.Value, Modified: v.Modified, Editor: v.Editor}
		}
		return render(cmd.OutOrStdout(), cfg.Output, out)
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the site users known to person fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := site().Users(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, dir.Names())
	},
}

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List the lists of the site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := site().GetListCollection(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, all)
	},
}

var addListFlags struct {
	description string
	template    string
}

var addListCmd = &cobra.Command{
	Use:   "add-list <name>",
	Short: "Create a list from a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := site().AddList(cmd.Context(), args[0], addListFlags.description, addListFlags.template)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), cfg.Output, map[string]string{
			"id":    info.ID.String(),
			"title": info.Title,
		})
	},
}

var deleteListYes bool

var deleteListCmd = &cobra.Command{
	Use:   "delete-list <name>",
	Short: "Delete a list and all its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteListYes {
			return fmt.Errorf("refusing to delete %q without --yes", args[0])
		}
		return site().DeleteList(cmd.Context(), args[0])
	},
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func init() {
	f := itemsCmd.Flags()
	f.StringVar(&itemsFlags.view, "view", "", "view display name")
	f.StringSliceVar(&itemsFlags.fields, "field", nil, "returned field (repeatable)")
	f.StringSliceVar(&itemsFlags.orderBy, "order-by", nil, "sort as Field[:asc|desc] (repeatable)")
	f.StringSliceVar(&itemsFlags.groupBy, "group-by", nil, "group by field (repeatable)")
	f.IntVar(&itemsFlags.limit, "limit", 0, "rows per request (0 = server default)")
	f.BoolVar(&itemsFlags.all, "all", false, "follow pages until the last one")

	f = syncCmd.Flags()
	f.StringSliceVar(&syncFlags.keys, "key", nil, "key column matching rows to items (repeatable)")
	f.StringSliceVar(&syncFlags.columns, "column", nil, "compared column (repeatable, default all)")
	f.BoolVar(&syncFlags.dryRun, "dry-run", false, "print the planned methods without applying them")
	_ = syncCmd.MarkFlagRequired("key")

	f = addListCmd.Flags()
	f.StringVar(&addListFlags.description, "description", "", "list description")
	f.StringVar(&addListFlags.template, "template", "Custom List", "template name or numeric id")

	deleteListCmd.Flags().BoolVar(&deleteListYes, "yes", false, "confirm deletion")
}
