package lists

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smnsjas/go-splists/caml"
	"github.com/smnsjas/go-splists/response"
	"github.com/smnsjas/go-splists/soap"
)

// ItemsRequest selects list items.
type ItemsRequest struct {
	// View is the display name of a view whose filter and columns apply.
	View string
	// Fields restricts the returned columns (display names).
	Fields []string
	Query  *caml.Query
	// RowLimit caps the rows returned per request; 0 means the server default
	// for a view, unlimited otherwise.
	RowLimit int
}

// Page is one page of items.
type Page struct {
	// Rows are keyed by display name, with values converted to Go types.
	Rows []map[string]any
	// NextPage continues the query with GetListItemsPage; empty on the last page.
	NextPage string
}

// GetListItems returns the items selected by req.
//
// Returned columns are, in order of precedence: the requested Fields, the
// columns of the requested View, or every catalog field. When Fields are
// given without View or Query the items are ordered by ID.
func (l *List) GetListItems(ctx context.Context, req ItemsRequest) ([]map[string]any, error) {
	p, err := l.GetListItemsPage(ctx, req, "")
	if err != nil {
		return nil, err
	}
	return p.Rows, nil
}

// GetListItemsPage returns one page of items, continuing after position
// when it is not empty.
func (l *List) GetListItemsPage(ctx context.Context, req ItemsRequest, position string) (*Page, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}

	env := soap.New(soap.OpGetListItems).AddParameter("listName", l.name)

	var view response.View
	if req.View != "" {
		view, err = s.view(req.View)
		if err != nil {
			return nil, err
		}
		env.AddParameter("viewName", view.ViewName())
	}

	var query *caml.Element
	if req.Query != nil {
		query, err = s.builder.Query(req.Query)
		if err != nil {
			return nil, err
		}
	}

	var retained []string
	switch {
	case len(req.Fields) > 0:
		for _, name := range req.Fields {
			f, err := s.catalog.ResolveByDisplay(name)
			if err != nil {
				return nil, err
			}
			retained = append(retained, f.InternalName)
		}
		env.AddViewFields(retained)
		if req.View == "" && req.Query == nil {
			query = caml.NewElement("Query")
			query.Add("OrderBy").Add("FieldRef").Set("Name", "ID")
		}
	case req.View != "":
		v, err := l.GetView(ctx, req.View)
		if err != nil {
			return nil, err
		}
		retained = v.Fields
	default:
		retained = s.catalog.InternalNames()
	}

	if query != nil {
		env.AddQuery(query)
	}
	env.AddIntParameter("rowLimit", req.RowLimit)
	if position != "" {
		env.AddPaging(position)
	}

	body, err := l.call(ctx, env)
	if err != nil {
		return nil, err
	}
	items, err := response.ListItems(body)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(retained))
	for _, name := range retained {
		keep[name] = true
	}
	page := &Page{Rows: make([]map[string]any, 0, len(items.Rows)), NextPage: items.NextPage}
	for _, row := range items.Rows {
		filtered := make(map[string]string, len(keep))
		for k, v := range row {
			if keep[k] {
				filtered[k] = v
			}
		}
		page.Rows = append(page.Rows, s.codec.RowToNative(filtered))
	}

	l.logger.Debug("items fetched",
		zap.Int("rows", len(page.Rows)),
		zap.Bool("more", page.NextPage != ""))
	return page, nil
}

// AllListItems follows pages until the last one. req.RowLimit sets the page size.
func (l *List) AllListItems(ctx context.Context, req ItemsRequest) ([]map[string]any, error) {
	var (
		all      []map[string]any
		position string
	)
	for pages := 1; ; pages++ {
		p, err := l.GetListItemsPage(ctx, req, position)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pages, err)
		}
		all = append(all, p.Rows...)
		if p.NextPage == "" || p.NextPage == position {
			return all, nil
		}
		position = p.NextPage
	}
}
