package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smnsjas/go-splists/caml"
	"github.com/smnsjas/go-splists/codec"
	"github.com/smnsjas/go-splists/response"
	"github.com/smnsjas/go-splists/schema"
	"github.com/smnsjas/go-splists/soap"
	"github.com/smnsjas/go-splists/transport"
)

var (
	// ErrNotReady is returned when an operation needs an opened list.
	ErrNotReady = errors.New("list not ready")
	// ErrUnknownView is returned for a view display name the list does not have.
	ErrUnknownView = errors.New("unknown view")
)

// State is the lifecycle state of a List.
type State int

const (
	// StateUninitialized is the state before Open.
	StateUninitialized State = iota
	// StateOpening indicates the schema and views are being loaded.
	StateOpening
	// StateReady indicates the list can be used.
	StateReady
	// StateFailed indicates the last Open failed.
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateOpening:
		return "Opening"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// userInfoNames are list names whose views are addressed by raw name.
var userInfoNames = map[string]bool{
	UserInfoList:            true,
	"User Information List": true,
}

// List is a client for one list. Create it with Site.List or New.
type List struct {
	caller
	name string
	opts options

	mu      sync.RWMutex
	state   State
	meta    *response.ListSchema
	catalog *schema.Catalog
	codec   *codec.Codec
	builder *caml.Builder
	views   []response.View
}

// New creates an unopened list client. Call Open before use.
func New(tr transport.Transport, siteURL, name string, opts ...Option) *List {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newList(caller{siteURL: siteURL, tr: tr, logger: o.logger, timeout: o.timeout}, name, o)
}

func newList(c caller, name string, o options) *List {
	c.logger = o.logger.With(zap.String("list", name))
	c.timeout = o.timeout
	return &List{caller: c, name: name, opts: o}
}

// Name returns the list name the client was created with.
func (l *List) Name() string {
	return l.name
}

// State returns the current state.
func (l *List) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Open loads the schema and the views. Opening a ready list reloads them.
func (l *List) Open(ctx context.Context) error {
	l.mu.Lock()
	prev := l.state
	if prev != StateReady {
		l.state = StateOpening
	}
	l.mu.Unlock()

	meta, catalog, views, err := l.load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		if prev != StateReady {
			l.state = StateFailed
		}
		return err
	}
	l.meta = meta
	l.catalog = catalog
	l.codec = codec.New(catalog, l.opts.codecOptions()...)
	l.builder = caml.NewBuilder(catalog, l.codec)
	l.views = views
	l.state = StateReady

	l.logger.Info("list ready",
		zap.Stringer("from", prev),
		zap.Int("fields", catalog.Len()),
		zap.Int("views", len(views)))
	return nil
}

// Refresh reloads the schema and views of a ready list.
func (l *List) Refresh(ctx context.Context) error {
	if l.State() != StateReady {
		return fmt.Errorf("%w: %s is %s", ErrNotReady, l.name, l.State())
	}
	return l.Open(ctx)
}

func (l *List) load(ctx context.Context) (*response.ListSchema, *schema.Catalog, []response.View, error) {
	body, err := l.call(ctx, soap.New(soap.OpGetList).AddParameter("listName", l.name))
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := response.List(body, soap.OpGetList.String())
	if err != nil {
		return nil, nil, nil, err
	}

	var buildOpts []schema.BuildOption
	if l.opts.excludeHidden {
		buildOpts = append(buildOpts, schema.WithoutHidden())
	}
	catalog, err := schema.Build(meta.Fields, buildOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list %s: %w", l.name, err)
	}

	views, err := l.fetchViews(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, catalog, views, nil
}

func (l *List) fetchViews(ctx context.Context) ([]response.View, error) {
	body, err := l.call(ctx, soap.New(soap.OpGetViewCollection).AddParameter("listName", l.name))
	if err != nil {
		return nil, err
	}
	return response.ViewCollection(body)
}

// snapshot returns the loaded state, or ErrNotReady.
func (l *List) snapshot() (*listState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateReady {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotReady, l.name, l.state)
	}
	return &listState{
		meta:    l.meta,
		catalog: l.catalog,
		codec:   l.codec,
		builder: l.builder,
		views:   l.views,
	}, nil
}

// listState is an immutable view of a ready list.
type listState struct {
	meta    *response.ListSchema
	catalog *schema.Catalog
	codec   *codec.Codec
	builder *caml.Builder
	views   []response.View
}

// view finds a view by display name; "" selects the default view.
func (s *listState) view(displayName string) (response.View, error) {
	for _, v := range s.views {
		if displayName == "" && v.Default {
			return v, nil
		}
		if displayName != "" && v.DisplayName == displayName {
			return v, nil
		}
	}
	if displayName == "" {
		return response.View{}, fmt.Errorf("%w: no default view", ErrUnknownView)
	}
	return response.View{}, fmt.Errorf("%w: %q", ErrUnknownView, displayName)
}

// Info returns the list attributes returned by GetList.
func (l *List) Info() (schema.ListInfo, error) {
	s, err := l.snapshot()
	if err != nil {
		return schema.ListInfo{}, err
	}
	return s.meta.Info, nil
}

// Catalog returns the field catalog.
func (l *List) Catalog() (*schema.Catalog, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	return s.catalog, nil
}

// Fields returns the list fields in schema order.
func (l *List) Fields() ([]schema.Field, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	return s.catalog.Fields(), nil
}

// Views returns the views loaded by Open.
func (l *List) Views() ([]response.View, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]response.View, len(s.views))
	copy(out, s.views)
	return out, nil
}

// RegionalSettings returns the list's regional settings (Language, Locale, TimeZone, ...).
func (l *List) RegionalSettings() (map[string]string, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	return copyMap(s.meta.RegionalSettings), nil
}

// ServerSettings returns the server settings reported with the schema.
func (l *List) ServerSettings() (map[string]string, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	return copyMap(s.meta.ServerSettings), nil
}

// GetView fetches the definition of the view with the given display name.
// An empty name selects the default view. For the user information list the
// name is sent as given.
func (l *List) GetView(ctx context.Context, displayName string) (*response.View, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}

	viewName := displayName
	if !userInfoNames[l.name] && len(s.views) > 0 {
		v, err := s.view(displayName)
		if err != nil {
			return nil, err
		}
		viewName = v.ViewName()
	}

	env := soap.New(soap.OpGetView).
		AddParameter("listName", l.name).
		AddParameter("viewName", viewName)
	body, err := l.call(ctx, env)
	if err != nil {
		return nil, err
	}
	return response.GetView(body)
}

// GetViewCollection fetches the list's views from the server.
func (l *List) GetViewCollection(ctx context.Context) ([]response.View, error) {
	if _, err := l.snapshot(); err != nil {
		return nil, err
	}
	return l.fetchViews(ctx)
}

// UpdateListItems submits actions as one batch and returns the per-method
// results in method order. Unresolvable field names fail before anything is
// sent.
func (l *List) UpdateListItems(ctx context.Context, actions []caml.Action) ([]response.BatchResult, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	batch, err := s.builder.Batch(actions)
	if err != nil {
		return nil, err
	}

	env := soap.New(soap.OpUpdateListItems).
		AddParameter("listName", l.name).
		AddBatch(batch)
	body, err := l.call(ctx, env)
	if err != nil {
		return nil, err
	}
	results, err := response.BatchResults(body)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if !r.Success() {
			failed++
		}
	}
	l.logger.Debug("batch applied", zap.Int("methods", len(results)), zap.Int("failed", failed))
	return results, nil
}

// GetAttachmentCollection returns the attachment URLs of an item.
func (l *List) GetAttachmentCollection(ctx context.Context, itemID int) ([]string, error) {
	if _, err := l.snapshot(); err != nil {
		return nil, err
	}
	env := soap.New(soap.OpGetAttachmentCollection).
		AddParameter("listName", l.name).
		AddIntParameter("listItemID", itemID)
	body, err := l.call(ctx, env)
	if err != nil {
		return nil, err
	}
	return response.Attachments(body)
}

// GetVersionCollection returns the history of one field of an item. The
// field may be given by display or internal name.
func (l *List) GetVersionCollection(ctx context.Context, itemID int, field string) ([]response.Version, error) {
	s, err := l.snapshot()
	if err != nil {
		return nil, err
	}
	f, err := s.catalog.Resolve(field)
	if err != nil {
		return nil, err
	}

	listID := l.name
	if s.meta.Info.ID != uuid.Nil {
		listID = "{" + strings.ToUpper(s.meta.Info.ID.String()) + "}"
	}
	env := soap.New(soap.OpGetVersionCollection).
		AddParameter("strlistID", listID).
		AddIntParameter("strlistItemID", itemID).
		AddParameter("strFieldName", f.InternalName)
	body, err := l.call(ctx, env)
	if err != nil {
		return nil, err
	}
	return response.Versions(body, f.InternalName)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
