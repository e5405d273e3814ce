package lists

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/smnsjas/go-splists/response"
	"github.com/smnsjas/go-splists/schema"
	"github.com/smnsjas/go-splists/soap"
	"github.com/smnsjas/go-splists/transport"
	"github.com/smnsjas/go-splists/users"
)

// UserInfoList is the hidden list holding the site's users.
const UserInfoList = "UserInfo"

// Templates maps list template names to AddList template IDs.
var Templates = map[string]int{
	"Announcements":                 104,
	"Contacts":                      105,
	"Custom List":                   100,
	"Custom List in Datasheet View": 120,
	"DataSources":                   110,
	"Discussion Board":              108,
	"Document Library":              101,
	"Events":                        106,
	"Form Library":                  115,
	"Issues":                        1100,
	"Links":                         103,
	"Picture Library":               109,
	"Survey":                        102,
	"Tasks":                         107,
}

// TemplateID resolves a template name or a numeric template ID.
func TemplateID(template string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(template)); err == nil {
		return id, nil
	}
	if id, ok := Templates[template]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown list template %q", template)
}

// Site is a client for one SharePoint site. It is safe for concurrent use.
type Site struct {
	caller
	opts options

	mu    sync.Mutex
	users *users.Directory
}

var _ users.Provider = (*Site)(nil)

// NewSite creates a client for the site at siteURL. Options given here apply
// to every List opened through the site.
func NewSite(tr transport.Transport, siteURL string, opts ...Option) *Site {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Site{
		caller: caller{siteURL: siteURL, tr: tr, logger: o.logger, timeout: o.timeout},
		opts:   o,
		users:  o.users,
	}
}

// URL returns the site URL.
func (s *Site) URL() string {
	return s.siteURL
}

// List opens the list with the given title or GUID. Unless a directory was
// provided or WithoutUserDirectory given, the site's user directory is loaded
// first; failing to load it only disables user name translation.
func (s *Site) List(ctx context.Context, name string, opts ...Option) (*List, error) {
	o := s.opts
	for _, opt := range opts {
		opt(&o)
	}
	if o.users == nil && !o.skipUsers {
		dir, err := s.Users(ctx)
		if err != nil {
			o.logger.Warn("user directory unavailable", zap.Error(err))
		} else {
			o.users = dir
		}
	}

	l := newList(s.caller, name, o)
	if err := l.Open(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Users returns the site's user directory, loading it from the UserInfo list
// on first use.
func (s *Site) Users(ctx context.Context) (*users.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users != nil {
		return s.users, nil
	}

	env := soap.New(soap.OpGetListItems).
		AddParameter("listName", UserInfoList).
		AddIntParameter("rowLimit", 0)
	body, err := s.call(ctx, env)
	if err != nil {
		return nil, err
	}
	items, err := response.ListItems(body)
	if err != nil {
		return nil, err
	}

	entries := make([]users.User, 0, len(items.Rows))
	for _, row := range items.Rows {
		entries = append(entries, users.User{ID: row["ID"], Name: row["ImnName"]})
	}
	s.users = users.NewDirectory(entries)
	s.logger.Debug("user directory loaded", zap.Int("users", s.users.Len()))
	return s.users, nil
}

// AddList creates a list from a template name or numeric template ID.
func (s *Site) AddList(ctx context.Context, name, description, template string) (schema.ListInfo, error) {
	id, err := TemplateID(template)
	if err != nil {
		return schema.ListInfo{}, err
	}
	env := soap.New(soap.OpAddList).
		AddParameter("listName", name).
		AddParameter("description", description).
		AddIntParameter("templateID", id)
	body, err := s.call(ctx, env)
	if err != nil {
		return schema.ListInfo{}, err
	}
	info, err := response.ListInfo(body, soap.OpAddList.String())
	if err != nil {
		return schema.ListInfo{}, err
	}
	s.logger.Info("list created", zap.String("list", name), zap.Stringer("id", info.ID))
	return info, nil
}

// DeleteList deletes the list with the given title or GUID.
func (s *Site) DeleteList(ctx context.Context, name string) error {
	body, err := s.call(ctx, soap.New(soap.OpDeleteList).AddParameter("listName", name))
	if err != nil {
		return err
	}
	if err := response.CheckFault(body, soap.OpDeleteList.String()); err != nil {
		return err
	}
	s.logger.Info("list deleted", zap.String("list", name))
	return nil
}

// GetListCollection returns the site's lists, each as a map of property
// name to value (Title, InternalName, BaseType, ...).
func (s *Site) GetListCollection(ctx context.Context) ([]map[string]string, error) {
	body, err := s.call(ctx, soap.New(soap.OpGetListCollection))
	if err != nil {
		return nil, err
	}
	return response.ListCollection(body)
}
