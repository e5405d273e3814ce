package response

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smnsjas/go-splists/schema"
)

const (
	// RowAttrPrefix prefixes column attributes of item rows.
	RowAttrPrefix = "ows_"
	// SuccessCode is the per-method result code of a successful batch method.
	SuccessCode = "0x00000000"
	// VersionValueAttr replaces the field-named attribute of Version elements.
	VersionValueAttr = "VersionValue"
)

// ListSchema is the payload of GetList (and AddList).
type ListSchema struct {
	Info             schema.ListInfo
	Fields           []schema.Field
	RegionalSettings map[string]string
	ServerSettings   map[string]string
}

// List extracts the list schema from a GetList or AddList response.
func List(data []byte, op string) (*ListSchema, error) {
	list, err := Payload(data, op)
	if err != nil {
		return nil, err
	}
	info, err := schema.ListInfoFromAttrs(list.AttrMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	out := &ListSchema{
		Info:             info,
		RegionalSettings: map[string]string{},
		ServerSettings:   map[string]string{},
	}
	fields := section(list, "Fields")
	if fields == nil {
		return nil, fmt.Errorf("%w: %s payload has no Fields", ErrProtocol, op)
	}
	for _, f := range fields.ChildrenNamed("Field") {
		out.Fields = append(out.Fields, schema.FieldFromAttrs(f.AttrMap()))
	}
	if rs := section(list, "RegionalSettings"); rs != nil {
		out.RegionalSettings = rs.ChildTexts()
	}
	if ss := section(list, "ServerSettings"); ss != nil {
		out.ServerSettings = ss.ChildTexts()
	}
	return out, nil
}

// section finds a schema block of a List by name. An exact match wins; any
// element whose name contains name is accepted otherwise.
func section(list *Node, name string) *Node {
	if n := list.FindFold(name); n != nil {
		return n
	}
	return list.FindContains(name)
}

// ListInfo extracts only the List element attributes from a GetList or
// AddList response.
func ListInfo(data []byte, op string) (schema.ListInfo, error) {
	list, err := Payload(data, op)
	if err != nil {
		return schema.ListInfo{}, err
	}
	info, err := schema.ListInfoFromAttrs(list.AttrMap())
	if err != nil {
		return schema.ListInfo{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return info, nil
}

// Items is the payload of GetListItems.
type Items struct {
	// Rows hold wire values keyed by internal name.
	Rows []map[string]string
	// NextPage is the ListItemCollectionPositionNext token, empty on the last page.
	NextPage string
}

// ListItems extracts rows from a GetListItems response.
func ListItems(data []byte) (*Items, error) {
	listitems, err := Payload(data, "GetListItems")
	if err != nil {
		return nil, err
	}
	rs := listitems.Child("data")
	if rs == nil {
		return nil, fmt.Errorf("%w: listitems has no data element", ErrProtocol)
	}
	out := &Items{Rows: []map[string]string{}}
	out.NextPage, _ = rs.Attr("ListItemCollectionPositionNext")
	for _, row := range rs.ChildrenNamed("row") {
		out.Rows = append(out.Rows, RowAttrs(row))
	}
	return out, nil
}

// RowAttrs returns the attributes of an item row with the "ows_" prefix removed.
func RowAttrs(row *Node) map[string]string {
	m := make(map[string]string, len(row.Attrs))
	for _, a := range row.Attrs {
		name := strings.TrimPrefix(a.Name.Local, RowAttrPrefix)
		if name == "" {
			continue
		}
		m[name] = a.Value
	}
	return m
}

// View describes one list view.
type View struct {
	// ID is parsed from the Name attribute, which carries a braced GUID.
	ID          uuid.UUID
	DisplayName string
	Default     bool
	Attrs       map[string]string
	// Fields lists the internal names of the view's columns (GetView only).
	Fields []string
}

// ViewName returns the Name attribute with its surrounding braces removed,
// the form accepted by the viewName parameter.
func (v View) ViewName() string {
	return strings.TrimSuffix(strings.TrimPrefix(v.Attrs["Name"], "{"), "}")
}

func viewFromNode(n *Node) View {
	attrs := n.AttrMap()
	v := View{
		DisplayName: attrs["DisplayName"],
		Default:     strings.EqualFold(attrs["DefaultView"], "TRUE"),
		Attrs:       attrs,
	}
	if id, err := uuid.Parse(attrs["Name"]); err == nil {
		v.ID = id
	}
	if vf := n.Child("ViewFields"); vf != nil {
		for _, ref := range vf.ChildrenNamed("FieldRef") {
			if name, ok := ref.Attr("Name"); ok {
				v.Fields = append(v.Fields, name)
			}
		}
	}
	return v
}

// GetView extracts the view definition from a GetView response.
func GetView(data []byte) (*View, error) {
	n, err := Payload(data, "GetView")
	if err != nil {
		return nil, err
	}
	if n.Name.Local != "View" {
		return nil, fmt.Errorf("%w: GetView payload is %q", ErrProtocol, n.Name.Local)
	}
	v := viewFromNode(n)
	return &v, nil
}

// ViewCollection extracts the views of a GetViewCollection response in
// document order.
func ViewCollection(data []byte) ([]View, error) {
	n, err := Payload(data, "GetViewCollection")
	if err != nil {
		return nil, err
	}
	views := []View{}
	for _, c := range n.ChildrenNamed("View") {
		views = append(views, viewFromNode(c))
	}
	return views, nil
}

// BatchResult is the outcome of one batch method.
type BatchResult struct {
	// MethodID is the result ID attribute, e.g. "1,New".
	MethodID string
	Code     string
	Text     string
	// Row holds the item as stored after the method, when returned.
	Row map[string]string
}

// Success reports whether the method succeeded.
func (r BatchResult) Success() bool {
	return r.Code == SuccessCode
}

// BatchResults extracts per-method results from an UpdateListItems response.
func BatchResults(data []byte) ([]BatchResult, error) {
	n, err := Payload(data, "UpdateListItems")
	if err != nil {
		return nil, err
	}
	results := []BatchResult{}
	for _, r := range n.ChildrenNamed("Result") {
		br := BatchResult{}
		br.MethodID, _ = r.Attr("ID")
		if c := r.Child("ErrorCode"); c != nil {
			br.Code = strings.TrimSpace(c.Text)
		}
		if c := r.Child("ErrorText"); c != nil {
			br.Text = strings.TrimSpace(c.Text)
		}
		if row := r.Child("row"); row != nil {
			br.Row = RowAttrs(row)
		}
		results = append(results, br)
	}
	return results, nil
}

// Attachments extracts attachment URLs from a GetAttachmentCollection response.
func Attachments(data []byte) ([]string, error) {
	n, err := Payload(data, "GetAttachmentCollection")
	if err != nil {
		return nil, err
	}
	urls := []string{}
	for _, c := range n.ChildrenNamed("Attachment") {
		urls = append(urls, strings.TrimSpace(c.Text))
	}
	return urls, nil
}

// Version is one entry of an item field's history.
type Version struct {
	Value    string
	Modified string
	Editor   string
	Attrs    map[string]string
}

// RewriteVersionField replaces the field-named attribute of Version elements
// with VersionValueAttr. The server uses the raw field name, which may contain
// spaces, as the attribute name.
func RewriteVersionField(data []byte, field string) []byte {
	return bytes.ReplaceAll(data,
		[]byte(`Version `+field+`="`),
		[]byte(`Version `+VersionValueAttr+`="`))
}

// Versions extracts the history of field from a GetVersionCollection response.
func Versions(data []byte, field string) ([]Version, error) {
	n, err := Payload(RewriteVersionField(data, field), "GetVersionCollection")
	if err != nil {
		return nil, err
	}
	versions := []Version{}
	for _, c := range n.ChildrenNamed("Version") {
		attrs := c.AttrMap()
		versions = append(versions, Version{
			Value:    attrs[VersionValueAttr],
			Modified: attrs["Modified"],
			Editor:   attrs["Editor"],
			Attrs:    attrs,
		})
	}
	return versions, nil
}

// ListCollection extracts the site's lists from a SiteData GetListCollection
// response. Each list maps child element names to their text.
func ListCollection(data []byte) ([]map[string]string, error) {
	resp, err := Response(data, "GetListCollection")
	if err != nil {
		return nil, err
	}
	holder := resp.Child("vLists")
	if holder == nil {
		if len(resp.Children) < 2 {
			return nil, fmt.Errorf("%w: GetListCollection response has no list collection", ErrProtocol)
		}
		holder = resp.Children[1]
	}
	out := []map[string]string{}
	for _, l := range holder.Children {
		out = append(out, l.ChildTexts())
	}
	return out, nil
}
