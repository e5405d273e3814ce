package sptest

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"github.com/smnsjas/go-splists/schema"
)

// Envelope wraps result in Envelope/Body/<op>Response/<op>Result.
func Envelope(op, result string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"`)
	b.WriteString(` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">`)
	b.WriteString(`<soap:Body><` + op + `Response xmlns="http://schemas.microsoft.com/sharepoint/soap/">`)
	b.WriteString(`<` + op + `Result>` + result + `</` + op + `Result>`)
	b.WriteString(`</` + op + `Response></soap:Body></soap:Envelope>`)
	return []byte(b.String())
}

// Fault returns a SOAP fault envelope.
func Fault(code, message, detail string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><soap:Fault>`)
	b.WriteString(`<faultcode>` + escape(code) + `</faultcode>`)
	b.WriteString(`<faultstring>` + escape(message) + `</faultstring>`)
	if detail != "" {
		b.WriteString(`<detail><errorstring xmlns="http://schemas.microsoft.com/sharepoint/soap/">` + escape(detail) + `</errorstring>`)
		b.WriteString(`<errorcode xmlns="http://schemas.microsoft.com/sharepoint/soap/">0x82000006</errorcode></detail>`)
	}
	b.WriteString(`</soap:Fault></soap:Body></soap:Envelope>`)
	return []byte(b.String())
}

// ListResponse returns a GetList response for a list with the given fields.
func ListResponse(id, title string, fields []schema.Field) []byte {
	return Envelope("GetList", ListXML(id, title, fields))
}

// ListXML returns a List element.
func ListXML(id, title string, fields []schema.Field) string {
	var b strings.Builder
	b.WriteString(`<List DocTemplateUrl="" ID="` + escape(id) + `" Title="` + escape(title) + `" Version="3" ItemCount="2">`)
	b.WriteString(`<Fields>`)
	for _, f := range fields {
		typeName := f.TypeName
		if typeName == "" {
			typeName = f.Type.String()
		}
		b.WriteString(`<Field Type="` + escape(typeName) + `" DisplayName="` + escape(f.DisplayName) + `" Name="` + escape(f.InternalName) + `"`)
		if f.Hidden {
			b.WriteString(` Hidden="TRUE"`)
		}
		b.WriteString(`/>`)
	}
	b.WriteString(`</Fields>`)
	b.WriteString(`<RegionalSettings><Language>1033</Language><Locale>1033</Locale><TimeZone>300</TimeZone></RegionalSettings>`)
	b.WriteString(`<ServerSettings><ServerVersion>16.0.0.0</ServerVersion><RecycleBinEnabled>True</RecycleBinEnabled></ServerSettings>`)
	b.WriteString(`</List>`)
	return b.String()
}

// ItemsResponse returns a GetListItems response. Row keys are internal
// names; the ows_ prefix is added.
func ItemsResponse(nextPage string, rows ...map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<listitems xmlns:s="uuid:BDC6E3F0-6DA3-11d1-A2A3-00AA00C14882" xmlns:dt="uuid:C2F41010-65B3-11d1-A29F-00AA00C14882"`)
	b.WriteString(` xmlns:rs="urn:schemas-microsoft-com:rowset" xmlns:z="#RowsetSchema">`)
	b.WriteString(`<rs:data ItemCount="` + strconv.Itoa(len(rows)) + `"`)
	if nextPage != "" {
		b.WriteString(` ListItemCollectionPositionNext="` + escape(nextPage) + `"`)
	}
	b.WriteString(`>`)
	for _, r := range rows {
		b.WriteString(rowXML(r))
	}
	b.WriteString(`</rs:data></listitems>`)
	return Envelope("GetListItems", b.String())
}

// View describes a view fixture.
type View struct {
	ID          string
	DisplayName string
	Default     bool
	Fields      []string
}

func (v View) xml() string {
	var b strings.Builder
	b.WriteString(`<View Name="{` + escape(strings.ToUpper(v.ID)) + `}" DisplayName="` + escape(v.DisplayName) + `"`)
	if v.Default {
		b.WriteString(` DefaultView="TRUE"`)
	}
	b.WriteString(` Type="HTML">`)
	if v.Fields != nil {
		b.WriteString(`<Query/><ViewFields>`)
		for _, f := range v.Fields {
			b.WriteString(`<FieldRef Name="` + escape(f) + `"/>`)
		}
		b.WriteString(`</ViewFields>`)
	}
	b.WriteString(`</View>`)
	return b.String()
}

// ViewCollectionResponse returns a GetViewCollection response.
func ViewCollectionResponse(views ...View) []byte {
	var b strings.Builder
	b.WriteString(`<Views>`)
	for _, v := range views {
		b.WriteString(v.xml())
	}
	b.WriteString(`</Views>`)
	return Envelope("GetViewCollection", b.String())
}

// ViewResponse returns a GetView response.
func ViewResponse(v View) []byte {
	if v.Fields == nil {
		v.Fields = []string{}
	}
	return Envelope("GetView", v.xml())
}

// Result describes one batch method outcome.
type Result struct {
	ID   string
	Code string
	Text string
	Row  map[string]string
}

// UpdateResponse returns an UpdateListItems response.
func UpdateResponse(results ...Result) []byte {
	var b strings.Builder
	b.WriteString(`<Results xmlns:z="#RowsetSchema">`)
	for _, r := range results {
		b.WriteString(`<Result ID="` + escape(r.ID) + `"><ErrorCode>` + escape(r.Code) + `</ErrorCode>`)
		if r.Text != "" {
			b.WriteString(`<ErrorText>` + escape(r.Text) + `</ErrorText>`)
		}
		if r.Row != nil {
			b.WriteString(rowXML(r.Row))
		}
		b.WriteString(`</Result>`)
	}
	b.WriteString(`</Results>`)
	return Envelope("UpdateListItems", b.String())
}

// AttachmentsResponse returns a GetAttachmentCollection response.
func AttachmentsResponse(urls ...string) []byte {
	var b strings.Builder
	b.WriteString(`<Attachments>`)
	for _, u := range urls {
		b.WriteString(`<Attachment>` + escape(u) + `</Attachment>`)
	}
	b.WriteString(`</Attachments>`)
	return Envelope("GetAttachmentCollection", b.String())
}

// Version describes one version fixture.
type Version struct {
	Value    string
	Modified string
	Editor   string
}

// VersionsResponse returns a GetVersionCollection response. Like the server,
// it names the value attribute after the raw field name.
func VersionsResponse(field string, versions ...Version) []byte {
	var b strings.Builder
	b.WriteString(`<Versions>`)
	for _, v := range versions {
		b.WriteString(`<Version ` + field + `="` + escape(v.Value) + `" Modified="` + escape(v.Modified) + `" Editor="` + escape(v.Editor) + `"/>`)
	}
	b.WriteString(`</Versions>`)
	return Envelope("GetVersionCollection", b.String())
}

// ListCollectionResponse returns a SiteData GetListCollection response.
// Each list maps child element names to text.
func ListCollectionResponse(lists ...map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>`)
	b.WriteString(`<GetListCollectionResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/">`)
	b.WriteString(`<GetListCollectionResult>0</GetListCollectionResult><vLists>`)
	for _, l := range lists {
		b.WriteString(`<_sList>`)
		for _, k := range sortedKeys(l) {
			b.WriteString(`<` + k + `>` + escape(l[k]) + `</` + k + `>`)
		}
		b.WriteString(`</_sList>`)
	}
	b.WriteString(`</vLists></GetListCollectionResponse></soap:Body></soap:Envelope>`)
	return []byte(b.String())
}

// DeleteListResponse returns an empty DeleteList response.
func DeleteListResponse() []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<DeleteListResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/"/>` +
		`</soap:Body></soap:Envelope>`)
}

func rowXML(row map[string]string) string {
	var b strings.Builder
	b.WriteString(`<z:row`)
	for _, k := range sortedKeys(row) {
		b.WriteString(` ows_` + k + `="` + escape(row[k]) + `"`)
	}
	b.WriteString(`/>`)
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
