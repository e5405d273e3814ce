package response

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-splists/schema"
	"github.com/smnsjas/go-splists/sptest"
)

const listID = "{8A3F2C6E-1B2D-4E5F-9A0B-1C2D3E4F5A6B}"

func testFields() []schema.Field {
	return []schema.Field{
		{InternalName: "Title", DisplayName: "Title", TypeName: "Text"},
		{InternalName: "Col1_x0020_Test", DisplayName: "Col1 Test", TypeName: "Number"},
		{InternalName: "_Secret", DisplayName: "Secret", TypeName: "Text", Hidden: true},
	}
}

func TestList(t *testing.T) {
	ls, err := List(sptest.ListResponse(listID, "Tasks", testFields()), "GetList")
	require.NoError(t, err)

	assert.Equal(t, uuid.MustParse(listID), ls.Info.ID)
	assert.Equal(t, "Tasks", ls.Info.Title)
	assert.Equal(t, "3", ls.Info.Attrs["Version"])

	require.Len(t, ls.Fields, 3)
	assert.Equal(t, "Col1_x0020_Test", ls.Fields[1].InternalName)
	assert.Equal(t, schema.TypeNumber, ls.Fields[1].Type)
	assert.True(t, ls.Fields[2].Hidden)

	assert.Equal(t, "1033", ls.RegionalSettings["Language"])
	assert.Equal(t, "16.0.0.0", ls.ServerSettings["ServerVersion"])
}

func TestListWithValidationBeforeFields(t *testing.T) {
	body := sptest.Envelope("GetList",
		`<List ID="`+listID+`" Title="Tasks"><Validation Message="">x</Validation>`+
			`<Fields><Field Name="Title" DisplayName="Title" Type="Text"/></Fields></List>`)
	ls, err := List(body, "GetList")
	require.NoError(t, err)
	require.Len(t, ls.Fields, 1)
	assert.Empty(t, ls.RegionalSettings)
}

func TestListSectionsByPartialName(t *testing.T) {
	body := sptest.Envelope("GetList",
		`<List ID="`+listID+`" Title="Tasks">`+
			`<ListFields><Field Name="Title" DisplayName="Title" Type="Text"/></ListFields>`+
			`<RegionalSettingsInfo><Language>1036</Language></RegionalSettingsInfo></List>`)
	ls, err := List(body, "GetList")
	require.NoError(t, err)
	require.Len(t, ls.Fields, 1)
	assert.Equal(t, "Title", ls.Fields[0].InternalName)
	assert.Equal(t, "1036", ls.RegionalSettings["Language"])
	assert.Empty(t, ls.ServerSettings)
}

func TestListPrefersExactSection(t *testing.T) {
	body := sptest.Envelope("GetList",
		`<List ID="`+listID+`" Title="Tasks">`+
			`<ViewFields><Field Name="Ignored" DisplayName="Ignored" Type="Text"/></ViewFields>`+
			`<Fields><Field Name="Title" DisplayName="Title" Type="Text"/></Fields></List>`)
	ls, err := List(body, "GetList")
	require.NoError(t, err)
	require.Len(t, ls.Fields, 1)
	assert.Equal(t, "Title", ls.Fields[0].InternalName)
}

func TestListWithoutFields(t *testing.T) {
	_, err := List(sptest.Envelope("GetList", `<List Title="x"/>`), "GetList")
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestListItems(t *testing.T) {
	body := sptest.ItemsResponse("Paged=TRUE&p_ID=2",
		map[string]string{"ID": "1", "Title": "first", "Col1_x0020_Test": "3.5"},
		map[string]string{"ID": "2", "Title": "second & last"},
	)
	items, err := ListItems(body)
	require.NoError(t, err)

	require.Len(t, items.Rows, 2)
	assert.Equal(t, map[string]string{"ID": "1", "Title": "first", "Col1_x0020_Test": "3.5"}, items.Rows[0])
	assert.Equal(t, "second & last", items.Rows[1]["Title"])
	assert.Equal(t, "Paged=TRUE&p_ID=2", items.NextPage)
}

func TestListItemsEmpty(t *testing.T) {
	items, err := ListItems(sptest.ItemsResponse(""))
	require.NoError(t, err)
	assert.Empty(t, items.Rows)
	assert.Empty(t, items.NextPage)
}

func TestListItemsWithoutResultWrapper(t *testing.T) {
	body := []byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<GetListItemsResponse><listitems><rs:data xmlns:rs="urn:schemas-microsoft-com:rowset">` +
		`<z:row xmlns:z="#RowsetSchema" ows_ID="5"/></rs:data></listitems></GetListItemsResponse>` +
		`</soap:Body></soap:Envelope>`)
	items, err := ListItems(body)
	require.NoError(t, err)
	assert.Equal(t, "5", items.Rows[0]["ID"])
}

func TestViews(t *testing.T) {
	id := "0b5e4bd6-4aa6-4e6e-a3c1-76a1f2b1f0c4"
	views, err := ViewCollection(sptest.ViewCollectionResponse(
		sptest.View{ID: id, DisplayName: "All Items", Default: true},
		sptest.View{ID: uuid.NewString(), DisplayName: "Mine"},
	))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Default)
	assert.False(t, views[1].Default)
	assert.Equal(t, uuid.MustParse(id), views[0].ID)
	assert.Equal(t, "0B5E4BD6-4AA6-4E6E-A3C1-76A1F2B1F0C4", views[0].ViewName())

	v, err := GetView(sptest.ViewResponse(sptest.View{ID: id, DisplayName: "All Items", Fields: []string{"Title", "ID"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "ID"}, v.Fields)
	assert.Equal(t, "All Items", v.DisplayName)
}

func TestBatchResults(t *testing.T) {
	results, err := BatchResults(sptest.UpdateResponse(
		sptest.Result{ID: "1,New", Code: SuccessCode, Row: map[string]string{"ID": "12", "Title": "x"}},
		sptest.Result{ID: "2,Update", Code: "0x81020016", Text: "Item does not exist"},
	))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success())
	assert.Equal(t, "1,New", results[0].MethodID)
	assert.Equal(t, "12", results[0].Row["ID"])

	assert.False(t, results[1].Success())
	assert.Equal(t, "0x81020016", results[1].Code)
	assert.Equal(t, "Item does not exist", results[1].Text)
}

func TestAttachments(t *testing.T) {
	urls, err := Attachments(sptest.AttachmentsResponse("https://x/a.txt", "https://x/b.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a.txt", "https://x/b.txt"}, urls)
}

func TestVersionsRewriteFieldName(t *testing.T) {
	body := sptest.VersionsResponse("Status Note",
		sptest.Version{Value: "new", Modified: "2024-01-02T10:00:00Z", Editor: "1;#Ada"},
		sptest.Version{Value: "old", Modified: "2024-01-01T10:00:00Z", Editor: "2;#Alan"},
	)

	_, err := Parse(body)
	require.ErrorIs(t, err, ErrParse, "raw field-named attribute is not well-formed")

	versions, err := Versions(body, "Status Note")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "new", versions[0].Value)
	assert.Equal(t, "2024-01-02T10:00:00Z", versions[0].Modified)
	assert.Equal(t, "2;#Alan", versions[1].Editor)
}

func TestListCollection(t *testing.T) {
	lists, err := ListCollection(sptest.ListCollectionResponse(
		map[string]string{"Title": "Tasks", "InternalName": "{1}", "BaseType": "GenericList"},
		map[string]string{"Title": "Documents", "InternalName": "{2}", "BaseType": "DocumentLibrary"},
	))
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Documents", lists[1]["Title"])
	assert.Equal(t, "GenericList", lists[0]["BaseType"])
}

func TestFault(t *testing.T) {
	_, err := ListItems(sptest.Fault("soap:Server", "Exception of type 'SoapServerException' was thrown.", "List does not exist."))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)

	var fe *FaultError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "soap:Server", fe.Code)
	assert.Equal(t, "List does not exist.", fe.Detail)
	assert.Equal(t, "0x82000006", fe.ErrorCode)
	assert.Contains(t, fe.Error(), "List does not exist.")
}

func TestShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"malformed", `<soap:Envelope><soap:Body>`, ErrParse},
		{"empty", ``, ErrParse},
		{"not an envelope", `<html><body/></html>`, ErrProtocol},
		{"no body", `<Envelope/>`, ErrProtocol},
		{"wrong operation", string(sptest.Envelope("GetList", "<List/>")), ErrProtocol},
		{"empty result", string(sptest.Envelope("GetListItems", "")), ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ListItems([]byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseNonUTF8(t *testing.T) {
	body := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><a><b>caf`), 0xe9, '<', '/', 'b', '>', '<', '/', 'a', '>')
	root, err := Parse(body)
	require.NoError(t, err)
	assert.Equal(t, "café", root.Child("b").Text)
}

func TestParseDepthLimit(t *testing.T) {
	var open, closing []byte
	for i := 0; i <= DefaultMaxDepth; i++ {
		open = append(open, "<a>"...)
		closing = append(closing, "</a>"...)
	}
	_, err := Parse(append(open, closing...))
	assert.ErrorIs(t, err, ErrParse)
}
