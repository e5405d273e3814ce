package lists

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-splists/caml"
	"github.com/smnsjas/go-splists/codec"
	"github.com/smnsjas/go-splists/response"
	"github.com/smnsjas/go-splists/schema"
	"github.com/smnsjas/go-splists/soap"
	"github.com/smnsjas/go-splists/sptest"
	"github.com/smnsjas/go-splists/transport"
)

const (
	siteURL   = "https://example.com/sites/team"
	listGUID  = "8a3f2c6e-1b2d-4e5f-9a0b-1c2d3e4f5a6b"
	allItems  = "0b5e4bd6-4aa6-4e6e-a3c1-76a1f2b1f0c4"
	openItems = "5d1f7a2b-9c3e-4f60-8b7a-2e4d6f8a0c1e"
)

func testFields() []schema.Field {
	return []schema.Field{
		{InternalName: "ID", DisplayName: "ID", TypeName: "Counter"},
		{InternalName: "Title", DisplayName: "Title", TypeName: "Text"},
		{InternalName: "Col1_x0020_Test", DisplayName: "Col1 Test", TypeName: "Number"},
		{InternalName: "Due", DisplayName: "Due Date", TypeName: "DateTime"},
		{InternalName: "Done", DisplayName: "Done", TypeName: "Boolean"},
		{InternalName: "Owner", DisplayName: "Owner", TypeName: "User"},
		{InternalName: "Status", DisplayName: "Status", TypeName: "Choice"},
		{InternalName: "_Shadow", DisplayName: "Status", TypeName: "Text", Hidden: true},
	}
}

func newFake() *sptest.Transport {
	tr := sptest.NewTransport()
	tr.HandleList(soap.OpGetList, "Tasks", sptest.ListResponse("{"+listGUID+"}", "Tasks", testFields()))
	tr.HandleList(soap.OpGetViewCollection, "Tasks", sptest.ViewCollectionResponse(
		sptest.View{ID: allItems, DisplayName: "All Items", Default: true},
		sptest.View{ID: openItems, DisplayName: "Open Items"},
	))
	tr.HandleList(soap.OpGetListItems, UserInfoList, sptest.ItemsResponse("",
		map[string]string{"ID": "7", "ImnName": "Ada Lovelace"},
		map[string]string{"ID": "9", "ImnName": "Alan Turing"},
	))
	return tr
}

func openTasks(t *testing.T, tr *sptest.Transport, opts ...Option) *List {
	t.Helper()
	l, err := NewSite(tr, siteURL).List(context.Background(), "Tasks", opts...)
	require.NoError(t, err)
	return l
}

func body(r *transport.Request) string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

func TestOpen(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)

	assert.Equal(t, StateReady, l.State())
	info, err := l.Info()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(listGUID), info.ID)

	views, err := l.Views()
	require.NoError(t, err)
	assert.Len(t, views, 2)

	rs, err := l.RegionalSettings()
	require.NoError(t, err)
	assert.Equal(t, "1033", rs["Locale"])
	ss, err := l.ServerSettings()
	require.NoError(t, err)
	assert.NotEmpty(t, ss["ServerVersion"])

	req := tr.LastRequest(soap.OpGetList)
	require.NotNil(t, req)
	assert.Equal(t, siteURL+"/_vti_bin/lists.asmx", req.URL)
	assert.Equal(t, "http://schemas.microsoft.com/sharepoint/soap/GetList", req.Header["SOAPAction"])
	assert.Equal(t, siteURL+"/_vti_bin/Views.asmx", tr.LastRequest(soap.OpGetViewCollection).URL)
}

func TestHiddenFieldsExcluded(t *testing.T) {
	l := openTasks(t, newFake())
	cat, err := l.Catalog()
	require.NoError(t, err)
	f, err := cat.ResolveByDisplay("Status")
	require.NoError(t, err)
	assert.Equal(t, "_Shadow", f.InternalName)

	l = openTasks(t, newFake(), WithHiddenFieldsExcluded())
	cat, err = l.Catalog()
	require.NoError(t, err)
	f, err = cat.ResolveByDisplay("Status")
	require.NoError(t, err)
	assert.Equal(t, "Status", f.InternalName)
}

func TestNotReady(t *testing.T) {
	l := New(newFake(), siteURL, "Tasks")
	assert.Equal(t, StateUninitialized, l.State())

	_, err := l.GetListItems(context.Background(), ItemsRequest{})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, l.Refresh(context.Background()), ErrNotReady)
}

func TestOpenFailure(t *testing.T) {
	l := New(sptest.NewTransport(), siteURL, "Missing")
	err := l.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrProtocol)
	assert.Equal(t, StateFailed, l.State())
}

func TestOpenWithoutTitleField(t *testing.T) {
	tr := newFake()
	tr.HandleList(soap.OpGetList, "Tasks", sptest.ListResponse(listGUID, "Tasks", testFields()[2:3]))
	_, err := NewSite(tr, siteURL).List(context.Background(), "Tasks")
	assert.ErrorIs(t, err, schema.ErrSchema)
}

func TestGetListItemsConvertsRows(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpGetListItems, "Tasks", sptest.ItemsResponse("", map[string]string{
		"ID":               "1",
		"Title":            "Write docs",
		"Col1_x0020_Test":  "3.5",
		"Due":              "2024-03-01 09:30:00",
		"Done":             "1",
		"Owner":            "7;#Ada Lovelace",
		"owshiddenversion": "4",
	}))

	rows, err := l.GetListItems(context.Background(), ItemsRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 3.5, row["Col1 Test"])
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), row["Due Date"])
	assert.Equal(t, codec.Yes, row["Done"])
	assert.Equal(t, "Ada Lovelace", row["Owner"])
	assert.Equal(t, "Write docs", row["Title"])
	assert.NotContains(t, row, "owshiddenversion")

	b := body(tr.LastRequest(soap.OpGetListItems))
	assert.Contains(t, b, "<ns1:rowLimit>0</ns1:rowLimit>")
	assert.NotContains(t, b, "viewFields")
	assert.NotContains(t, b, "<ns1:query>")
}

func TestGetListItemsWithFields(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpGetListItems, "Tasks", sptest.ItemsResponse("",
		map[string]string{"ID": "1", "Title": "a", "Col1_x0020_Test": "2", "Status": "Open"}))

	rows, err := l.GetListItems(context.Background(), ItemsRequest{Fields: []string{"Title", "Col1 Test"}, RowLimit: 10})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"Title": "a", "Col1 Test": 2.0}}, rows)

	b := body(tr.LastRequest(soap.OpGetListItems))
	assert.Contains(t, b, `<ns1:viewFields ViewFieldsOnly="true"><ViewFields><FieldRef Name="Title"/><FieldRef Name="Col1_x0020_Test"/></ViewFields></ns1:viewFields>`)
	assert.Contains(t, b, `<ns1:query><Query><OrderBy><FieldRef Name="ID"/></OrderBy></Query></ns1:query>`)
	assert.Contains(t, b, "<ns1:rowLimit>10</ns1:rowLimit>")
}

func TestGetListItemsWithQuery(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr, WithHiddenFieldsExcluded())
	tr.HandleList(soap.OpGetListItems, "Tasks", sptest.ItemsResponse(""))

	_, err := l.GetListItems(context.Background(), ItemsRequest{
		Fields: []string{"Title"},
		Query: &caml.Query{
			Where:   []caml.Token{caml.Or, caml.Cond(caml.Eq, "Status", "Open"), caml.Or, caml.Cond(caml.Eq, "Status", "New"), caml.Cond(caml.IsNull, "Due Date", nil)},
			OrderBy: []caml.Sort{caml.Desc("Col1 Test")},
		},
	})
	require.NoError(t, err)

	b := body(tr.LastRequest(soap.OpGetListItems))
	assert.Contains(t, b, `<OrderBy><FieldRef Name="Col1_x0020_Test" Ascending="FALSE"/></OrderBy>`)
	assert.Contains(t, b, `<Where><Or><Eq><FieldRef Name="Status"/><Value Type="Choice">Open</Value></Eq>`+
		`<Eq><FieldRef Name="Status"/><Value Type="Choice">New</Value></Eq>`+
		`<IsNull><FieldRef Name="Due"/></IsNull></Or></Where>`)
	assert.NotContains(t, b, `<OrderBy><FieldRef Name="ID"/>`)
}

func TestGetListItemsWithView(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpGetView, "Tasks", sptest.ViewResponse(sptest.View{ID: openItems, DisplayName: "Open Items", Fields: []string{"Title", "Status"}}))
	tr.HandleList(soap.OpGetListItems, "Tasks", sptest.ItemsResponse("",
		map[string]string{"ID": "3", "Title": "a", "Status": "Open", "Col1_x0020_Test": "1"}))

	rows, err := l.GetListItems(context.Background(), ItemsRequest{View: "Open Items"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"Title": "a", "Status": "Open"}}, rows)

	wantName := "<ns1:viewName>" + strings.ToUpper(openItems) + "</ns1:viewName>"
	assert.Contains(t, body(tr.LastRequest(soap.OpGetListItems)), wantName)
	assert.Contains(t, body(tr.LastRequest(soap.OpGetView)), wantName)
}

func TestGetListItemsFailsBeforeSending(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	before := len(tr.Requests())

	_, err := l.GetListItems(context.Background(), ItemsRequest{View: "Nope"})
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = l.GetListItems(context.Background(), ItemsRequest{Fields: []string{"Missing"}})
	assert.ErrorIs(t, err, schema.ErrSchema)

	_, err = l.GetListItems(context.Background(), ItemsRequest{Query: &caml.Query{
		Where: []caml.Token{caml.Cond(caml.Eq, "Done", "maybe")},
	}})
	assert.ErrorIs(t, err, codec.ErrInvalidBoolean)

	assert.Len(t, tr.Requests(), before)
}

func TestAllListItemsFollowsPages(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleFunc(soap.OpGetListItems, sptest.Sequence(
		sptest.ItemsResponse("Paged=TRUE&p_ID=1", map[string]string{"ID": "1", "Title": "a"}),
		sptest.ItemsResponse("", map[string]string{"ID": "2", "Title": "b"}),
	))

	rows, err := l.AllListItems(context.Background(), ItemsRequest{Fields: []string{"Title"}, RowLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"Title": "a"}, {"Title": "b"}}, rows)

	assert.Contains(t, body(tr.LastRequest(soap.OpGetListItems)),
		`<ns1:queryOptions><QueryOptions><Paging ListItemCollectionPositionNext="Paged=TRUE&amp;p_ID=1"/></QueryOptions></ns1:queryOptions>`)
}

func TestDiagnostic(t *testing.T) {
	tr := newFake()
	var got []codec.Diagnostic
	l := openTasks(t, tr, WithDiagnostic(func(d codec.Diagnostic) { got = append(got, d) }))
	tr.HandleList(soap.OpGetListItems, "Tasks", sptest.ItemsResponse("", map[string]string{"Col1_x0020_Test": "n/a"}))

	rows, err := l.GetListItems(context.Background(), ItemsRequest{Fields: []string{"Col1 Test"}})
	require.NoError(t, err)
	assert.Equal(t, "n/a", rows[0]["Col1 Test"])
	require.Len(t, got, 1)
	assert.Equal(t, "Col1_x0020_Test", got[0].Field)
}

func TestGetViewDefault(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpGetView, "Tasks", sptest.ViewResponse(sptest.View{ID: allItems, DisplayName: "All Items", Default: true, Fields: []string{"Title"}}))

	v, err := l.GetView(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Title"}, v.Fields)
	assert.Contains(t, body(tr.LastRequest(soap.OpGetView)), "<ns1:viewName>"+strings.ToUpper(allItems)+"</ns1:viewName>")
}

func TestGetViewUserInfoUsesRawName(t *testing.T) {
	tr := newFake()
	tr.HandleList(soap.OpGetList, UserInfoList, sptest.ListResponse(uuid.NewString(), "User Information List", testFields()[:2]))
	tr.HandleList(soap.OpGetViewCollection, UserInfoList, sptest.ViewCollectionResponse(sptest.View{ID: allItems, DisplayName: "All People", Default: true}))
	tr.HandleList(soap.OpGetView, UserInfoList, sptest.ViewResponse(sptest.View{ID: allItems, DisplayName: "All People"}))

	l, err := NewSite(tr, siteURL).List(context.Background(), UserInfoList)
	require.NoError(t, err)
	_, err = l.GetView(context.Background(), "All People")
	require.NoError(t, err)
	assert.Contains(t, body(tr.LastRequest(soap.OpGetView)), "<ns1:viewName>All People</ns1:viewName>")
}

func TestUpdateListItems(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpUpdateListItems, "Tasks", sptest.UpdateResponse(
		sptest.Result{ID: "1,New", Code: response.SuccessCode, Row: map[string]string{"ID": "12"}},
		sptest.Result{ID: "2,Delete", Code: "0x81020016", Text: "Item does not exist"},
	))

	results, err := l.UpdateListItems(context.Background(), []caml.Action{
		caml.Create{Fields: map[string]any{"Title": "x", "Owner": "Alan Turing", "Done": codec.No}},
		caml.Delete{ID: 99},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success())
	assert.Equal(t, "12", results[0].Row["ID"])
	assert.Equal(t, "Item does not exist", results[1].Text)

	b := body(tr.LastRequest(soap.OpUpdateListItems))
	assert.Contains(t, b, `<Method ID="1" Cmd="New"><Field Name="Done">0</Field><Field Name="Owner">9;#Alan Turing</Field><Field Name="Title">x</Field></Method>`)
	assert.Contains(t, b, `<Method ID="2" Cmd="Delete"><Field Name="ID">99</Field></Method>`)
}

func TestUpdateListItemsKeepsWallClock(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpUpdateListItems, "Tasks", sptest.UpdateResponse(
		sptest.Result{ID: "1,Update", Code: response.SuccessCode},
	))

	due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.FixedZone("", 2*3600))
	_, err := l.UpdateListItems(context.Background(), []caml.Action{
		caml.Update{ID: 3, Fields: map[string]any{"Due Date": due}},
	})
	require.NoError(t, err)
	assert.Contains(t, body(tr.LastRequest(soap.OpUpdateListItems)), `<Field Name="Due">2024-06-01 09:00:00</Field>`)
}

func TestUpdateListItemsUnknownUser(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	_, err := l.UpdateListItems(context.Background(), []caml.Action{
		caml.Update{ID: 1, Fields: map[string]any{"Owner": "Grace Hopper"}},
	})
	assert.ErrorIs(t, err, codec.ErrUnknownUser)
	assert.Zero(t, tr.Count(soap.OpUpdateListItems))
}

func TestFaultAndStatusErrors(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)

	tr.HandleStatus(soap.OpGetAttachmentCollection, http.StatusInternalServerError,
		sptest.Fault("soap:Server", "Exception of type 'SoapServerException' was thrown.", "Item does not exist."))
	_, err := l.GetAttachmentCollection(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrProtocol)
	var fe *response.FaultError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Item does not exist.", fe.Detail)

	tr.HandleStatus(soap.OpGetAttachmentCollection, http.StatusForbidden, []byte("denied"))
	_, err = l.GetAttachmentCollection(context.Background(), 5)
	assert.ErrorIs(t, err, response.ErrProtocol)
	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestTransportErrorsPassThrough(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	boom := errors.New("connection reset")
	tr.HandleFunc(soap.OpGetAttachmentCollection, func(*transport.Request) (*transport.Response, error) {
		return nil, boom
	})
	_, err := l.GetAttachmentCollection(context.Background(), 1)
	assert.Same(t, boom, err)
}

func TestAttachmentsAndVersions(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleList(soap.OpGetAttachmentCollection, "Tasks", sptest.AttachmentsResponse("https://x/a.txt"))
	tr.HandleFunc(soap.OpGetVersionCollection, sptest.Reply(http.StatusOK, sptest.VersionsResponse("Col1_x0020_Test",
		sptest.Version{Value: "2", Modified: "2024-01-02T10:00:00Z", Editor: "7;#Ada Lovelace"})))

	urls, err := l.GetAttachmentCollection(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a.txt"}, urls)
	assert.Contains(t, body(tr.LastRequest(soap.OpGetAttachmentCollection)), "<ns1:listItemID>3</ns1:listItemID>")

	versions, err := l.GetVersionCollection(context.Background(), 3, "Col1 Test")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "2", versions[0].Value)

	b := body(tr.LastRequest(soap.OpGetVersionCollection))
	assert.Contains(t, b, "<ns1:strlistID>{"+strings.ToUpper(listGUID)+"}</ns1:strlistID>")
	assert.Contains(t, b, "<ns1:strFieldName>Col1_x0020_Test</ns1:strFieldName>")
}

func TestRefreshKeepsReadyOnFailure(t *testing.T) {
	tr := newFake()
	l := openTasks(t, tr)
	tr.HandleStatus(soap.OpGetList, http.StatusServiceUnavailable, []byte("busy"))

	require.Error(t, l.Refresh(context.Background()))
	assert.Equal(t, StateReady, l.State())
	_, err := l.Fields()
	assert.NoError(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Ready", StateReady.String())
	assert.Equal(t, "Unknown(42)", State(42).String())
}
