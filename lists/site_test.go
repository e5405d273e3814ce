package lists

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-splists/soap"
	"github.com/smnsjas/go-splists/sptest"
	"github.com/smnsjas/go-splists/users"
)

func TestSiteUsersCached(t *testing.T) {
	tr := newFake()
	site := NewSite(tr, siteURL)

	dir, err := site.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, dir.Names())
	w, ok := dir.Wire("Ada Lovelace")
	require.True(t, ok)
	assert.Equal(t, "7;#Ada Lovelace", w)

	_, err = site.List(context.Background(), "Tasks")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Count(soap.OpGetListItems))
}

func TestSiteListWithoutDirectory(t *testing.T) {
	tr := sptest.NewTransport()
	tr.HandleList(soap.OpGetList, "Tasks", sptest.ListResponse(listGUID, "Tasks", testFields()))
	tr.HandleList(soap.OpGetViewCollection, "Tasks", sptest.ViewCollectionResponse())

	// no UserInfo handler: the directory load fails and is skipped
	l, err := NewSite(tr, siteURL).List(context.Background(), "Tasks")
	require.NoError(t, err)

	tr.HandleList(soap.OpGetListItems, "Tasks", sptest.ItemsResponse("", map[string]string{"Owner": "7;#Ada Lovelace"}))
	rows, err := l.GetListItems(context.Background(), ItemsRequest{Fields: []string{"Owner"}})
	require.NoError(t, err)
	assert.Equal(t, "7;#Ada Lovelace", rows[0]["Owner"])
}

func TestSiteWithUsersSkipsLoad(t *testing.T) {
	tr := newFake()
	dir := users.NewDirectory([]users.User{{ID: "1", Name: "Root"}})
	site := NewSite(tr, siteURL, WithUsers(dir))

	got, err := site.Users(context.Background())
	require.NoError(t, err)
	assert.Same(t, dir, got)

	_, err = site.List(context.Background(), "Tasks", WithoutUserDirectory())
	require.NoError(t, err)
	assert.Zero(t, tr.Count(soap.OpGetListItems))
}

func TestAddList(t *testing.T) {
	tr := newFake()
	id := uuid.New()
	tr.Handle(soap.OpAddList, sptest.Envelope("AddList", sptest.ListXML("{"+id.String()+"}", "Projects", testFields()[:2])))
	site := NewSite(tr, siteURL)

	info, err := site.AddList(context.Background(), "Projects", "Project tracker", "Tasks")
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, "Projects", info.Title)

	b := body(tr.LastRequest(soap.OpAddList))
	assert.Contains(t, b, "<ns1:templateID>107</ns1:templateID>")
	assert.Contains(t, b, "<ns1:description>Project tracker</ns1:description>")

	_, err = site.AddList(context.Background(), "X", "", "1100")
	require.NoError(t, err)
	assert.Contains(t, body(tr.LastRequest(soap.OpAddList)), "<ns1:templateID>1100</ns1:templateID>")

	_, err = site.AddList(context.Background(), "X", "", "Spreadsheet")
	assert.Error(t, err)
}

func TestTemplateID(t *testing.T) {
	tests := map[string]int{
		"Custom List":                   100,
		"Custom List in Datasheet View": 120,
		"Document Library":              101,
		"Issues":                        1100,
		" 42 ":                          42,
	}
	for in, want := range tests {
		got, err := TemplateID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestDeleteList(t *testing.T) {
	tr := newFake()
	tr.Handle(soap.OpDeleteList, sptest.DeleteListResponse())
	require.NoError(t, NewSite(tr, siteURL).DeleteList(context.Background(), "Old"))
	assert.Contains(t, body(tr.LastRequest(soap.OpDeleteList)), "<ns1:listName>Old</ns1:listName>")
}

func TestGetListCollection(t *testing.T) {
	tr := newFake()
	tr.Handle(soap.OpGetListCollection, sptest.ListCollectionResponse(
		map[string]string{"Title": "Tasks", "BaseType": "GenericList"},
	))
	lists, err := NewSite(tr, siteURL+"/").GetListCollection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tasks", lists[0]["Title"])

	req := tr.LastRequest(soap.OpGetListCollection)
	assert.Equal(t, siteURL+"/_vti_bin/SiteData.asmx", req.URL)
	assert.Contains(t, body(req), "<ns1:GetListCollection/>")
}
