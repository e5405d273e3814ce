// Package lists implements clients for SharePoint sites and lists.
//
// A List caches its schema (the field catalog) and its views. Both are
// loaded by Open and replaced atomically by Refresh; every other operation
// reads them without further requests.
//
// # State Machine
//
//	Uninitialized → Opening → Ready
//	                   ↓
//	                 Failed
//
// Operations other than Open require the Ready state. A Failed list can be
// opened again.
//
// # Usage
//
//	site := lists.NewSite(tr, "https://example.com/sites/team")
//
//	list, err := site.List(ctx, "Tasks")
//	if err != nil {
//	    return err
//	}
//
//	rows, err := list.GetListItems(ctx, lists.ItemsRequest{
//	    Fields: []string{"Title", "Status"},
//	    Query: &caml.Query{
//	        Where: []caml.Token{caml.Cond(caml.Eq, "Status", "Open")},
//	    },
//	})
//
// # Concurrency
//
// Read operations may run concurrently on one List. Batches issued
// concurrently against the same list are not coordinated; conflict handling
// is left to the server.
//
// # Reference
//
// Lists web service: https://learn.microsoft.com/en-us/previous-versions/office/developer/sharepoint-services/ms774654(v=office.12)
package lists
