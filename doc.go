// Package splists provides a pure Go client for the SharePoint Lists SOAP web service.
//
// The hard part of talking to the Lists service is not networking but protocol
// fidelity: a rigid, namespace-qualified XML envelope, two parallel naming systems
// for columns (encoded internal names vs. display names), type-directed value
// conversion, and CAML, the XML query language embedded in requests.
//
// # Architecture
//
// The library is organized into layers, leaf first:
//
//   - schema: field metadata and the internal/display name catalog
//   - users: the bidirectional user directory ("<id>;#<name>" wire form)
//   - codec: type-directed conversion between wire strings and Go values
//   - caml: CAML query (Where/OrderBy/GroupBy) and Batch element builders
//   - soap: request envelopes for each Lists operation
//   - response: envelope navigation and payload extraction
//   - lists: List and Site clients that tie the layers together
//   - transport: the Transport interface and an HTTP implementation
//   - listdict: row set comparison for syncing external data into a list
//   - sptest: an in-memory transport and canned responses for tests
//
// # Basic Usage
//
//	tr := transport.NewHTTP(transport.DefaultConfig())
//	site := lists.NewSite(tr, "https://example.com/sites/team")
//
//	list, err := site.List(ctx, "Tasks")
//	if err != nil {
//	    return err
//	}
//
//	q := &caml.Query{Where: []caml.Token{
//	    caml.And,
//	    caml.Cond(caml.Eq, "Status", "Open"),
//	    caml.Cond(caml.Gt, "Priority", 2.0),
//	}}
//	items, err := list.GetListItems(ctx, lists.ItemsRequest{Query: q})
//
// # Transport Agnostic
//
// Request building and response parsing never touch the network. The lists
// package sends through any transport.Transport, so retries, TLS and
// authentication stay with the caller's transport.
//
// # Reference
//
// Lists web service: https://learn.microsoft.com/en-us/previous-versions/office/developer/sharepoint-services/ms774654(v=office.12)
package splists

// Version is the library version.
const Version = "0.1.0-dev"
