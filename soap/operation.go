// Package soap builds SOAP 1.1 request envelopes for the SharePoint list
// web services.
//
// Every request has the same shape: a namespaced Envelope holding a Body
// holding one element named after the operation, whose children are the
// operation parameters.
//
//	<?xml version="1.0" encoding="utf-8"?>
//	<SOAP-ENV:Envelope xmlns:SOAP-ENV="..." xmlns:ns0="..." xmlns:ns1="..." xmlns:xsi="...">
//	  <SOAP-ENV:Body>
//	    <ns1:GetListItems>
//	      <ns1:listName>Tasks</ns1:listName>
//	      <ns1:rowLimit>0</ns1:rowLimit>
//	    </ns1:GetListItems>
//	  </SOAP-ENV:Body>
//	</SOAP-ENV:Envelope>
//
// Parameter values and CAML fragments are escaped on output, so callers pass
// raw text.
//
// # Reference
//
// SOAP 1.1: https://www.w3.org/TR/2000/NOTE-SOAP-20000508/
package soap

import (
	"fmt"

	splists "github.com/smnsjas/go-splists"
)

// Namespaces used by request envelopes.
const (
	EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	ServiceNamespace  = "http://schemas.microsoft.com/sharepoint/soap/"
	XSINamespace      = "http://www.w3.org/2001/XMLSchema-instance"
)

// ContentType is the request Content-Type for every operation.
const ContentType = "text/xml; charset=UTF-8"

// Operation identifies a web service method.
type Operation int

const (
	// OpGetList returns the list schema and settings.
	OpGetList Operation = iota + 1
	// OpGetListItems returns list rows.
	OpGetListItems
	// OpGetView returns one view definition.
	OpGetView
	// OpGetViewCollection returns every view of a list.
	OpGetViewCollection
	// OpUpdateListItems applies a batch of create/update/delete methods.
	OpUpdateListItems
	// OpGetAttachmentCollection returns the attachment URLs of an item.
	OpGetAttachmentCollection
	// OpGetVersionCollection returns the version history of one item field.
	OpGetVersionCollection
	// OpAddList creates a list.
	OpAddList
	// OpDeleteList deletes a list.
	OpDeleteList
	// OpGetListCollection enumerates the lists of a site (SiteData service).
	OpGetListCollection
)

// Operations lists every supported operation.
var Operations = []Operation{
	OpGetList,
	OpGetListItems,
	OpGetView,
	OpGetViewCollection,
	OpUpdateListItems,
	OpGetAttachmentCollection,
	OpGetVersionCollection,
	OpAddList,
	OpDeleteList,
	OpGetListCollection,
}

// String returns the method name as used on the wire.
func (o Operation) String() string {
	switch o {
	case OpGetList:
		return "GetList"
	case OpGetListItems:
		return "GetListItems"
	case OpGetView:
		return "GetView"
	case OpGetViewCollection:
		return "GetViewCollection"
	case OpUpdateListItems:
		return "UpdateListItems"
	case OpGetAttachmentCollection:
		return "GetAttachmentCollection"
	case OpGetVersionCollection:
		return "GetVersionCollection"
	case OpAddList:
		return "AddList"
	case OpDeleteList:
		return "DeleteList"
	case OpGetListCollection:
		return "GetListCollection"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// SOAPAction returns the SOAPAction header value.
func (o Operation) SOAPAction() string {
	return ServiceNamespace + o.String()
}

// Service returns the endpoint the operation is posted to.
func (o Operation) Service() splists.Service {
	switch o {
	case OpGetView, OpGetViewCollection:
		return splists.ServiceViews
	case OpGetListCollection:
		return splists.ServiceSiteData
	default:
		return splists.ServiceLists
	}
}

// Headers returns the HTTP headers for a request of operation o.
func Headers(o Operation) map[string]string {
	return map[string]string{
		"Content-Type": ContentType,
		"SOAPAction":   o.SOAPAction(),
	}
}
