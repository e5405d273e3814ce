// Package response extracts typed payloads from Lists web service responses.
//
// Responses are parsed into a small element tree and then navigated by
// operation:
//
//	Envelope/Body/<Op>Response/<Op>Result/<payload>
//
// Some server versions omit the <Op>Result wrapper; both shapes are accepted.
// A Body holding a SOAP Fault yields a *FaultError.
//
// # Errors
//
// Malformed XML is reported as ErrParse. Well-formed XML whose shape does not
// match the operation (missing Body, missing response element, missing
// payload) is reported as ErrProtocol.
//
// # Attribute Names
//
// Item rows carry column values as attributes named "ows_<InternalName>".
// The prefix is removed by every extractor that returns rows.
package response
