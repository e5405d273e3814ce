// Package caml builds the CAML fragments embedded in Lists requests.
//
// CAML (Collaborative Application Markup Language) expresses list queries
// and batch updates as XML:
//
//	<Query>
//	  <OrderBy><FieldRef Name="ID"/></OrderBy>
//	  <Where>
//	    <And>
//	      <Eq><FieldRef Name="Status"/><Value Type="Choice">Open</Value></Eq>
//	      <Gt><FieldRef Name="Priority"/><Value Type="Number">2</Value></Gt>
//	    </And>
//	  </Where>
//	</Query>
//
//	<Batch OnError="Return" ListVersion="1">
//	  <Method ID="1" Cmd="New"><Field Name="Title">Hello</Field></Method>
//	</Batch>
//
// # Token Form
//
// A Where clause can be described as a flat token sequence mixing the And and
// Or markers with comparisons. Each marker opens a group under the innermost
// open group; comparisons are appended to the innermost open group. An Or
// marker directly inside an open Or closes it and opens a sibling Or, so
// [And, Or, a, b, Or, c, d] yields And(Or(a, b), Or(c, d)). At the top level
// there is no parent to hold a sibling, so [Or, a, Or, b, c] widens into a
// single Or with three children. And never merges.
//
// # Tree Form
//
// The same clause can be given as a tree of AllOf / AnyOf groups and
// comparisons, compiled with Builder.Compile. Groups must have at least two
// children.
//
// Field names in queries and batches are display names; the Builder resolves
// them through the list catalog and encodes values with the list codec.
package caml
