// Package schema holds the field metadata of one SharePoint list.
//
// Every list column has two names: the internal name used on the wire, where
// special characters are encoded (a space becomes "_x0020_"), and the display
// name users see. A Catalog resolves either name to the Field describing the
// column and its type.
//
// # Title Alias
//
// The Title column keeps the internal name "Title" in every locale, but its
// display name is localized ("Titel", "Titre", ...). The catalog always maps
// both the localized display name and the literal name "Title" to that field,
// overriding any other column that happens to share the display name.
package schema
