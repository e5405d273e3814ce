package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FieldType is the conversion class of a column.
type FieldType int

const (
	// TypeOther covers every type converted as a plain string (Choice, Note, Lookup, ...).
	TypeOther FieldType = iota
	// TypeText is a single line of text.
	TypeText
	// TypeNumber is a floating point number.
	TypeNumber
	// TypeCurrency is a number rendered as money.
	TypeCurrency
	// TypeDateTime is a date with time, no zone on the wire.
	TypeDateTime
	// TypeBoolean is a Yes/No column ("1"/"0" on the wire).
	TypeBoolean
	// TypeUser is a single person column ("<id>;#<name>").
	TypeUser
	// TypeUserMulti is a multi-person column (pairs joined by ";#").
	TypeUserMulti
)

// String returns the SharePoint type name of the field type.
func (t FieldType) String() string {
	switch t {
	case TypeText:
		return "Text"
	case TypeNumber:
		return "Number"
	case TypeCurrency:
		return "Currency"
	case TypeDateTime:
		return "DateTime"
	case TypeBoolean:
		return "Boolean"
	case TypeUser:
		return "User"
	case TypeUserMulti:
		return "UserMulti"
	default:
		return "Other"
	}
}

// ParseFieldType maps a schema Type attribute to its conversion class.
// Unrecognized names map to TypeOther.
func ParseFieldType(name string) FieldType {
	switch name {
	case "Text":
		return TypeText
	case "Number":
		return TypeNumber
	case "Currency":
		return TypeCurrency
	case "DateTime":
		return TypeDateTime
	case "Boolean":
		return TypeBoolean
	case "User":
		return TypeUser
	case "UserMulti":
		return TypeUserMulti
	default:
		return TypeOther
	}
}

// Field describes one list column.
type Field struct {
	InternalName string
	DisplayName  string
	Type         FieldType
	// TypeName is the raw Type attribute, e.g. "Choice" for a TypeOther field.
	TypeName string
	Hidden   bool
	// Attrs holds every attribute of the schema Field element.
	Attrs map[string]string
}

// FieldFromAttrs builds a Field from the attributes of a schema Field element.
func FieldFromAttrs(attrs map[string]string) Field {
	typeName := attrs["Type"]
	return Field{
		InternalName: attrs["Name"],
		DisplayName:  attrs["DisplayName"],
		Type:         ParseFieldType(typeName),
		TypeName:     typeName,
		Hidden:       strings.EqualFold(attrs["Hidden"], "TRUE"),
		Attrs:        attrs,
	}
}

// ValueType returns the name used in the Type attribute of a CAML Value element.
func (f Field) ValueType() string {
	if f.TypeName != "" {
		return f.TypeName
	}
	return f.Type.String()
}

// ListInfo holds the attributes of the List element returned by GetList and AddList.
type ListInfo struct {
	ID    uuid.UUID
	Title string
	Attrs map[string]string
}

// ListInfoFromAttrs builds a ListInfo. A malformed ID attribute is an error.
func ListInfoFromAttrs(attrs map[string]string) (ListInfo, error) {
	info := ListInfo{Title: attrs["Title"], Attrs: attrs}
	if raw := attrs["ID"]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ListInfo{}, fmt.Errorf("parse list id %q: %w", raw, err)
		}
		info.ID = id
	}
	return info, nil
}
