package codec

import (
	"testing"

	"github.com/smnsjas/go-splists/schema"
)

// FuzzToNative checks that decoding never panics and that unconvertible
// values come back unchanged.
func FuzzToNative(f *testing.F) {
	f.Add("3.5")
	f.Add("12;#2024-01-31 08:05:09")
	f.Add("7;#Ada;#9;#Alan")
	f.Add("1")
	f.Add(";#;#")
	f.Add("")

	cat, err := schema.Build([]schema.Field{{InternalName: "Title", DisplayName: "Title"}})
	if err != nil {
		f.Fatal(err)
	}
	c := New(cat, WithUsers(testDirectory()))
	fields := []schema.Field{numberField, dateField, boolField, userField, userMultiField, choiceField}

	f.Fuzz(func(t *testing.T, wire string) {
		for _, fld := range fields {
			_ = c.ToNative(fld, wire)
		}
	})
}
