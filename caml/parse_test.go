package caml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokens(t *testing.T) {
	tokens, err := ParseTokens([]string{"And", "eq:Status:Open", "IsNull:Due Date", "Contains:Title:a:b"})
	require.NoError(t, err)
	assert.Equal(t, []Token{
		And,
		Comparison{Op: Eq, Field: "Status", Value: "Open"},
		Comparison{Op: IsNull, Field: "Due Date"},
		Comparison{Op: Contains, Field: "Title", Value: "a:b"},
	}, tokens)
}

func TestParseTokensErrors(t *testing.T) {
	for _, bad := range []string{"Status", "Like:Title:x", "Eq:Status", ":Title:x"} {
		_, err := ParseTokens([]string{bad})
		assert.ErrorIs(t, err, ErrInvalidQuery, bad)
	}
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("Priority:DESC")
	require.NoError(t, err)
	assert.Equal(t, Desc("Priority"), s)

	s, err = ParseSort("ID")
	require.NoError(t, err)
	assert.Equal(t, Asc("ID"), s)

	_, err = ParseSort("ID:sideways")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
