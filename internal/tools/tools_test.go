package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArg(t *testing.T) {
	args := map[string]any{"name": "Dark mode", "count": float64(3)}

	assert.Equal(t, "Dark mode", StringArg(args, "name"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.Equal(t, "", StringArg(args, "count"), "non-string values read as empty")
}

func TestRequiredStringArg(t *testing.T) {
	args := map[string]any{"id": "f1", "empty": ""}

	value, err := RequiredStringArg(args, "id")
	require.NoError(t, err)
	assert.Equal(t, "f1", value)

	_, err = RequiredStringArg(args, "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = RequiredStringArg(args, "missing")
	require.Error(t, err)
}

func TestIntArg(t *testing.T) {
	args := map[string]any{
		"json_number": float64(42),
		"go_int":      7,
		"text":        "10",
	}

	assert.Equal(t, 42, IntArg(args, "json_number", 0), "JSON numbers arrive as float64")
	assert.Equal(t, 7, IntArg(args, "go_int", 0))
	assert.Equal(t, 99, IntArg(args, "text", 99), "unparseable types fall back to the default")
	assert.Equal(t, 99, IntArg(args, "missing", 99))
}

func TestBoolArg(t *testing.T) {
	args := map[string]any{"archived": true, "text": "true"}

	value, ok := BoolArg(args, "archived")
	assert.True(t, ok)
	assert.True(t, value)

	_, ok = BoolArg(args, "text")
	assert.False(t, ok, "string true is not a bool")

	_, ok = BoolArg(args, "missing")
	assert.False(t, ok)
}

func TestStringSliceArg(t *testing.T) {
	args := map[string]any{
		"tags":  []any{"bug", "ux", "", 42, "mobile"},
		"notag": "bug",
	}

	assert.Equal(t, []string{"bug", "ux", "mobile"}, StringSliceArg(args, "tags"),
		"non-string and empty elements are skipped")
	assert.Nil(t, StringSliceArg(args, "notag"))
	assert.Nil(t, StringSliceArg(args, "missing"))
}

func TestNewJSONResult(t *testing.T) {
	result, err := NewJSONResult(map[string]any{"count": 2})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
}
