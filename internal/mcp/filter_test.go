// ABOUTME: Tests for the order-preserving field filter
// ABOUTME: Covers data objects, data arrays, top-level pruning, and identity

package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterIdentity(t *testing.T) {
	raw := json.RawMessage(`{"data":{"a":1}}`)

	out, applied := filterPayload(raw, nil)
	assert.False(t, applied)
	assert.Equal(t, string(raw), string(out))

	out, applied = filterPayload(raw, []string{})
	assert.False(t, applied)
	assert.Equal(t, string(raw), string(out))
}

func TestFilterNonObjectPassthrough(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"text"`, `42`, `null`, `true`} {
		out, applied := filterPayload(json.RawMessage(raw), []string{"a"})
		assert.False(t, applied, "input %s", raw)
		assert.Equal(t, raw, string(out), "input %s", raw)
	}
}

func TestFilterDataObject(t *testing.T) {
	raw := `{"success":true,"data":{"lamports":5,"owner":"Y","rent":12},"meta":{"x":1}}`
	out, applied := filterPayload(json.RawMessage(raw), []string{"lamports", "rent"})
	require.True(t, applied)
	assert.Equal(t,
		`{"success":true,"data":{"lamports":5,"rent":12},"meta":{"x":1},"_mcp_note":{"filtered_by":["lamports","rent"]}}`,
		string(out))
}

func TestFilterPreservesSourceKeyOrder(t *testing.T) {
	raw := `{"data":{"z":1,"a":2,"m":3}}`
	out, applied := filterPayload(json.RawMessage(raw), []string{"a", "z"})
	require.True(t, applied)
	assert.Equal(t,
		`{"data":{"z":1,"a":2},"_mcp_note":{"filtered_by":["a","z"]}}`,
		string(out))
}

func TestFilterDataArray(t *testing.T) {
	raw := `{"data":[{"a":1,"b":2},{"b":3,"c":4},7,"s"],"n":1}`
	out, applied := filterPayload(json.RawMessage(raw), []string{"b"})
	require.True(t, applied)
	assert.Equal(t,
		`{"data":[{"b":2},{"b":3},7,"s"],"n":1,"_mcp_note":{"filtered_by":["b"]}}`,
		string(out))
}

func TestFilterTopLevelObject(t *testing.T) {
	t.Run("no data key", func(t *testing.T) {
		out, applied := filterPayload(json.RawMessage(`{"lamports":5,"owner":"Y"}`), []string{"owner"})
		require.True(t, applied)
		assert.Equal(t, `{"owner":"Y","_mcp_note":{"filtered_by":["owner"]}}`, string(out))
	})

	t.Run("scalar data falls back to top-level pruning", func(t *testing.T) {
		out, applied := filterPayload(json.RawMessage(`{"data":null,"x":1}`), []string{"x"})
		require.True(t, applied)
		assert.Equal(t, `{"x":1,"_mcp_note":{"filtered_by":["x"]}}`, string(out))
	})

	t.Run("nothing matches", func(t *testing.T) {
		out, applied := filterPayload(json.RawMessage(`{"a":1}`), []string{"zzz"})
		require.True(t, applied)
		assert.Equal(t, `{"_mcp_note":{"filtered_by":["zzz"]}}`, string(out))
	})
}

func TestFilterUnknownKeysOmitted(t *testing.T) {
	out, applied := filterPayload(json.RawMessage(`{"data":{"a":1}}`), []string{"a", "zzz"})
	require.True(t, applied)
	assert.Equal(t, `{"data":{"a":1},"_mcp_note":{"filtered_by":["a","zzz"]}}`, string(out))
}

func TestFilterReplacesStaleNote(t *testing.T) {
	raw := `{"data":{"a":1},"_mcp_note":{"filtered_by":["old"]}}`
	out, applied := filterPayload(json.RawMessage(raw), []string{"a"})
	require.True(t, applied)
	assert.Equal(t, `{"data":{"a":1},"_mcp_note":{"filtered_by":["a"]}}`, string(out))
}

func TestFilterToleratesPaddedInput(t *testing.T) {
	raw := `{ "data" : { "a" : 1 , "b" : 2 } }`
	out, applied := filterPayload(json.RawMessage(raw), []string{"a"})
	require.True(t, applied)
	assert.Equal(t, `{"data":{"a":1},"_mcp_note":{"filtered_by":["a"]}}`, string(out))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
}

func TestFilterOutputStaysValidJSON(t *testing.T) {
	inputs := []string{
		`{"data":{"a":{"nested":[1,2]},"b":"x"},"extra":[{"deep":true}]}`,
		`{"data":[[1],{"a":1}],"s":"e\"sc"}`,
		`{"we\"ird":1,"data":{"a":1}}`,
	}
	for _, raw := range inputs {
		out, applied := filterPayload(json.RawMessage(raw), []string{"a"})
		require.True(t, applied, "input %s", raw)
		assert.True(t, json.Valid(out), "output of %s not valid JSON: %s", raw, out)
	}
}
