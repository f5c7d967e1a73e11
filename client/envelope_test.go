package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemIDs(t *testing.T, items []json.RawMessage) []string {
	t.Helper()
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, pickString(decodeItem(item), []string{"id"}))
	}
	return ids
}

// Every known wrapping of the same payload must unwrap to the same array.
func TestUnwrapListShapes(t *testing.T) {
	inner := `[{"id":"a"},{"id":"b"}]`
	shapes := map[string]string{
		"bare array":        inner,
		"data":              `{"data":` + inner + `}`,
		"items":             `{"items":` + inner + `}`,
		"results":           `{"results":` + inner + `}`,
		"challenges":        `{"challenges":` + inner + `}`,
		"userDtoList":       `{"userDtoList":` + inner + `}`,
		"nested data.items": `{"data":{"items":` + inner + `}}`,
		"HAL _embedded":     `{"_embedded":{"userDtoList":` + inner + `}}`,
		"unknown key":       `{"somethingElse":` + inner + `}`,
	}

	for name, body := range shapes {
		items := unwrapList([]byte(body))
		require.Len(t, items, 2, name)
		assert.Equal(t, []string{"a", "b"}, itemIDs(t, items), name)
	}
}

// Unwrapping an already-unwrapped array returns it unchanged.
func TestUnwrapListIdempotent(t *testing.T) {
	body := []byte(`[{"id":"a"},{"id":"b"}]`)

	once := unwrapList(body)
	raw, err := json.Marshal(once)
	require.NoError(t, err)
	twice := unwrapList(raw)

	assert.Equal(t, itemIDs(t, once), itemIDs(t, twice))
}

func TestUnwrapListFirstMatchDocumentOrder(t *testing.T) {
	// Neither key is a known wrapper; the first array in document order wins.
	body := []byte(`{"zzz":[{"id":"first"}],"aaa":[{"id":"second"}]}`)
	items := unwrapList(body)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"first"}, itemIDs(t, items))
}

func TestUnwrapListKnownKeyBeatsDocumentOrder(t *testing.T) {
	// "data" wins over an earlier unknown array-valued property.
	body := []byte(`{"noise":[{"id":"wrong"}],"data":[{"id":"right"}]}`)
	items := unwrapList(body)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"right"}, itemIDs(t, items))
}

func TestUnwrapListNothingArrayValued(t *testing.T) {
	for _, body := range []string{`{"message":"ok"}`, `"just a string"`, `42`, `null`, `{}`} {
		items := unwrapList([]byte(body))
		assert.NotNil(t, items, body)
		assert.Len(t, items, 0, body)
	}
}

func TestUnwrapObject(t *testing.T) {
	wrapped := unwrapObject([]byte(`{"data":{"id":"u1","name":"Ana"}}`))
	assert.Equal(t, "u1", wrapped["id"])

	direct := unwrapObject([]byte(`{"id":"u1","name":"Ana"}`))
	assert.Equal(t, "u1", direct["id"])

	// data holding a non-object falls back to the body itself.
	scalar := unwrapObject([]byte(`{"data":"token-string","id":"u2"}`))
	assert.Equal(t, "u2", scalar["id"])

	empty := unwrapObject([]byte(`[1,2,3]`))
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}
