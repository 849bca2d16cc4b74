package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashValue_EmptySentinel(t *testing.T) {
	assert.Equal(t, EmptyHash, HashValue(nil))
	assert.Equal(t, EmptyHash, HashValue(""))
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.False(t, IsEmpty("agent"))
	assert.False(t, IsEmpty([]any{}))
}

func TestHashValue_Deterministic(t *testing.T) {
	assert.Equal(t, HashValue("agent"), HashValue("agent"))
	assert.Len(t, HashValue("agent"), 64)
	assert.NotEqual(t, HashValue("agent"), HashValue("Agent"))
}

func TestHashValue_OrderNormalisesLists(t *testing.T) {
	a := []any{"a", "b", "c"}
	b := []any{"c", "a", "b"}

	assert.Equal(t, HashValue(a), HashValue(b))
	assert.Equal(t, HashValue(a), HashValue([]string{"b", "c", "a"}))
	assert.NotEqual(t, HashValue(a), HashValue([]any{"a", "b"}))
}

func TestHashValue_OrderNormalisesMaps(t *testing.T) {
	a := map[string]any{"x": 1, "y": []any{2, 1}}
	b := map[string]any{"y": []any{1, 2}, "x": 1}

	assert.Equal(t, HashValue(a), HashValue(b))
	assert.Equal(t, HashValue(a), HashValue(map[any]any{"x": 1, "y": []any{1, 2}}))
}

func TestHashValue_DistinguishesTypes(t *testing.T) {
	assert.NotEqual(t, HashValue("1"), HashValue(1))
	assert.NotEqual(t, HashValue("true"), HashValue(true))
	assert.Equal(t, HashValue(1), HashValue(1.0))
	assert.Equal(t, HashValue(int64(7)), HashValue(7))
}

func TestHashValue_NFCNormalisation(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	assert.Equal(t, HashValue(composed), HashValue(decomposed))
}

func TestHashValue_Time(t *testing.T) {
	utc := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("X", 3600))

	assert.Equal(t, HashValue(utc), HashValue(local))
	assert.Equal(t, HashValue(utc), HashValue("2026-03-01T10:00:00Z"))
}

func TestCanonical_IsValidJSON(t *testing.T) {
	values := []any{
		nil, "a<b>&c", 42, 3.5, true,
		[]any{"z", 1, nil},
		map[string]any{"k": map[string]any{"n": "v"}},
	}

	for _, v := range values {
		var out any
		require.NoError(t, json.Unmarshal([]byte(Canonical(v)), &out), "value %v", v)
	}

	assert.Equal(t, `"a<b>&c"`, Canonical("a<b>&c"))
	assert.Equal(t, `{"a":1,"b":["x","y"]}`, Canonical(map[string]any{"b": []any{"y", "x"}, "a": 1}))
}

func TestCanonical_RoundTripPreservesHash(t *testing.T) {
	original := map[string]any{"tags": []any{"b", "a"}, "n": 3}

	var decoded any
	require.NoError(t, json.Unmarshal([]byte(Canonical(original)), &decoded))

	assert.Equal(t, HashValue(original), HashValue(decoded))
}

func TestInputHash(t *testing.T) {
	base := InputHash("notify", "a.md", "assignee", EmptyHash, HashValue("agent"))

	assert.Equal(t, base, InputHash("notify", "a.md", "assignee", EmptyHash, HashValue("agent")))
	assert.NotEqual(t, base, InputHash("ticket", "a.md", "assignee", EmptyHash, HashValue("agent")))
	assert.NotEqual(t, base, InputHash("notify", "b.md", "assignee", EmptyHash, HashValue("agent")))
	assert.NotEqual(t, base, InputHash("notify", "a.md", "status", EmptyHash, HashValue("agent")))
	assert.NotEqual(t, base, InputHash("notify", "a.md", "assignee", HashValue("x"), HashValue("agent")))
	assert.NotEqual(t, base, HashValue("agent"))
}
