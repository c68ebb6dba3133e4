package generation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_String(t *testing.T) {
	h := Index{Position: 12, Generation: 3}
	assert.Equal(t, "12.3", h.String())

	parsed, err := ParseIndex("12.3")
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestParseIndex_Malformed(t *testing.T) {
	for _, input := range []string{"", "12", "a.1", "1.b", "-1.0", "1.4294967296"} {
		_, err := ParseIndex(input)
		assert.ErrorIs(t, err, ErrMalformedIndex, input)
	}
}

func TestIndex_Uint64(t *testing.T) {
	h := Index{Position: math.MaxUint32, Generation: 7}
	assert.Equal(t, uint64(math.MaxUint32)<<32|7, h.Uint64())
	assert.Equal(t, h, IndexFromUint64(h.Uint64()))
}

func TestIndex_JSON(t *testing.T) {
	payload := struct {
		Handle Index `json:"handle"`
	}{Index{Position: 4, Generation: 9}}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"handle":"4.9"}`, string(data))

	payload.Handle = Index{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, Index{Position: 4, Generation: 9}, payload.Handle)

	assert.Error(t, json.Unmarshal([]byte(`{"handle":"nope"}`), &payload))
}
