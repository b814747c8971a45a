package omr_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omrscan/internal/omr"
)

func TestParseKey_NormalizesAndCoerces(t *testing.T) {
	raw := json.RawMessage(`{"01":"A"," 2 ":"B","3":4}`)

	key, err := omr.ParseKey(raw)
	require.NoError(t, err)
	assert.Equal(t, omr.Key{"1": "A", "2": "B", "3": "4"}, key)
}

func TestParseKey_Empty(t *testing.T) {
	key, err := omr.ParseKey(nil)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestParseKey_Malformed(t *testing.T) {
	_, err := omr.ParseKey(json.RawMessage(`["A","B"]`))
	assert.Error(t, err)

	_, err = omr.ParseKey(json.RawMessage(`{"1":{"nested":"A"}}`))
	assert.Error(t, err)
}
