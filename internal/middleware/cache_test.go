package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPayloadRoundTrip encodes then decodes a cached response body.
func TestPayloadRoundTrip(t *testing.T) {
	body := []byte(`{"posts":[]}`)
	raw := encodePayload("application/json", body)

	ct, got, ok := decodePayload(raw)
	require.True(t, ok)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, body, got)
}

// TestDecodePayload_Corrupt rejects truncated entries.
func TestDecodePayload_Corrupt(t *testing.T) {
	_, _, ok := decodePayload([]byte{0, 0})
	assert.False(t, ok)

	// Declared content-type length longer than the payload.
	_, _, ok = decodePayload([]byte{0, 0, 0, 99, 'a'})
	assert.False(t, ok)
}
