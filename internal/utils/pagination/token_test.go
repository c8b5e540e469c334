package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	createdAt := time.Date(2026, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeCursor(createdAt, "9f1c5c1e-4c1a-4b55-9d61-2f0b1f0c7a10")
	assert.NotEmpty(t, token)

	decodedAt, decodedID, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(decodedAt))
	assert.Equal(t, "9f1c5c1e-4c1a-4b55-9d61-2f0b1f0c7a10", decodedID)
}

func TestEncodeCursor_NormalizesToUTC(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	local := time.Date(2026, 5, 15, 22, 0, 0, 0, manila)

	decodedAt, _, err := DecodeCursor(EncodeCursor(local, "id"))
	require.NoError(t, err)
	assert.True(t, local.Equal(decodedAt))
	assert.Equal(t, time.UTC, decodedAt.Location())
}

func TestDecodeCursorError(t *testing.T) {
	_, _, err := DecodeCursor("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	_, _, err = DecodeCursor(base64.RawURLEncoding.EncodeToString([]byte("no-separator")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	_, _, err = DecodeCursor(base64.RawURLEncoding.EncodeToString([]byte("yesterday|id")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "created_at parse")
}
