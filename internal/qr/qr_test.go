package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialIsUserID(t *testing.T) {
	assert.Equal(t, "abc-123", Credential("abc-123"))
}

func TestPNG(t *testing.T) {
	data, err := PNG("abc-123", 256)
	require.NoError(t, err)
	// PNG magic bytes
	require.True(t, len(data) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestPNGRejectsEmptyData(t *testing.T) {
	_, err := PNG("", 256)
	assert.Error(t, err)
}

func TestPNGDefaultSize(t *testing.T) {
	data, err := PNG("abc-123", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
