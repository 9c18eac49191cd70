package secretbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wppanel/internal/adapter/driven/secretbox"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func TestBox_SealOpen(t *testing.T) {
	box, err := secretbox.New(key)
	require.NoError(t, err)

	sealed, err := box.Seal("abcd efgh ijkl mnop")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "abcd")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "abcd efgh ijkl mnop", opened)
}

func TestBox_SealUsesFreshNonce(t *testing.T) {
	box, err := secretbox.New(key)
	require.NoError(t, err)

	a, err := box.Seal("same")
	require.NoError(t, err)
	b, err := box.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBox_OpenWithWrongKeyFails(t *testing.T) {
	box, err := secretbox.New(key)
	require.NoError(t, err)
	other, err := secretbox.New([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestBox_NilKey(t *testing.T) {
	box, err := secretbox.New(nil)
	require.NoError(t, err)

	_, err = box.Seal("secret")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = box.Open("c2VjcmV0")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestNew_RejectsShortKey(t *testing.T) {
	_, err := secretbox.New([]byte("short"))
	assert.Error(t, err)
}
