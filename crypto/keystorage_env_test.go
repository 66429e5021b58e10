package crypto

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKeyStorage_ImportMissingReturnsNil(t *testing.T) {
	s := NewEnvKeyStorage()
	raw, err := s.Import("DUSKVAULT_TEST_MISSING_VAR")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestEnvKeyStorage_SaveImportResolveRoundTrip(t *testing.T) {
	s := NewEnvKeyStorage()
	name := "duskvault_test_encryption"
	t.Cleanup(func() { _ = os.Unsetenv(envVarName(name)) })

	k, err := NewKey("aabbcc", KeyTypeSymmetricEncryption, AlgorithmXChaCha20Poly1305, "1")
	require.NoError(t, err)
	require.NoError(t, s.Save(name, k))

	raw, err := s.Import(name)
	require.NoError(t, err)
	require.NotNil(t, raw)

	got, err := s.Resolve(raw)
	require.NoError(t, err)
	assert.True(t, k.Equal(got))
}

func TestEnvKeyStorage_ResolveMalformedFails(t *testing.T) {
	s := NewEnvKeyStorage()
	_, err := s.Resolve([]byte("not json"))
	require.ErrorIs(t, err, ErrUnableToLoadKey)
}
