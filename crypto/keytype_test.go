package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyType(t *testing.T) {
	kt, err := ParseKeyType("symmetric_encryption_key")
	require.NoError(t, err)
	assert.Equal(t, KeyTypeSymmetricEncryption, kt)

	_, err = ParseKeyType("not_a_real_type")
	require.ErrorIs(t, err, ErrInvalidKeyType)
}

func TestKeyType_Predicates(t *testing.T) {
	assert.True(t, KeyTypeSymmetricEncryption.IsSymmetric())
	assert.True(t, KeyTypeSymmetricAuthentication.IsAuthentication())
	assert.False(t, KeyTypeSymmetricEncryption.IsAsymmetric())

	assert.True(t, KeyTypeAsymmetricSignatureKeyPair.IsKeyPair())
	assert.True(t, KeyTypeAsymmetricSignatureKeyPair.IsAsymmetric())
	assert.True(t, KeyTypeAsymmetricSignatureKeyPair.IsSignature())

	assert.True(t, KeyTypeAsymmetricSignaturePublicKey.IsPublic())
	assert.True(t, KeyTypeAsymmetricSignatureSecretKey.IsSecret())
	assert.False(t, KeyTypeAsymmetricSignaturePublicKey.IsKeyPair())
}

func TestKeyType_SplitHalves(t *testing.T) {
	pub, ok := KeyTypeAsymmetricSignatureKeyPair.publicHalf()
	require.True(t, ok)
	assert.Equal(t, KeyTypeAsymmetricSignaturePublicKey, pub)

	sec, ok := KeyTypeAsymmetricSignatureKeyPair.secretHalf()
	require.True(t, ok)
	assert.Equal(t, KeyTypeAsymmetricSignatureSecretKey, sec)

	_, ok = KeyTypeSymmetricEncryption.publicHalf()
	assert.False(t, ok)
}

func TestKeyType_IsValid(t *testing.T) {
	assert.True(t, KeyTypeHex.IsValid())
	assert.False(t, KeyTypeUnknown.IsValid())
	assert.False(t, KeyType("bogus").IsValid())
}
