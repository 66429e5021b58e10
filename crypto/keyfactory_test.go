package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFactory_GenerateSymmetric(t *testing.T) {
	f := NewKeyFactory()
	k, err := f.Generate(NewKeyConfig(KeyTypeSymmetricEncryption, AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)

	raw, err := k.Bytes()
	require.NoError(t, err)
	assert.Len(t, raw, symmetricKeyLen)
}

func TestKeyFactory_GenerateIsRandom(t *testing.T) {
	f := NewKeyFactory()
	k1, err := f.Generate(NewKeyConfig(KeyTypeSymmetricEncryption, AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)
	k2, err := f.Generate(NewKeyConfig(KeyTypeSymmetricEncryption, AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)
	assert.False(t, k1.Equal(k2))
}

func TestKeyFactory_DeriveIsDeterministic(t *testing.T) {
	f := NewKeyFactory()
	cfg := NewKeyConfig(KeyTypeSymmetricEncryption, AlgorithmXChaCha20Poly1305).
		WithPassword("hunter2").
		WithSalt([]byte("0123456789abcdef")).
		WithSecurityLevel(1).
		WithAlgorithmID("argon2id")

	k1, err := f.Generate(cfg)
	require.NoError(t, err)
	k2, err := f.Generate(cfg)
	require.NoError(t, err)
	assert.True(t, k1.Equal(k2))
}

func TestKeyFactory_GenerateEd25519Pair(t *testing.T) {
	f := NewKeyFactory()
	k, err := f.Generate(NewKeyConfig(KeyTypeAsymmetricSignatureKeyPair, AlgorithmEd25519))
	require.NoError(t, err)

	pub, sec, err := f.Split(k)
	require.NoError(t, err)
	assert.Equal(t, KeyTypeAsymmetricSignaturePublicKey, pub.Type)
	assert.Equal(t, KeyTypeAsymmetricSignatureSecretKey, sec.Type)

	pubRaw, err := pub.Bytes()
	require.NoError(t, err)
	assert.Len(t, pubRaw, ed25519PubLen)

	secRaw, err := sec.Bytes()
	require.NoError(t, err)
	assert.Len(t, secRaw, ed25519PrivLen)

	// The split public/secret halves must actually agree: sign with secret,
	// verify with public.
	e := NewDefaultEngine()
	sig, err := e.Sign(bytes.NewReader([]byte("payload")), secRaw)
	require.NoError(t, err)
	ok, err := e.VerifySignature(bytes.NewReader([]byte("payload")), pubRaw, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeyFactory_GenerateSecp256k1Pair(t *testing.T) {
	f := NewKeyFactory()
	k, err := f.Generate(NewKeyConfig(KeyTypeAsymmetricSignatureKeyPair, AlgorithmSecp256k1))
	require.NoError(t, err)

	pub, sec, err := f.Split(k)
	require.NoError(t, err)

	pubRaw, err := pub.Bytes()
	require.NoError(t, err)
	assert.Len(t, pubRaw, secp256k1PubLen)

	secRaw, err := sec.Bytes()
	require.NoError(t, err)
	assert.Len(t, secRaw, secp256k1PrivLen)

	e := NewDefaultEngine()
	sig, err := e.Sign(bytes.NewReader([]byte("payload")), secRaw)
	require.NoError(t, err)
	ok, err := e.VerifySignature(bytes.NewReader([]byte("payload")), pubRaw, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeyFactory_Split_NotAKeyPair(t *testing.T) {
	f := NewKeyFactory()
	k, err := f.Generate(NewKeyConfig(KeyTypeSymmetricEncryption, AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)

	_, _, err = f.Split(k)
	require.ErrorIs(t, err, ErrNotAKeyPair)
}

func TestKeyFactory_EngineFormRoundTrip(t *testing.T) {
	f := NewKeyFactory()
	raw := []byte{9, 8, 7, 6}
	k, err := f.FromEngineForm(raw, KeyTypeRaw, AlgorithmRaw, "1")
	require.NoError(t, err)

	got, err := f.ToEngineForm(k)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
