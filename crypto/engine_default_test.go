package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine_EncryptDecryptRoundTrip(t *testing.T) {
	e := NewDefaultEngine()
	key := make([]byte, symmetricKeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)

	msg := []byte("the quick brown fox")
	ct, err := e.Encrypt(msg, key)
	require.NoError(t, err)
	assert.NotEqual(t, msg, ct)

	pt, err := e.Decrypt(ct, key)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)
}

func TestDefaultEngine_Decrypt_TamperedCiphertextFails(t *testing.T) {
	e := NewDefaultEngine()
	key := make([]byte, symmetricKeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)

	ct, err := e.Encrypt([]byte("payload"), key)
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xFF

	_, err = e.Decrypt(ct, key)
	require.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDefaultEngine_EncryptWithAAD_MismatchFails(t *testing.T) {
	e := NewDefaultEngine()
	key := make([]byte, symmetricKeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)

	ct, err := e.Encrypt([]byte("payload"), key, []byte("vault-a"))
	require.NoError(t, err)

	_, err = e.Decrypt(ct, key, []byte("vault-b"))
	require.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDefaultEngine_AuthenticateVerify(t *testing.T) {
	e := NewDefaultEngine()
	key := make([]byte, symmetricKeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)

	mac, err := e.Authenticate([]byte("msg"), key)
	require.NoError(t, err)
	assert.Len(t, mac, e.MacLen())
	assert.True(t, e.Verify([]byte("msg"), key, mac))
	assert.False(t, e.Verify([]byte("other"), key, mac))
}

func TestDefaultEngine_Ed25519SignVerify(t *testing.T) {
	e := NewDefaultEngine()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	sig, err := e.Sign(bytes.NewReader([]byte("hello")), priv)
	require.NoError(t, err)
	assert.Len(t, sig, EncodedLen)

	ok, err := e.VerifySignature(bytes.NewReader([]byte("hello")), pub, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.VerifySignature(bytes.NewReader([]byte("goodbye")), pub, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDefaultEngine_Secp256k1SignVerify(t *testing.T) {
	e := NewDefaultEngine()
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	sig, err := e.Sign(bytes.NewReader([]byte("hello")), priv.Serialize())
	require.NoError(t, err)

	ok, err := e.VerifySignature(bytes.NewReader([]byte("hello")), priv.PubKey().SerializeCompressed(), sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultEngine_Checksum(t *testing.T) {
	e := NewDefaultEngine()

	sum1, err := e.Checksum(bytes.NewReader([]byte("content")))
	require.NoError(t, err)
	assert.Len(t, sum1, EncodedLen)

	sum2, err := e.Checksum(bytes.NewReader([]byte("content")))
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)

	keyed, err := e.Checksum(bytes.NewReader([]byte("content")), []byte("a-checksum-key"))
	require.NoError(t, err)
	assert.NotEqual(t, sum1, keyed)
}

func TestDefaultEngine_ShortHash_Stable(t *testing.T) {
	e := NewDefaultEngine()
	key := make([]byte, e.ShortHashKeyLen())
	_, err := rand.Read(key)
	require.NoError(t, err)

	h1, err := e.ShortHash([]byte("lookup-name"), key)
	require.NoError(t, err)
	assert.Len(t, h1, shortHashLen)

	h2, err := e.ShortHash([]byte("lookup-name"), key)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestDefaultEngine_Checksum_LargeStream(t *testing.T) {
	e := NewDefaultEngine()
	sum, err := e.Checksum(io.LimitReader(zeroReader{}, 1<<20))
	require.NoError(t, err)
	assert.Len(t, sum, EncodedLen)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
