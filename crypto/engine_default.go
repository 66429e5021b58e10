package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

// Default primitive sizes, fixed as on-wire constants.
const (
	symmetricKeyLen  = 32 // XChaCha20-Poly1305 key / BLAKE2b MAC key
	macLen           = 32 // Authenticate/Verify output
	shortHashLen     = 8  // ShortHash output, per half
	shortHashKeyLen  = 16 // ShortHash key, per half
	xchachaNonceLen  = chacha20poly1305.NonceSizeX
	ed25519PubLen    = ed25519.PublicKeySize
	ed25519PrivLen   = ed25519.PrivateKeySize
	secp256k1PrivLen = 32
	secp256k1PubLen  = 33 // compressed
)

// DefaultEngine is the concrete EncryptionEngine this module ships:
// XChaCha20-Poly1305 for AEAD, keyed BLAKE2b with a 32-byte digest for the
// MAC, BLAKE2b-512 for the checksum, Ed25519 (or secp256k1) for signatures,
// and BLAKE2b for the
// short-hash used to build vault lookup identifiers.
type DefaultEngine struct{}

// NewDefaultEngine returns the default EncryptionEngine.
func NewDefaultEngine() *DefaultEngine { return &DefaultEngine{} }

var _ EncryptionEngine = (*DefaultEngine)(nil)

// Encrypt implements EncryptionEngine. The returned ciphertext is
// nonce‖sealed, so decryption never needs an out-of-band nonce.
func (e *DefaultEngine) Encrypt(msg, key []byte, aad ...[]byte) ([]byte, error) {
	if len(key) != symmetricKeyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrEncryptFailed, symmetricKeyLen, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}
	nonce := make([]byte, xchachaNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce generation: %v", ErrEncryptFailed, err)
	}
	sealed := aead.Seal(nil, nonce, msg, joinAAD(aad))
	return append(nonce, sealed...), nil
}

// Decrypt implements EncryptionEngine.
func (e *DefaultEngine) Decrypt(ciphertext, key []byte, aad ...[]byte) ([]byte, error) {
	if len(key) != symmetricKeyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrDecryptFailed, symmetricKeyLen, len(key))
	}
	if len(ciphertext) < xchachaNonceLen {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	nonce, sealed := ciphertext[:xchachaNonceLen], ciphertext[xchachaNonceLen:]
	plain, err := aead.Open(nil, nonce, sealed, joinAAD(aad))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plain, nil
}

// Authenticate implements EncryptionEngine using a keyed BLAKE2b MAC.
func (e *DefaultEngine) Authenticate(msg, key []byte) ([]byte, error) {
	h, err := blake2b.New(macLen, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	h.Write(msg)
	return h.Sum(nil), nil
}

// Verify implements EncryptionEngine in constant time.
func (e *DefaultEngine) Verify(msg, key, mac []byte) bool {
	computed, err := e.Authenticate(msg, key)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, mac) == 1
}

// Sign implements EncryptionEngine. secretKey length selects the algorithm:
// ed25519.PrivateKeySize (64) for Ed25519, 32 for secp256k1. The signature
// is returned already base64url-encoded (EncodedLen=88 chars), which is the
// on-wire form written to the checksum sidecar.
func (e *DefaultEngine) Sign(stream io.Reader, secretKey []byte) ([]byte, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: reading stream: %v", ErrSignFailed, err)
	}

	var raw []byte
	switch len(secretKey) {
	case ed25519PrivLen:
		raw = ed25519.Sign(ed25519.PrivateKey(secretKey), data)
	case secp256k1PrivLen:
		priv := secp256k1.PrivKeyFromBytes(secretKey)
		hash := blake2bSum256(data)
		sig := dcrecdsa.Sign(priv, hash[:])
		raw = packSecp256k1Signature(sig)
	default:
		return nil, fmt.Errorf("%w: unrecognized secret key length %d", ErrSignFailed, len(secretKey))
	}

	enc := make([]byte, base64.URLEncoding.EncodedLen(len(raw)))
	base64.URLEncoding.Encode(enc, raw)
	return enc, nil
}

// VerifySignature implements EncryptionEngine. publicKey length selects the
// algorithm: 32 bytes for Ed25519, 33 (compressed) for secp256k1. sig is the
// base64url-encoded form produced by Sign.
func (e *DefaultEngine) VerifySignature(stream io.Reader, publicKey, sig []byte) (bool, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return false, fmt.Errorf("reading stream: %w", err)
	}
	raw := make([]byte, base64.URLEncoding.DecodedLen(len(sig)))
	n, err := base64.URLEncoding.Decode(raw, sig)
	if err != nil {
		return false, nil //nolint:nilerr // malformed signature is "not valid", not an engine fault
	}
	raw = raw[:n]
	if len(raw) != rawSigLen {
		return false, nil
	}

	switch len(publicKey) {
	case ed25519PubLen:
		return ed25519.Verify(ed25519.PublicKey(publicKey), data, raw), nil
	case secp256k1PubLen:
		pub, err := secp256k1.ParsePubKey(publicKey)
		if err != nil {
			return false, nil //nolint:nilerr
		}
		r, s, ok := unpackSecp256k1Signature(raw)
		if !ok {
			return false, nil
		}
		hash := blake2bSum256(data)
		return dcrecdsa.NewSignature(r, s).Verify(hash[:], pub), nil
	default:
		return false, fmt.Errorf("unrecognized public key length %d", len(publicKey))
	}
}

// Checksum implements EncryptionEngine with BLAKE2b-512, keyed if key is
// supplied. The result is base64url-encoded (88 chars), matching Sign's
// on-wire form so the two concatenate cleanly into the 176-byte sidecar.
func (e *DefaultEngine) Checksum(stream io.Reader, key ...[]byte) ([]byte, error) {
	var h interface {
		io.Writer
		Sum([]byte) []byte
	}
	var err error
	if len(key) > 0 && len(key[0]) > 0 {
		h, err = blake2b.New512(key[0])
	} else {
		h, err = blake2b.New512(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChecksumFailed, err)
	}
	if _, err := io.Copy(h, stream); err != nil {
		return nil, fmt.Errorf("%w: reading stream: %v", ErrChecksumFailed, err)
	}
	raw := h.Sum(nil)
	enc := make([]byte, base64.URLEncoding.EncodedLen(len(raw)))
	base64.URLEncoding.Encode(enc, raw)
	return enc, nil
}

// ShortHash implements EncryptionEngine with a keyed BLAKE2b digest
// truncated to shortHashLen bytes.
func (e *DefaultEngine) ShortHash(msg, key []byte) ([]byte, error) {
	if len(key) != shortHashKeyLen {
		return nil, fmt.Errorf("short-hash key must be %d bytes, got %d", shortHashKeyLen, len(key))
	}
	h, err := blake2b.New(shortHashLen, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	h.Write(msg)
	return h.Sum(nil), nil
}

// MacLen implements EncryptionEngine.
func (e *DefaultEngine) MacLen() int { return macLen }

// ShortHashKeyLen implements EncryptionEngine.
func (e *DefaultEngine) ShortHashKeyLen() int { return shortHashKeyLen }

func joinAAD(aad [][]byte) []byte {
	if len(aad) == 0 {
		return nil
	}
	return bytes.Join(aad, nil)
}

func blake2bSum256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// packSecp256k1Signature encodes r‖s as a fixed 64-byte buffer.
func packSecp256k1Signature(sig *dcrecdsa.Signature) []byte {
	r := sig.R()
	s := sig.S()
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	out := make([]byte, rawSigLen)
	copy(out[:32], rBytes[:])
	copy(out[32:], sBytes[:])
	return out
}

func unpackSecp256k1Signature(raw []byte) (*secp256k1.ModNScalar, *secp256k1.ModNScalar, bool) {
	if len(raw) != rawSigLen {
		return nil, nil, false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(raw[:32]) {
		return nil, nil, false
	}
	if s.SetByteSlice(raw[32:]) {
		return nil, nil, false
	}
	return &r, &s, true
}
