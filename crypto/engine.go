package crypto

import "io"

// EncryptionEngine is the polymorphic capability port consumed by the
// keyring and secret managers. Exactly which primitive backs each
// operation is implementation-defined; DefaultEngine is the concrete
// instance this module ships, but callers may supply their own.
type EncryptionEngine interface {
	// Encrypt seals msg under key, packing its per-call nonce in the
	// returned ciphertext. aad is optional associated data.
	Encrypt(msg, key []byte, aad ...[]byte) ([]byte, error)

	// Decrypt opens ciphertext produced by Encrypt with the same key. An
	// authentication-tag mismatch is fatal and returned as ErrDecryptFailed.
	Decrypt(ciphertext, key []byte, aad ...[]byte) ([]byte, error)

	// Authenticate computes a MAC of msg under an authentication key.
	Authenticate(msg, key []byte) ([]byte, error)

	// Verify reports whether mac is msg authenticated under key, in
	// constant time. It never returns a false positive.
	Verify(msg, key, mac []byte) bool

	// Sign signs the content of stream with a signature secret key,
	// returning a fixed-size signature.
	Sign(stream io.Reader, secretKey []byte) ([]byte, error)

	// VerifySignature reports whether sig is a valid signature of stream's
	// content under the given public key.
	VerifySignature(stream io.Reader, publicKey, sig []byte) (bool, error)

	// Checksum computes an integrity checksum of stream's content. If key
	// is non-empty the checksum is keyed; otherwise it is unkeyed.
	Checksum(stream io.Reader, key ...[]byte) ([]byte, error)

	// ShortHash computes a short, keyed, non-reversible digest of msg,
	// used to build vault lookup identifiers.
	ShortHash(msg, key []byte) ([]byte, error)

	// MacLen returns the fixed byte length of Authenticate's output. Callers
	// needing to split a MAC prefix off an arbitrary buffer read this
	// instead of hard-coding a primitive-specific constant.
	MacLen() int

	// ShortHashKeyLen returns the byte length ShortHash expects its key to be.
	ShortHashKeyLen() int
}

// EncodedLen is the fixed length, in base64url characters, of a signature or
// checksum produced by DefaultEngine: 64 raw bytes, base64url encoded with
// padding.
const EncodedLen = 88

// rawSigLen is the raw byte length backing EncodedLen.
const rawSigLen = 64
