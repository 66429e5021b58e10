// Package crypto provides the cryptographic primitives for the keyring:
// key types, the EncryptionEngine capability port, key generation, and
// master-key storage backends.
package crypto

// Algorithm identifies the concrete primitive backing a Key. It fills the
// Key.Adapter field and lets KeyFactory and EncryptionEngine agree on how
// to interpret a key's hex material without a type switch on KeyType alone
// (two keys can share a KeyType, e.g. AsymmetricSignatureKeyPair, while
// using different curves).
type Algorithm string

const (
	// AlgorithmEd25519 backs AsymmetricSignatureKeyPair/SecretKey/PublicKey.
	// Key size: 64 bytes (private: seed‖public) / 32 bytes (public). Signature: 64 bytes.
	// Primary recommended algorithm for signing master keys.
	AlgorithmEd25519 Algorithm = "ed25519"

	// AlgorithmSecp256k1 is an alternate AsymmetricSignatureKeyPair backing
	// for deployments that need Ethereum/Bitcoin-style key compatibility.
	// Key size: 32 bytes (private) / 33 bytes (compressed public). Signature: 64 bytes.
	AlgorithmSecp256k1 Algorithm = "secp256k1"

	// AlgorithmXChaCha20Poly1305 backs SymmetricEncryptionKey.
	// Key size: 32 bytes.
	AlgorithmXChaCha20Poly1305 Algorithm = "xchacha20poly1305"

	// AlgorithmBlake2bMAC backs SymmetricAuthenticationKey.
	// Key size: 32 bytes.
	AlgorithmBlake2bMAC Algorithm = "blake2b-mac"

	// AlgorithmHex marks key material that is an opaque hex encoding with
	// no further interpretation (KeyTypeHex).
	AlgorithmHex Algorithm = "hex"

	// AlgorithmRaw marks raw, uninterpreted key material (KeyTypeRaw).
	AlgorithmRaw Algorithm = "raw"

	// AlgorithmUnknown is the zero value; never valid on a constructed Key.
	AlgorithmUnknown Algorithm = ""
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// IsValid returns true if the algorithm is a recognized identifier.
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmEd25519, AlgorithmSecp256k1, AlgorithmXChaCha20Poly1305,
		AlgorithmBlake2bMAC, AlgorithmHex, AlgorithmRaw:
		return true
	default:
		return false
	}
}

// IsAsymmetricSignature reports whether the algorithm backs a signature key pair.
func (a Algorithm) IsAsymmetricSignature() bool {
	return a == AlgorithmEd25519 || a == AlgorithmSecp256k1
}
