package crypto

import "fmt"

// KeyType is a closed enum over key purpose and shape. It groups
// {symmetric, asymmetric} x {encryption, authentication, signature} x
// {key, public_key, secret_key, key_pair}, plus three encoding-only forms
// that carry no cryptographic purpose of their own.
type KeyType string

const (
	// KeyTypeSymmetricEncryption is a single shared key used for AEAD.
	KeyTypeSymmetricEncryption KeyType = "symmetric_encryption_key"
	// KeyTypeSymmetricAuthentication is a single shared key used for MAC/short-hash.
	KeyTypeSymmetricAuthentication KeyType = "symmetric_authentication_key"

	// KeyTypeAsymmetricSignatureKeyPair carries both halves of a signing key.
	KeyTypeAsymmetricSignatureKeyPair KeyType = "asymmetric_signature_key_pair"
	// KeyTypeAsymmetricSignatureSecretKey is the private half of a signature pair.
	KeyTypeAsymmetricSignatureSecretKey KeyType = "asymmetric_signature_secret_key"
	// KeyTypeAsymmetricSignaturePublicKey is the public half of a signature pair.
	KeyTypeAsymmetricSignaturePublicKey KeyType = "asymmetric_signature_public_key"

	// KeyTypeAsymmetricEncryptionKeyPair carries both halves of a sealing key.
	KeyTypeAsymmetricEncryptionKeyPair KeyType = "asymmetric_encryption_key_pair"
	// KeyTypeAsymmetricEncryptionSecretKey is the private half of a sealing pair.
	KeyTypeAsymmetricEncryptionSecretKey KeyType = "asymmetric_encryption_secret_key"
	// KeyTypeAsymmetricEncryptionPublicKey is the public half of a sealing pair.
	KeyTypeAsymmetricEncryptionPublicKey KeyType = "asymmetric_encryption_public_key"

	// KeyTypeHex is an opaque hex-encoded value with no cryptographic purpose.
	KeyTypeHex KeyType = "hex"
	// KeyTypeRaw is opaque raw material with no cryptographic purpose.
	KeyTypeRaw KeyType = "raw"
	// KeyTypeUnknown is the zero value and is never valid on a constructed Key.
	KeyTypeUnknown KeyType = ""
)

// ParseKeyType validates and returns a KeyType, or ErrInvalidKeyType if s
// does not name one of the recognized variants.
func ParseKeyType(s string) (KeyType, error) {
	kt := KeyType(s)
	if !kt.IsValid() {
		return KeyTypeUnknown, fmt.Errorf("%w: %q", ErrInvalidKeyType, s)
	}
	return kt, nil
}

// IsValid reports whether kt is one of the recognized variants.
func (kt KeyType) IsValid() bool {
	switch kt {
	case KeyTypeSymmetricEncryption, KeyTypeSymmetricAuthentication,
		KeyTypeAsymmetricSignatureKeyPair, KeyTypeAsymmetricSignatureSecretKey, KeyTypeAsymmetricSignaturePublicKey,
		KeyTypeAsymmetricEncryptionKeyPair, KeyTypeAsymmetricEncryptionSecretKey, KeyTypeAsymmetricEncryptionPublicKey,
		KeyTypeHex, KeyTypeRaw:
		return true
	default:
		return false
	}
}

// IsSymmetric reports whether kt denotes a symmetric key.
func (kt KeyType) IsSymmetric() bool {
	return kt == KeyTypeSymmetricEncryption || kt == KeyTypeSymmetricAuthentication
}

// IsAsymmetric reports whether kt denotes any half (or pair) of an asymmetric key.
func (kt KeyType) IsAsymmetric() bool {
	switch kt {
	case KeyTypeAsymmetricSignatureKeyPair, KeyTypeAsymmetricSignatureSecretKey, KeyTypeAsymmetricSignaturePublicKey,
		KeyTypeAsymmetricEncryptionKeyPair, KeyTypeAsymmetricEncryptionSecretKey, KeyTypeAsymmetricEncryptionPublicKey:
		return true
	default:
		return false
	}
}

// IsKeyPair reports whether kt denotes a combined key pair (both halves present).
func (kt KeyType) IsKeyPair() bool {
	return kt == KeyTypeAsymmetricSignatureKeyPair || kt == KeyTypeAsymmetricEncryptionKeyPair
}

// IsPublic reports whether kt denotes a public-only half.
func (kt KeyType) IsPublic() bool {
	return kt == KeyTypeAsymmetricSignaturePublicKey || kt == KeyTypeAsymmetricEncryptionPublicKey
}

// IsSecret reports whether kt denotes a private/secret-only half.
func (kt KeyType) IsSecret() bool {
	return kt == KeyTypeAsymmetricSignatureSecretKey || kt == KeyTypeAsymmetricEncryptionSecretKey
}

// IsAuthentication reports whether kt is used for MAC/short-hash authentication.
func (kt KeyType) IsAuthentication() bool {
	return kt == KeyTypeSymmetricAuthentication
}

// IsSignature reports whether kt is any half of a signature key.
func (kt KeyType) IsSignature() bool {
	switch kt {
	case KeyTypeAsymmetricSignatureKeyPair, KeyTypeAsymmetricSignatureSecretKey, KeyTypeAsymmetricSignaturePublicKey:
		return true
	default:
		return false
	}
}

// publicHalf and secretHalf return the split KeyType of a key pair, used by
// KeyFactory.Split. ok is false if kt is not a key pair type.
func (kt KeyType) publicHalf() (KeyType, bool) {
	switch kt {
	case KeyTypeAsymmetricSignatureKeyPair:
		return KeyTypeAsymmetricSignaturePublicKey, true
	case KeyTypeAsymmetricEncryptionKeyPair:
		return KeyTypeAsymmetricEncryptionPublicKey, true
	default:
		return KeyTypeUnknown, false
	}
}

func (kt KeyType) secretHalf() (KeyType, bool) {
	switch kt {
	case KeyTypeAsymmetricSignatureKeyPair:
		return KeyTypeAsymmetricSignatureSecretKey, true
	case KeyTypeAsymmetricEncryptionKeyPair:
		return KeyTypeAsymmetricEncryptionSecretKey, true
	default:
		return KeyTypeUnknown, false
	}
}
