package crypto

import "errors"

// Configuration errors.
var (
	// ErrInvalidKeyType is returned when a KeyType string does not name a
	// recognized variant.
	ErrInvalidKeyType = errors.New("invalid key type")

	// ErrUnsupportedKeyType is returned when an operation (generation,
	// conversion, splitting) does not support the given KeyType.
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

// KeyStorage errors.
var (
	// ErrKeyStoreNotFound is returned when a key is not found in the store.
	ErrKeyStoreNotFound = errors.New("key not found in store")

	// ErrKeyStoreExists is returned when attempting to store a key that already exists.
	ErrKeyStoreExists = errors.New("key already exists in store")

	// ErrKeyStoreIO is returned for key store I/O errors.
	ErrKeyStoreIO = errors.New("key store I/O error")

	// ErrUnableToLoadKey is returned when present material fails to resolve
	// into a Key (malformed hex, unknown type, wrong length for its algorithm).
	ErrUnableToLoadKey = errors.New("unable to load key")
)

// KeyFactory errors.
var (
	// ErrGenerationFailed is returned when random key generation fails.
	ErrGenerationFailed = errors.New("key generation failed")

	// ErrNotAKeyPair is returned when Split is called on a non-pair KeyType.
	ErrNotAKeyPair = errors.New("key is not a key pair")
)

// EncryptionEngine errors.
var (
	ErrEncryptFailed  = errors.New("encryption failed")
	ErrDecryptFailed  = errors.New("decryption failed")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrSignFailed     = errors.New("signing failed")
	ErrChecksumFailed = errors.New("checksum computation failed")
)
