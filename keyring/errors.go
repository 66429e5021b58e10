// Package keyring implements the keyring core: a MAC-gated, in-memory
// vault->key map (Keyring), its encrypt-then-sign persistence protocol
// (KeyringCodec), the bootstrap root-of-trust (MasterKeyProvider), and the
// orchestrating KeyManager.
package keyring

import "errors"

// Configuration errors.
var (
	// ErrMissingMasterKey is returned when MasterKeys fails its completeness
	// check at bootstrap.
	ErrMissingMasterKey = errors.New("missing required master key")
)

// Authentication errors.
var (
	// ErrUnauthorizedMac is returned when a lock/unlock MAC is not present
	// in a Keyring's authorized_macs set.
	ErrUnauthorizedMac = errors.New("mac not authorized for this keyring")

	// ErrInvalidAuthenticationKey is returned when an auth key's material
	// cannot be decoded. The key's Type is not checked.
	ErrInvalidAuthenticationKey = errors.New("invalid authentication key")

	// ErrKeyringAlreadyLoaded is returned by KeyManager.LoadKeyring when a
	// keyring is already resident in memory.
	ErrKeyringAlreadyLoaded = errors.New("keyring already loaded")

	// ErrKeyringNotFound is returned when an operation needs a loaded
	// keyring but none is present.
	ErrKeyringNotFound = errors.New("no keyring loaded")

	// ErrUnauthorizedKeyring is returned by Load when the decrypted
	// keyring's authorized_macs do not admit the supplied auth key.
	ErrUnauthorizedKeyring = errors.New("keyring does not authorize this key")
)

// Integrity errors.
var (
	// ErrInvalidChecksumFormat is returned when the checksum sidecar is not
	// exactly 176 bytes.
	ErrInvalidChecksumFormat = errors.New("invalid checksum sidecar format")

	// ErrIntegrityCheckFailed is returned when the stored checksum or
	// signature does not match the ciphertext file, or the sidecar is
	// missing.
	ErrIntegrityCheckFailed = errors.New("keyring integrity check failed")

	// ErrDecryptionFailed wraps an EncryptionEngine decryption failure
	// during keyring load with operation-level context.
	ErrDecryptionFailed = errors.New("keyring decryption failed")
)

// Storage errors.
var (
	ErrStorageUnavailable  = errors.New("keyring storage unavailable")
	ErrSerializationFailed = errors.New("keyring serialization failed")
)

// Rotation errors.
var (
	// ErrRotationFailed is returned by RotateKeys after it has rolled back
	// every already-rotated entry from the pre-rotation snapshot.
	ErrRotationFailed = errors.New("key rotation failed")
)
