// Package secrets implements envelope-encrypted secret storage on top of a
// keyring: a per-secret data encryption key sealed by a vault-scoped KMS
// key, addressed by a short non-reversible lookup id (SHM), persisted
// through a pluggable VaultAdapter.
package secrets

import "errors"

var (
	// ErrSecretNotFound is returned by a VaultAdapter when no secret exists
	// under the requested lookup id.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretVerificationFailed is returned by Get when the MAC prefix
	// recovered after decryption does not authenticate the remaining bytes.
	ErrSecretVerificationFailed = errors.New("secret verification failed")

	// ErrVaultNotInitialized is returned when an operation needs a vault's
	// kms_key or cache_key halves and one of them is not present on the
	// keyring.
	ErrVaultNotInitialized = errors.New("vault not initialized")
)
