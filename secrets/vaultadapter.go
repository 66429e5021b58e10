package secrets

import "context"

// Secret is the on-wire record a VaultAdapter persists: key is the
// encrypted DEK record, value is the encrypted and MAC-prefixed payload.
// When Encrypted is false, Value holds the plain payload.
type Secret struct {
	UniqueID  string            `json:"uniqueId"`
	Key       []byte            `json:"key"`
	Value     []byte            `json:"value"`
	Encrypted bool              `json:"encrypted"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PutOptions carries the vault a Secret belongs to, plus any
// adapter-specific tuning. Every VaultAdapter method takes one so a single
// adapter instance can serve multiple vaults.
type PutOptions struct {
	Vault string
}

// VaultAdapter is the pluggable secret storage port. A missing secret is
// reported as ErrSecretNotFound.
type VaultAdapter interface {
	GetSecret(ctx context.Context, shm string, opts PutOptions) (Secret, error)
	PutSecret(ctx context.Context, secret Secret, opts PutOptions) error
	DeleteSecret(ctx context.Context, secret Secret, opts PutOptions) error
	DeleteSecretByKey(ctx context.Context, shm string, opts PutOptions) error
	DeleteVault(ctx context.Context, opts PutOptions) error
}
