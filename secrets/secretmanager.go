package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/duskvault/keyring/crypto"
	"github.com/duskvault/keyring/keyring"
	"github.com/rs/zerolog"
)

// dekRecord is the wire shape of an encrypted data-encryption-key, identical
// to a Key record.
type dekRecord struct {
	Hex     string `json:"hex"`
	Type    string `json:"type"`
	Adapter string `json:"adapter"`
	Version string `json:"version"`
}

// SecretManager implements envelope encryption and SHM lookup over a
// KeyManager's vaults. Not safe for concurrent use.
type SecretManager struct {
	manager *keyring.KeyManager
	adapter VaultAdapter
	logger  zerolog.Logger
}

// SecretManagerOption configures a SecretManager at construction.
type SecretManagerOption func(*SecretManager)

// WithLogger overrides the default no-op logger.
func WithLogger(logger zerolog.Logger) SecretManagerOption {
	return func(s *SecretManager) { s.logger = logger }
}

// NewSecretManager returns a SecretManager backed by manager's vaults and
// persisting secrets through adapter.
func NewSecretManager(manager *keyring.KeyManager, adapter VaultAdapter, opts ...SecretManagerOption) *SecretManager {
	s := &SecretManager{manager: manager, adapter: adapter, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewVault unlocks the keyring, generates and stores kms_key and cache_key,
// splits cache_key into cache_key_l/r halves stored as metadata, and saves
// the keyring.
func (s *SecretManager) NewVault(authKey crypto.Key, vault string) error {
	if err := s.manager.UnlockKeyring(authKey); err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}

	if _, err := s.manager.NewKey(vault, "kms_key", crypto.NewKeyConfig(crypto.KeyTypeSymmetricEncryption, crypto.AlgorithmXChaCha20Poly1305)); err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}

	cacheKey, err := s.manager.NewKey(vault, "cache_key", crypto.NewKeyConfig(crypto.KeyTypeSymmetricAuthentication, crypto.AlgorithmBlake2bMAC))
	if err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}

	raw, err := cacheKey.Bytes()
	if err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}
	defer crypto.Zeroize(raw)

	n := s.manager.Engine().ShortHashKeyLen()
	if len(raw) < 2*n {
		return fmt.Errorf("new_vault: cache_key too short to split into two %d-byte halves", n)
	}
	left := append([]byte{}, raw[:n]...)
	right := append([]byte{}, raw[n:2*n]...)

	if err := s.manager.AddMetadata(vault, "cache_key_l", left); err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}
	if err := s.manager.AddMetadata(vault, "cache_key_r", right); err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}

	if err := s.manager.SaveKeyring(authKey); err != nil {
		return fmt.Errorf("new_vault: %w", err)
	}
	s.logger.Debug().Str("operation", "new_vault").Str("vault", vault).Msg("created vault")
	return nil
}

// shm computes the lookup id for (vault, key): base64url(shorthash(v‖k,
// cache_key_l) ‖ shorthash(v‖k, cache_key_r)).
func (s *SecretManager) shm(vault, key string) (string, error) {
	left, ok, err := s.manager.GetMetadata(vault, "cache_key_l")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: vault %q", ErrVaultNotInitialized, vault)
	}
	right, ok, err := s.manager.GetMetadata(vault, "cache_key_r")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: vault %q", ErrVaultNotInitialized, vault)
	}

	msg := append([]byte(vault), []byte(key)...)
	engine := s.manager.Engine()
	h1, err := engine.ShortHash(msg, left)
	if err != nil {
		return "", fmt.Errorf("shm: %w", err)
	}
	h2, err := engine.ShortHash(msg, right)
	if err != nil {
		return "", fmt.Errorf("shm: %w", err)
	}
	return base64.URLEncoding.EncodeToString(append(h1, h2...)), nil
}

// encryptSecret builds a Secret record from plaintext payload under kmsKey
// and a fresh per-secret DEK, MAC-prefixing payload under authKey first.
func (s *SecretManager) encryptSecret(shmID string, payload []byte, kmsKey, authKey crypto.Key) (Secret, error) {
	engine := s.manager.Engine()
	factory := s.manager.Factory()

	authKeyBytes, err := authKey.Bytes()
	if err != nil {
		return Secret{}, fmt.Errorf("auth key: %w", err)
	}
	defer crypto.Zeroize(authKeyBytes)

	mac, err := engine.Authenticate(payload, authKeyBytes)
	if err != nil {
		return Secret{}, err
	}
	authed := append(append([]byte{}, mac...), payload...)

	dek, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeSymmetricEncryption, crypto.AlgorithmXChaCha20Poly1305))
	if err != nil {
		return Secret{}, fmt.Errorf("generating dek: %w", err)
	}
	dekBytes, err := dek.Bytes()
	if err != nil {
		return Secret{}, err
	}
	defer crypto.Zeroize(dekBytes)

	encryptedValue, err := engine.Encrypt(authed, dekBytes)
	if err != nil {
		return Secret{}, err
	}

	kmsKeyBytes, err := kmsKey.Bytes()
	if err != nil {
		return Secret{}, fmt.Errorf("kms key: %w", err)
	}
	defer crypto.Zeroize(kmsKeyBytes)

	recBytes, err := json.Marshal(dekRecord{
		Hex:     dek.Material().Reveal(),
		Type:    string(dek.Type),
		Adapter: string(dek.Adapter),
		Version: dek.Version,
	})
	if err != nil {
		return Secret{}, err
	}
	encryptedDek, err := engine.Encrypt(recBytes, kmsKeyBytes)
	if err != nil {
		return Secret{}, err
	}

	return Secret{UniqueID: shmID, Key: encryptedDek, Value: encryptedValue, Encrypted: true}, nil
}

// decryptSecret recovers the verified plaintext payload from secret, using
// kmsKey to unwrap the per-secret DEK and authKey to verify the MAC prefix.
func (s *SecretManager) decryptSecret(secret Secret, kmsKey, authKey crypto.Key) ([]byte, error) {
	if !secret.Encrypted {
		return secret.Value, nil
	}
	engine := s.manager.Engine()

	kmsKeyBytes, err := kmsKey.Bytes()
	if err != nil {
		return nil, fmt.Errorf("kms key: %w", err)
	}
	defer crypto.Zeroize(kmsKeyBytes)

	recBytes, err := engine.Decrypt(secret.Key, kmsKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("unwrapping dek: %w", err)
	}
	var rec dekRecord
	if err := json.Unmarshal(recBytes, &rec); err != nil {
		return nil, fmt.Errorf("decoding dek record: %w", err)
	}
	dek, err := crypto.NewKey(rec.Hex, crypto.KeyType(rec.Type), crypto.Algorithm(rec.Adapter), rec.Version)
	if err != nil {
		return nil, fmt.Errorf("rebuilding dek: %w", err)
	}
	dekBytes, err := dek.Bytes()
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(dekBytes)

	authed, err := engine.Decrypt(secret.Value, dekBytes)
	if err != nil {
		return nil, fmt.Errorf("decrypting value: %w", err)
	}

	macLen := engine.MacLen()
	if len(authed) < macLen {
		return nil, ErrSecretVerificationFailed
	}
	mac, payload := authed[:macLen], authed[macLen:]

	authKeyBytes, err := authKey.Bytes()
	if err != nil {
		return nil, fmt.Errorf("auth key: %w", err)
	}
	defer crypto.Zeroize(authKeyBytes)

	if !engine.Verify(payload, authKeyBytes, mac) {
		return nil, ErrSecretVerificationFailed
	}
	return payload, nil
}

// Set serializes value, authenticates and encrypts it under a fresh DEK,
// wraps the DEK under the vault's kms_key, and stores the result at key's
// SHM.
func Set[T any](ctx context.Context, s *SecretManager, authKey crypto.Key, vault, key string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("set: serializing value: %w", err)
	}

	kmsKey, ok, err := s.manager.GetKey(vault, "kms_key")
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: vault %q", ErrVaultNotInitialized, vault)
	}

	shmID, err := s.shm(vault, key)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	secret, err := s.encryptSecret(shmID, payload, kmsKey, authKey)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	if err := s.adapter.PutSecret(ctx, secret, PutOptions{Vault: vault}); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	s.logger.Debug().Str("operation", "set").Str("vault", vault).Str("keyName", key).Msg("stored secret")
	return nil
}

// Get looks up the SHM, unwraps the DEK under kms_key, decrypts, and
// verifies the MAC prefix before deserializing.
func Get[T any](ctx context.Context, s *SecretManager, authKey crypto.Key, vault, key string) (T, error) {
	var zero T

	shmID, err := s.shm(vault, key)
	if err != nil {
		return zero, fmt.Errorf("get: %w", err)
	}

	secret, err := s.adapter.GetSecret(ctx, shmID, PutOptions{Vault: vault})
	if err != nil {
		return zero, err
	}

	var payload []byte
	if secret.Encrypted {
		kmsKey, ok, err := s.manager.GetKey(vault, "kms_key")
		if err != nil {
			return zero, fmt.Errorf("get: %w", err)
		}
		if !ok {
			return zero, fmt.Errorf("%w: vault %q", ErrVaultNotInitialized, vault)
		}
		payload, err = s.decryptSecret(secret, kmsKey, authKey)
		if err != nil {
			return zero, fmt.Errorf("get: %w", err)
		}
	} else {
		payload = secret.Value
	}

	if err := json.Unmarshal(payload, &zero); err != nil {
		return zero, fmt.Errorf("get: %w", err)
	}
	s.logger.Debug().Str("operation", "get").Str("vault", vault).Str("keyName", key).Msg("retrieved secret")
	return zero, nil
}

// Delete fetches the secret, then removes it via the adapter.
func (s *SecretManager) Delete(ctx context.Context, vault, key string) error {
	shmID, err := s.shm(vault, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	secret, err := s.adapter.GetSecret(ctx, shmID, PutOptions{Vault: vault})
	if err != nil {
		return err
	}
	if err := s.adapter.DeleteSecret(ctx, secret, PutOptions{Vault: vault}); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	s.logger.Debug().Str("operation", "delete").Str("vault", vault).Str("keyName", key).Msg("deleted secret")
	return nil
}

// RotateSecrets rotates the vault's kms_key, then re-encrypts each named
// secret under the new key using the old key to read it first. A missing
// secret is skipped; any other failure rolls the keyring back to its
// pre-rotation snapshot.
func (s *SecretManager) RotateSecrets(ctx context.Context, authKey crypto.Key, vault string, names []string) (bool, error) {
	snap, err := s.manager.Snapshot()
	if err != nil {
		return false, fmt.Errorf("rotate_secrets: %w", err)
	}

	oldKms, ok, err := s.manager.GetKey(vault, "kms_key")
	if err != nil {
		return false, fmt.Errorf("rotate_secrets: %w", err)
	}
	if !ok {
		return false, fmt.Errorf("%w: vault %q", ErrVaultNotInitialized, vault)
	}

	rotated, err := s.manager.RotateKeys(vault, []string{"kms_key"})
	if err != nil {
		return false, fmt.Errorf("rotate_secrets: %w", err)
	}
	if !rotated {
		return false, fmt.Errorf("rotate_secrets: %w", keyring.ErrRotationFailed)
	}

	newKms, ok, err := s.manager.GetKey(vault, "kms_key")
	if err != nil || !ok {
		return false, s.rollback(snap, fmt.Errorf("kms_key missing after rotation"))
	}

	for _, name := range names {
		shmID, err := s.shm(vault, name)
		if err != nil {
			return false, s.rollback(snap, err)
		}

		secret, err := s.adapter.GetSecret(ctx, shmID, PutOptions{Vault: vault})
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return false, s.rollback(snap, err)
		}

		payload, err := s.decryptSecret(secret, oldKms, authKey)
		if err != nil {
			return false, s.rollback(snap, err)
		}

		fresh, err := s.encryptSecret(shmID, payload, newKms, authKey)
		if err != nil {
			return false, s.rollback(snap, err)
		}

		if err := s.adapter.PutSecret(ctx, fresh, PutOptions{Vault: vault}); err != nil {
			return false, s.rollback(snap, err)
		}
	}

	if err := s.manager.SaveKeyring(authKey); err != nil {
		return false, s.rollback(snap, err)
	}

	s.logger.Debug().Str("operation", "rotate_secrets").Str("vault", vault).Msg("rotated secrets")
	return true, nil
}

func (s *SecretManager) rollback(snap keyring.KeyringSnapshot, cause error) error {
	_ = s.manager.Restore(snap)
	return fmt.Errorf("rotate_secrets: %w", cause)
}
