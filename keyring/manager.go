package keyring

import (
	"fmt"

	"github.com/duskvault/keyring/crypto"
	"github.com/rs/zerolog"
)

// KeyManager orchestrates Keyring, KeyringCodec, and MasterKeyProvider,
// exposing vault/key CRUD and rotation as the library's primary entry point.
// Not safe for concurrent use: callers sharing one KeyManager across
// goroutines must serialize access with a single mutex.
type KeyManager struct {
	engine  crypto.EncryptionEngine
	factory crypto.KeyFactory
	codec   KeyringCodec
	master  MasterKeys

	keyringPath  string
	checksumPath string

	kr     *Keyring
	logger zerolog.Logger
}

// KeyManagerOption configures a KeyManager at construction (functional
// options).
type KeyManagerOption func(*KeyManager)

// WithLogger overrides the default no-op logger.
func WithLogger(logger zerolog.Logger) KeyManagerOption {
	return func(m *KeyManager) { m.logger = logger }
}

// NewKeyManager loads master keys through storage and returns a KeyManager
// with no keyring yet resident; call NewKeyring or LoadKeyring next. path is
// used as the base for the "<path>.keyring"/"<path>.checksum" artifact pair.
func NewKeyManager(engine crypto.EncryptionEngine, storage crypto.KeyStorage, path string, opts ...KeyManagerOption) (*KeyManager, error) {
	provider, err := NewMasterKeyProvider(storage)
	if err != nil {
		return nil, err
	}

	m := &KeyManager{
		engine:       engine,
		factory:      crypto.NewKeyFactory(),
		codec:        NewKeyringCodec(engine),
		master:       provider.Keys(),
		keyringPath:  path + ".keyring",
		checksumPath: path + ".checksum",
		logger:       nopLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewKeyringEntity creates a fresh keyring in memory, authorized by authKey.
// If authKey is nil, a new SymmetricAuthentication key is generated and
// returned so the caller can persist it.
func (m *KeyManager) NewKeyringEntity(authKey *crypto.Key) (crypto.Key, error) {
	var key crypto.Key
	if authKey != nil {
		key = *authKey
	} else {
		generated, err := m.factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeSymmetricAuthentication, crypto.AlgorithmBlake2bMAC))
		if err != nil {
			return crypto.Key{}, fmt.Errorf("new_keyring: %w", err)
		}
		key = generated
	}

	kr, err := New()
	if err != nil {
		return crypto.Key{}, fmt.Errorf("new_keyring: %w", err)
	}

	authKeyBytes, err := key.Bytes()
	if err != nil {
		return crypto.Key{}, fmt.Errorf("%w: %v", ErrInvalidAuthenticationKey, err)
	}
	defer crypto.Zeroize(authKeyBytes)

	mac, err := m.engine.Authenticate(kr.UniqueID(), authKeyBytes)
	if err != nil {
		return crypto.Key{}, fmt.Errorf("new_keyring: %w", err)
	}
	kr.AddAuth(mac)

	m.kr = kr
	m.logger.Debug().Str("operation", "new_keyring").Msg("created keyring")
	return key, nil
}

// LoadKeyring loads a persisted keyring into memory. Fails with ErrKeyringAlreadyLoaded
// if a keyring is already resident.
func (m *KeyManager) LoadKeyring(authKey crypto.Key) error {
	if m.kr != nil {
		return ErrKeyringAlreadyLoaded
	}
	kr, err := m.codec.Load(m.master, authKey, m.keyringPath, m.checksumPath)
	if err != nil {
		m.logger.Error().Err(err).Str("operation", "load_keyring").Msg("failed to load keyring")
		return err
	}
	m.kr = kr
	m.logger.Debug().Str("operation", "load_keyring").Msg("loaded keyring")
	return nil
}

// SaveKeyring persists the resident keyring to disk. Saving locks the
// keyring; a keyring that was unlocked before the save is unlocked again
// afterwards.
func (m *KeyManager) SaveKeyring(authKey crypto.Key) error {
	if m.kr == nil {
		return ErrKeyringNotFound
	}
	wasUnlocked := !m.kr.IsLocked()
	if err := m.codec.Save(m.kr, m.master, authKey, m.keyringPath, m.checksumPath); err != nil {
		m.logger.Error().Err(err).Str("operation", "save_keyring").Msg("failed to save keyring")
		return err
	}
	if wasUnlocked {
		mac, err := m.authMac(authKey)
		if err != nil {
			return err
		}
		if err := m.kr.Unlock(mac); err != nil {
			return err
		}
	}
	m.logger.Debug().Str("operation", "save_keyring").Msg("saved keyring")
	return nil
}

// LockKeyring locks the resident keyring.
func (m *KeyManager) LockKeyring(authKey crypto.Key) error {
	if m.kr == nil {
		return ErrKeyringNotFound
	}
	mac, err := m.authMac(authKey)
	if err != nil {
		return err
	}
	if err := m.kr.Lock(mac); err != nil {
		m.logger.Warn().Err(err).Str("operation", "lock_keyring").Msg("lock denied")
		return err
	}
	return nil
}

// UnlockKeyring unlocks the resident keyring.
func (m *KeyManager) UnlockKeyring(authKey crypto.Key) error {
	if m.kr == nil {
		return ErrKeyringNotFound
	}
	mac, err := m.authMac(authKey)
	if err != nil {
		return err
	}
	if err := m.kr.Unlock(mac); err != nil {
		m.logger.Warn().Err(err).Str("operation", "unlock_keyring").Msg("unlock denied")
		return err
	}
	return nil
}

func (m *KeyManager) authMac(authKey crypto.Key) ([]byte, error) {
	raw, err := authKey.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAuthenticationKey, err)
	}
	defer crypto.Zeroize(raw)
	return m.engine.Authenticate(m.kr.UniqueID(), raw)
}

// AddKey stores key under (vault, name).
func (m *KeyManager) AddKey(vault, name string, key crypto.Key) error {
	if m.kr == nil {
		return ErrKeyringNotFound
	}
	m.kr.AddKey(vault, name, key)
	m.logger.Debug().Str("operation", "add_key").Str("vault", vault).Str("keyName", name).Msg("added key")
	return nil
}

// NewKey generates a key per cfg and stores it under (vault, name).
func (m *KeyManager) NewKey(vault, name string, cfg crypto.KeyConfig) (crypto.Key, error) {
	if m.kr == nil {
		return crypto.Key{}, ErrKeyringNotFound
	}
	key, err := m.factory.Generate(cfg)
	if err != nil {
		return crypto.Key{}, fmt.Errorf("new_key: %w", err)
	}
	m.kr.AddKey(vault, name, key)
	m.logger.Debug().Str("operation", "new_key").Str("vault", vault).Str("keyName", name).Msg("generated key")
	return key, nil
}

// GetKey returns the key stored under (vault, name).
func (m *KeyManager) GetKey(vault, name string) (crypto.Key, bool, error) {
	if m.kr == nil {
		return crypto.Key{}, false, ErrKeyringNotFound
	}
	key, ok := m.kr.GetKey(vault, name)
	return key, ok, nil
}

// AddMetadata stores value under (vault, name)'s metadata.
func (m *KeyManager) AddMetadata(vault, name string, value []byte) error {
	if m.kr == nil {
		return ErrKeyringNotFound
	}
	m.kr.AddMetadata(vault, name, value)
	return nil
}

// GetMetadata returns the metadata value stored under (vault, name).
func (m *KeyManager) GetMetadata(vault, name string) ([]byte, bool, error) {
	if m.kr == nil {
		return nil, false, ErrKeyringNotFound
	}
	val, ok := m.kr.GetMetadata(vault, name)
	return val, ok, nil
}

// RotateKeys regenerates each named key (default
// {"kms_key"}) with its prior type and adapter, rolling back every
// already-rotated entry on any failure. Must fail if the keyring is Locked.
func (m *KeyManager) RotateKeys(vault string, names []string) (bool, error) {
	if m.kr == nil {
		return false, ErrKeyringNotFound
	}
	if m.kr.IsLocked() {
		return false, fmt.Errorf("rotate_keys: keyring is locked: %w", ErrRotationFailed)
	}
	if len(names) == 0 {
		names = []string{"kms_key"}
	}

	snap := m.kr.snapshot()
	for _, name := range names {
		old, ok := m.kr.GetKey(vault, name)
		if !ok {
			m.kr.restore(snap)
			err := fmt.Errorf("%w: key %q not found in vault %q", ErrRotationFailed, name, vault)
			m.logger.Error().Err(err).Str("operation", "rotate_keys").Str("vault", vault).Msg("rotation failed")
			return false, err
		}
		fresh, err := m.factory.Generate(crypto.NewKeyConfig(old.Type, old.Adapter))
		if err != nil {
			m.kr.restore(snap)
			wrapped := fmt.Errorf("%w: %v", ErrRotationFailed, err)
			m.logger.Error().Err(wrapped).Str("operation", "rotate_keys").Str("vault", vault).Msg("rotation failed")
			return false, wrapped
		}
		m.kr.AddKey(vault, name, fresh)
	}
	m.logger.Debug().Str("operation", "rotate_keys").Str("vault", vault).Msg("rotated keys")
	return true, nil
}

// KeyringSnapshot is an opaque capture of a Keyring's vault/mac/lock state,
// for higher-level orchestrators (e.g. a SecretManager rotating keys and
// re-encrypting secrets as one logical operation) that need to roll back
// more than RotateKeys' own internal rollback covers.
type KeyringSnapshot struct {
	snap keyringSnapshot
}

// Snapshot captures the current keyring state for a later Restore.
func (m *KeyManager) Snapshot() (KeyringSnapshot, error) {
	if m.kr == nil {
		return KeyringSnapshot{}, ErrKeyringNotFound
	}
	return KeyringSnapshot{snap: m.kr.snapshot()}, nil
}

// Restore reverts the resident keyring to a previously captured snapshot.
func (m *KeyManager) Restore(s KeyringSnapshot) error {
	if m.kr == nil {
		return ErrKeyringNotFound
	}
	m.kr.restore(s.snap)
	return nil
}

// Entity returns the currently resident Keyring, or nil if none is loaded.
// SecretManager uses this to reach vault/key state directly.
func (m *KeyManager) Entity() *Keyring { return m.kr }

// Engine returns the EncryptionEngine this manager was constructed with.
func (m *KeyManager) Engine() crypto.EncryptionEngine { return m.engine }

// Factory returns the KeyFactory this manager was constructed with.
func (m *KeyManager) Factory() crypto.KeyFactory { return m.factory }
