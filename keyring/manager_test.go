package keyring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duskvault/keyring/crypto"
	"github.com/stretchr/testify/require"
)

func testMasterKeys(t *testing.T) (MasterKeys, crypto.KeyFactory) {
	t.Helper()
	factory := crypto.NewKeyFactory()

	enc, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeSymmetricEncryption, crypto.AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)

	pair, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeAsymmetricSignatureKeyPair, crypto.AlgorithmEd25519))
	require.NoError(t, err)
	pub, sec, err := factory.Split(pair)
	require.NoError(t, err)

	return MasterKeys{
		encryption:      enc,
		signatureSecret: &sec,
		signaturePublic: &pub,
	}, factory
}

func newTestManager(t *testing.T) (*KeyManager, crypto.KeyFactory, string) {
	t.Helper()
	engine := crypto.NewDefaultEngine()
	master, factory := testMasterKeys(t)
	path := filepath.Join(t.TempDir(), "test")

	m := &KeyManager{
		engine:       engine,
		factory:      crypto.NewKeyFactory(),
		codec:        NewKeyringCodec(engine),
		master:       master,
		keyringPath:  path + ".keyring",
		checksumPath: path + ".checksum",
		logger:       nopLogger,
	}
	return m, factory, path
}

func newAuthKey(t *testing.T, factory crypto.KeyFactory) crypto.Key {
	t.Helper()
	key, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeSymmetricAuthentication, crypto.AlgorithmBlake2bMAC))
	require.NoError(t, err)
	return key
}

// Scenario 1: new keyring.
func TestScenario_NewKeyring(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)

	returned, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)
	require.Equal(t, authKey.Material().Reveal(), returned.Material().Reveal())

	require.NotNil(t, m.kr)
	require.Len(t, m.kr.UniqueID(), 64)
	require.Len(t, m.kr.authorizedMacs, 1)
}

// Scenario 2: save/load round-trip with the literal fixture.
func TestScenario_SaveLoadRoundTrip(t *testing.T) {
	m, factory, path := newTestManager(t)
	authKey := newAuthKey(t, factory)

	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)

	const hexMaterial = "901b3ecc000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e7d78"
	encKey, err := crypto.NewKey(hexMaterial, crypto.KeyTypeSymmetricEncryption, crypto.AlgorithmXChaCha20Poly1305, "1")
	require.NoError(t, err)
	require.NoError(t, m.AddKey("my_secrets", "encryption_key", encKey))
	require.NoError(t, m.AddMetadata("my_secrets", "access_pin", []byte("12345")))

	require.NoError(t, m.SaveKeyring(authKey))

	// Fresh manager, same on-disk artifacts and master keys.
	m2 := &KeyManager{
		engine:       m.engine,
		factory:      crypto.NewKeyFactory(),
		codec:        NewKeyringCodec(m.engine),
		master:       m.master,
		keyringPath:  path + ".keyring",
		checksumPath: path + ".checksum",
		logger:       nopLogger,
	}
	require.NoError(t, m2.LoadKeyring(authKey))

	got, ok, err := m2.GetKey("my_secrets", "encryption_key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hexMaterial, got.Material().Reveal())

	meta, ok, err := m2.GetMetadata("my_secrets", "access_pin")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "12345", string(meta))

	require.Equal(t, m.kr.UniqueID(), m2.kr.UniqueID())
}

// Scenario 3: locked-write ignored, then succeeds after unlock.
func TestScenario_LockedWriteIgnored(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)

	pair, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeAsymmetricSignatureKeyPair, crypto.AlgorithmEd25519))
	require.NoError(t, err)
	pub, _, err := factory.Split(pair)
	require.NoError(t, err)

	require.NoError(t, m.LockKeyring(authKey))
	require.NoError(t, m.AddKey("my_secrets", "public_key", pub))

	// GetKey itself returns zero/false while Locked (Keyring reads are gated too).
	_, ok, err := m.GetKey("my_secrets", "public_key")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.UnlockKeyring(authKey))
	require.NoError(t, m.AddKey("my_secrets", "public_key", pub))

	got, ok, err := m.GetKey("my_secrets", "public_key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pub.Material().Reveal(), got.Material().Reveal())
}

// Scenario 4: tamper detection.
func TestScenario_TamperDetection(t *testing.T) {
	m, factory, path := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)
	require.NoError(t, m.SaveKeyring(authKey))

	data, err := os.ReadFile(path + ".keyring")
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path+".keyring", data, 0600))

	m2 := &KeyManager{
		engine:       m.engine,
		factory:      crypto.NewKeyFactory(),
		codec:        NewKeyringCodec(m.engine),
		master:       m.master,
		keyringPath:  path + ".keyring",
		checksumPath: path + ".checksum",
		logger:       nopLogger,
	}
	err = m2.LoadKeyring(authKey)
	require.ErrorIs(t, err, ErrIntegrityCheckFailed)
}

func TestScenario_TamperDetection_Sidecar(t *testing.T) {
	m, factory, path := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)
	require.NoError(t, m.SaveKeyring(authKey))

	data, err := os.ReadFile(path + ".checksum")
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path+".checksum", data, 0600))

	m2 := &KeyManager{
		engine:       m.engine,
		factory:      crypto.NewKeyFactory(),
		codec:        NewKeyringCodec(m.engine),
		master:       m.master,
		keyringPath:  path + ".keyring",
		checksumPath: path + ".checksum",
		logger:       nopLogger,
	}
	err = m2.LoadKeyring(authKey)
	require.ErrorIs(t, err, ErrIntegrityCheckFailed)
}

func TestLoadKeyring_AlreadyLoaded(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)
	require.ErrorIs(t, m.LoadKeyring(authKey), ErrKeyringAlreadyLoaded)
}

func TestLockUnlock_Idempotent(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)

	require.NoError(t, m.LockKeyring(authKey))
	require.NoError(t, m.LockKeyring(authKey)) // no-op, still authorized
	require.NoError(t, m.UnlockKeyring(authKey))
	require.NoError(t, m.UnlockKeyring(authKey)) // no-op
}

func TestLockUnlock_UnauthorizedMac(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)

	other := newAuthKey(t, factory)
	require.ErrorIs(t, m.LockKeyring(other), ErrUnauthorizedMac)
	require.ErrorIs(t, m.UnlockKeyring(other), ErrUnauthorizedMac)
}

func TestRotateKeys_RollsBackOnMissingKey(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)

	kmsKey, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeSymmetricEncryption, crypto.AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)
	require.NoError(t, m.AddKey("classified", "kms_key", kmsKey))

	ok, err := m.RotateKeys("classified", []string{"kms_key", "does_not_exist"})
	require.False(t, ok)
	require.ErrorIs(t, err, ErrRotationFailed)

	// kms_key must be unchanged: rollback restored the pre-rotation snapshot.
	got, present, err := m.GetKey("classified", "kms_key")
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, kmsKey.Material().Reveal(), got.Material().Reveal())
}

func TestRotateKeys_Success(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)

	kmsKey, err := factory.Generate(crypto.NewKeyConfig(crypto.KeyTypeSymmetricEncryption, crypto.AlgorithmXChaCha20Poly1305))
	require.NoError(t, err)
	require.NoError(t, m.AddKey("classified", "kms_key", kmsKey))

	ok, err := m.RotateKeys("classified", nil)
	require.NoError(t, err)
	require.True(t, ok)

	got, present, err := m.GetKey("classified", "kms_key")
	require.NoError(t, err)
	require.True(t, present)
	require.NotEqual(t, kmsKey.Material().Reveal(), got.Material().Reveal())
	require.Equal(t, kmsKey.Type, got.Type)
	require.Equal(t, kmsKey.Adapter, got.Adapter)
}

func TestRotateKeys_FailsWhileLocked(t *testing.T) {
	m, factory, _ := newTestManager(t)
	authKey := newAuthKey(t, factory)
	_, err := m.NewKeyringEntity(&authKey)
	require.NoError(t, err)
	require.NoError(t, m.LockKeyring(authKey))

	ok, err := m.RotateKeys("classified", nil)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrRotationFailed)
}
