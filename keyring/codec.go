package keyring

import (
	"crypto/subtle"
	"fmt"
	"os"

	"github.com/duskvault/keyring/crypto"
)

const (
	checksumSidecarLen = 2 * crypto.EncodedLen // 176 bytes: 88 checksum + 88 signature
	keyringFilePerm    = 0600
)

// KeyringCodec implements the keyring persistence protocol: encrypt-then-sign
// on save, verify-then-decrypt-then-authorize on load.
type KeyringCodec struct {
	engine  crypto.EncryptionEngine
	factory crypto.KeyFactory
}

// NewKeyringCodec returns a KeyringCodec backed by engine.
func NewKeyringCodec(engine crypto.EncryptionEngine) KeyringCodec {
	return KeyringCodec{engine: engine, factory: crypto.NewKeyFactory()}
}

// Save locks kr (if not already locked) under authKey, serializes, encrypts
// under master's encryption key, writes the ciphertext to keyringPath, then
// computes and writes a checksum+signature sidecar to checksumPath.
func (c KeyringCodec) Save(kr *Keyring, master MasterKeys, authKey crypto.Key, keyringPath, checksumPath string) error {
	authKeyBytes, err := authKey.Bytes()
	if err != nil {
		return fmt.Errorf("%w: auth key: %v", ErrInvalidAuthenticationKey, err)
	}
	defer crypto.Zeroize(authKeyBytes)

	if !kr.IsLocked() {
		mac, err := c.engine.Authenticate(kr.UniqueID(), authKeyBytes)
		if err != nil {
			return fmt.Errorf("save: computing lock mac: %w", err)
		}
		if err := kr.Lock(mac); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	serialized, err := kr.serialize()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	encKeyBytes, err := master.GetEncryption().Bytes()
	if err != nil {
		return fmt.Errorf("save: encryption key: %w", err)
	}
	defer crypto.Zeroize(encKeyBytes)

	ciphertext, err := c.engine.Encrypt(serialized, encKeyBytes)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	if err := os.WriteFile(keyringPath, ciphertext, keyringFilePerm); err != nil {
		return fmt.Errorf("%w: writing keyring file: %v", ErrStorageUnavailable, err)
	}

	signingKeyBytes, err := c.signingSecretBytes(master)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer crypto.Zeroize(signingKeyBytes)

	checksum, err := func() ([]byte, error) {
		f, err := os.Open(keyringPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reopening keyring file for checksum: %v", ErrStorageUnavailable, err)
		}
		defer f.Close()
		return c.engine.Checksum(f)
	}()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	signature, err := func() ([]byte, error) {
		f, err := os.Open(keyringPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reopening keyring file for signature: %v", ErrStorageUnavailable, err)
		}
		defer f.Close()
		return c.engine.Sign(f, signingKeyBytes)
	}()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	sidecar := append(append([]byte{}, checksum...), signature...)
	if err := os.WriteFile(checksumPath, sidecar, keyringFilePerm); err != nil {
		return fmt.Errorf("%w: writing checksum sidecar: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Load verifies the checksum sidecar, verifies the signature, decrypts, and
// authorizes authKey against the resulting keyring's authorized_macs. The
// returned keyring is unlocked under authKey.
func (c KeyringCodec) Load(master MasterKeys, authKey crypto.Key, keyringPath, checksumPath string) (*Keyring, error) {
	sidecar, err := os.ReadFile(checksumPath)
	if os.IsNotExist(err) {
		return nil, ErrIntegrityCheckFailed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading checksum sidecar: %v", ErrStorageUnavailable, err)
	}
	if len(sidecar) != checksumSidecarLen {
		return nil, ErrInvalidChecksumFormat
	}
	storedChecksum, storedSignature := sidecar[:crypto.EncodedLen], sidecar[crypto.EncodedLen:]

	computed, err := func() ([]byte, error) {
		f, err := os.Open(keyringPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return c.engine.Checksum(f)
	}()
	if err != nil {
		return nil, fmt.Errorf("%w: reading keyring file: %v", ErrStorageUnavailable, err)
	}
	if subtle.ConstantTimeCompare(computed, storedChecksum) != 1 {
		return nil, ErrIntegrityCheckFailed
	}

	publicKeyBytes, err := c.signingPublicBytes(master)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer crypto.Zeroize(publicKeyBytes)

	sigOK, err := func() (bool, error) {
		f, err := os.Open(keyringPath)
		if err != nil {
			return false, err
		}
		defer f.Close()
		return c.engine.VerifySignature(f, publicKeyBytes, storedSignature)
	}()
	if err != nil {
		return nil, fmt.Errorf("%w: reading keyring file: %v", ErrStorageUnavailable, err)
	}
	if !sigOK {
		return nil, ErrIntegrityCheckFailed
	}

	ciphertext, err := os.ReadFile(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading keyring file: %v", ErrStorageUnavailable, err)
	}

	encKeyBytes, err := master.GetEncryption().Bytes()
	if err != nil {
		return nil, fmt.Errorf("load: encryption key: %w", err)
	}
	defer crypto.Zeroize(encKeyBytes)

	plaintext, err := c.engine.Decrypt(ciphertext, encKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	kr, err := deserializeKeyring(plaintext)
	if err != nil {
		return nil, err
	}

	authKeyBytes, err := authKey.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: auth key: %v", ErrInvalidAuthenticationKey, err)
	}
	defer crypto.Zeroize(authKeyBytes)

	mac, err := c.engine.Authenticate(kr.UniqueID(), authKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if !c.engine.Verify(kr.UniqueID(), authKeyBytes, mac) || !kr.authorizedContains(mac) {
		return nil, ErrUnauthorizedKeyring
	}
	if err := kr.Unlock(mac); err != nil {
		return nil, err
	}

	return kr, nil
}

func (c KeyringCodec) signingSecretBytes(master MasterKeys) ([]byte, error) {
	secret, err := master.GetSignatureSecret(c.factory)
	if err != nil {
		return nil, fmt.Errorf("signing secret key: %w", err)
	}
	return secret.Bytes()
}

func (c KeyringCodec) signingPublicBytes(master MasterKeys) ([]byte, error) {
	public, err := master.GetSignaturePublic(c.factory)
	if err != nil {
		return nil, fmt.Errorf("signing public key: %w", err)
	}
	return public.Bytes()
}
