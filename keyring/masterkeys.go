package keyring

import (
	"fmt"

	"github.com/duskvault/keyring/crypto"
)

// masterKeyNames is the default set of names MasterKeyProvider loads at
// bootstrap.
var masterKeyNames = []string{"encryption", "signature_key_pair", "signature_secret_key", "signature_public_key"}

// MasterKeys is the root-of-trust key collection required to be complete
// before any keyring operation: exactly one
// SymmetricEncryption key, and either one AsymmetricSignatureKeyPair or both
// halves of one.
type MasterKeys struct {
	encryption       crypto.Key
	signatureKeyPair *crypto.Key
	signatureSecret  *crypto.Key
	signaturePublic  *crypto.Key
}

// GetEncryption returns the keyring-confidentiality key.
func (m MasterKeys) GetEncryption() crypto.Key { return m.encryption }

// GetSignatureKeyPair returns the combined signature key pair, if one was
// supplied, and whether it is present.
func (m MasterKeys) GetSignatureKeyPair() (crypto.Key, bool) {
	if m.signatureKeyPair == nil {
		return crypto.Key{}, false
	}
	return *m.signatureKeyPair, true
}

// HasSignatureKeyPair reports whether a combined key pair (rather than
// separate halves) backs signing.
func (m MasterKeys) HasSignatureKeyPair() bool { return m.signatureKeyPair != nil }

// GetSignatureSecret returns the signing secret key, splitting it from the
// combined pair via factory if only a pair was supplied.
func (m MasterKeys) GetSignatureSecret(factory crypto.KeyFactory) (crypto.Key, error) {
	if m.signatureSecret != nil {
		return *m.signatureSecret, nil
	}
	_, secret, err := factory.Split(*m.signatureKeyPair)
	return secret, err
}

// GetSignaturePublic returns the signing public key, splitting it from the
// combined pair via factory if only a pair was supplied.
func (m MasterKeys) GetSignaturePublic(factory crypto.KeyFactory) (crypto.Key, error) {
	if m.signaturePublic != nil {
		return *m.signaturePublic, nil
	}
	public, _, err := factory.Split(*m.signatureKeyPair)
	return public, err
}

// validate enforces MasterKeys completeness.
func (m MasterKeys) validate() error {
	if m.encryption.Type != crypto.KeyTypeSymmetricEncryption {
		return fmt.Errorf("%w: symmetric encryption key", ErrMissingMasterKey)
	}
	if m.signatureKeyPair != nil {
		return nil
	}
	if m.signatureSecret == nil || m.signaturePublic == nil {
		return fmt.Errorf("%w: signature key pair or both secret+public halves", ErrMissingMasterKey)
	}
	return nil
}

// MasterKeyProvider loads and classifies MasterKeys from a KeyStorage at
// bootstrap, ignoring entries that fail to resolve, then validates
// completeness. It is immutable after construction.
type MasterKeyProvider struct {
	keys MasterKeys
}

// NewMasterKeyProvider loads masterKeyNames through storage and validates completeness.
func NewMasterKeyProvider(storage crypto.KeyStorage) (*MasterKeyProvider, error) {
	var keys MasterKeys

	for _, name := range masterKeyNames {
		raw, err := storage.Import(name)
		if err != nil || raw == nil {
			continue
		}
		k, err := storage.Resolve(raw)
		if err != nil {
			continue
		}
		switch k.Type {
		case crypto.KeyTypeSymmetricEncryption:
			keys.encryption = k
		case crypto.KeyTypeAsymmetricSignatureKeyPair:
			kk := k
			keys.signatureKeyPair = &kk
		case crypto.KeyTypeAsymmetricSignatureSecretKey:
			kk := k
			keys.signatureSecret = &kk
		case crypto.KeyTypeAsymmetricSignaturePublicKey:
			kk := k
			keys.signaturePublic = &kk
		}
	}

	if err := keys.validate(); err != nil {
		return nil, err
	}
	return &MasterKeyProvider{keys: keys}, nil
}

// Keys returns the loaded, validated MasterKeys.
func (p *MasterKeyProvider) Keys() MasterKeys { return p.keys }
