package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// KeyFactory generates keys from a KeyConfig, splits asymmetric pairs into
// their public/secret siblings, and converts between a Key's hex-material
// form and the raw bytes an EncryptionEngine consumes.
type KeyFactory struct{}

// NewKeyFactory returns a KeyFactory. It is stateless and safe for concurrent use.
func NewKeyFactory() KeyFactory { return KeyFactory{} }

// Generate produces a Key per cfg. When cfg carries a full set of derivation
// fields (Password, Salt, SecurityLevel, AlgorithmID) the material is derived
// deterministically via Argon2id; otherwise it is drawn from a CSPRNG.
// secp256k1 signature key pairs are always drawn from the CSPRNG; the
// derivation fields are ignored for them.
func (KeyFactory) Generate(cfg KeyConfig) (Key, error) {
	if !cfg.Type.IsValid() {
		return Key{}, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, cfg.Type)
	}

	switch cfg.Type {
	case KeyTypeSymmetricEncryption, KeyTypeSymmetricAuthentication, KeyTypeHex, KeyTypeRaw:
		raw, err := materialFor(cfg, symmetricKeyLen)
		if err != nil {
			return Key{}, err
		}
		return NewKey(hex.EncodeToString(raw), cfg.Type, cfg.Algorithm, cfg.Version)

	case KeyTypeAsymmetricSignatureKeyPair:
		return generateSignatureKeyPair(cfg)

	case KeyTypeAsymmetricEncryptionKeyPair:
		raw, err := materialFor(cfg, symmetricKeyLen)
		if err != nil {
			return Key{}, err
		}
		return NewKey(hex.EncodeToString(raw), cfg.Type, cfg.Algorithm, cfg.Version)

	default:
		return Key{}, fmt.Errorf("%w: cannot generate %q directly", ErrUnsupportedKeyType, cfg.Type)
	}
}

func generateSignatureKeyPair(cfg KeyConfig) (Key, error) {
	switch cfg.Algorithm {
	case AlgorithmSecp256k1:
		priv, pub, err := generateSecp256k1KeyPair()
		if err != nil {
			return Key{}, err
		}
		defer Zeroize(priv)
		material := append(append([]byte{}, priv...), pub...)
		defer Zeroize(material)
		return NewKey(hex.EncodeToString(material), cfg.Type, cfg.Algorithm, cfg.Version)

	case AlgorithmEd25519, AlgorithmUnknown, "":
		var seed [ed25519.SeedSize]byte
		if cfg.isDerivation() {
			derived := argon2.IDKey([]byte(cfg.Password), cfg.Salt, uint32(cfg.SecurityLevel), 64*1024, 4, ed25519.SeedSize)
			copy(seed[:], derived)
			Zeroize(derived)
		} else if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
			return Key{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		privKey := ed25519.NewKeyFromSeed(seed[:])
		Zeroize(seed[:])
		material := []byte(privKey) // 64 bytes: seed || public key, per ed25519.PrivateKey layout
		algo := cfg.Algorithm
		if algo == "" {
			algo = AlgorithmEd25519
		}
		return NewKey(hex.EncodeToString(material), cfg.Type, algo, cfg.Version)

	default:
		return Key{}, fmt.Errorf("%w: signature key pair algorithm %q", ErrUnsupportedKeyType, cfg.Algorithm)
	}
}

// materialFor returns n random bytes, or an Argon2id derivation when cfg
// requests one.
func materialFor(cfg KeyConfig, n int) ([]byte, error) {
	if cfg.isDerivation() {
		return argon2.IDKey([]byte(cfg.Password), cfg.Salt, uint32(cfg.SecurityLevel), 64*1024, 4, uint32(n)), nil
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return raw, nil
}

// Split decomposes an asymmetric key-pair Key into its public and secret
// siblings. Returns ErrNotAKeyPair if k.Type is not a key-pair type.
func (KeyFactory) Split(k Key) (public, secret Key, err error) {
	pubType, ok := k.Type.publicHalf()
	if !ok {
		return Key{}, Key{}, fmt.Errorf("%w: %q", ErrNotAKeyPair, k.Type)
	}
	secretType, _ := k.Type.secretHalf()

	raw, err := k.Bytes()
	if err != nil {
		return Key{}, Key{}, err
	}
	defer Zeroize(raw)

	switch k.Type {
	case KeyTypeAsymmetricSignatureKeyPair:
		switch k.Adapter {
		case AlgorithmSecp256k1:
			if len(raw) != secp256k1PrivLen+secp256k1PubLen {
				return Key{}, Key{}, fmt.Errorf("%w: malformed secp256k1 key pair material", ErrNotAKeyPair)
			}
			priv, pub := raw[:secp256k1PrivLen], raw[secp256k1PrivLen:]
			public, err = NewKey(hex.EncodeToString(pub), pubType, k.Adapter, k.Version)
			if err != nil {
				return Key{}, Key{}, err
			}
			secret, err = NewKey(hex.EncodeToString(priv), secretType, k.Adapter, k.Version)
			return public, secret, err

		case AlgorithmEd25519, AlgorithmUnknown, "":
			if len(raw) != ed25519PrivLen {
				return Key{}, Key{}, fmt.Errorf("%w: malformed ed25519 key pair material", ErrNotAKeyPair)
			}
			pub := raw[32:]
			public, err = NewKey(hex.EncodeToString(pub), pubType, k.Adapter, k.Version)
			if err != nil {
				return Key{}, Key{}, err
			}
			secret, err = NewKey(hex.EncodeToString(raw), secretType, k.Adapter, k.Version)
			return public, secret, err

		default:
			return Key{}, Key{}, fmt.Errorf("%w: signature algorithm %q", ErrUnsupportedKeyType, k.Adapter)
		}

	case KeyTypeAsymmetricEncryptionKeyPair:
		// Sealing key pairs are not generated by this module; splitting one
		// constructed out-of-band is not supported.
		return Key{}, Key{}, fmt.Errorf("%w: asymmetric encryption key pairs are not splittable by this factory", ErrUnsupportedKeyType)

	default:
		return Key{}, Key{}, fmt.Errorf("%w: %q", ErrNotAKeyPair, k.Type)
	}
}

// ToEngineForm returns the raw bytes an EncryptionEngine expects for k,
// decoding its hex material. This is the only sanctioned way to obtain raw
// key bytes outside the factory itself.
func (KeyFactory) ToEngineForm(k Key) ([]byte, error) {
	return k.Bytes()
}

// FromEngineForm constructs a Key from raw engine-form bytes, hex-encoding
// them for storage.
func (KeyFactory) FromEngineForm(raw []byte, typ KeyType, adapter Algorithm, version string) (Key, error) {
	return NewKey(hex.EncodeToString(raw), typ, adapter, version)
}
