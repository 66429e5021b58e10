package crypto

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// SensitiveString is a string that redacts itself under every standard
// formatting verb, so key material never leaks through an accidental
// fmt.Printf("%+v", ...) or a logger that stringifies its arguments.
type SensitiveString string

const redacted = "<redacted>"

// String implements fmt.Stringer.
func (SensitiveString) String() string { return redacted }

// GoString implements fmt.GoStringer (used by "%#v").
func (SensitiveString) GoString() string { return redacted }

// Format implements fmt.Formatter so every verb (%s, %v, %q, %x, ...) redacts.
func (s SensitiveString) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(redacted))
}

// Reveal returns the underlying value. Callers must not log or print the
// result; it exists only for handing material to the EncryptionEngine/KeyFactory.
func (s SensitiveString) Reveal() string { return string(s) }

// Key is an immutable bearer of hex-encoded key material plus the metadata
// needed to interpret it: its purpose (Type) and its concrete backing
// primitive (Adapter), and a free-form Version string for key-rotation
// bookkeeping. Ownership: created by KeyFactory or by deserialization;
// thereafter shared read-only. No method exposes raw bytes except via
// KeyFactory's engine-scoped conversion.
type Key struct {
	material SensitiveString
	Type     KeyType
	Adapter  Algorithm
	Version  string
}

// NewKey constructs a Key from hex-encoded material. Returns ErrInvalidKeyType
// if typ does not name a recognized KeyType.
func NewKey(material string, typ KeyType, adapter Algorithm, version string) (Key, error) {
	if !typ.IsValid() {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKeyType, typ)
	}
	if _, err := hex.DecodeString(material); err != nil {
		return Key{}, fmt.Errorf("%w: material is not valid hex: %v", ErrInvalidKeyType, err)
	}
	return Key{
		material: SensitiveString(material),
		Type:     typ,
		Adapter:  adapter,
		Version:  version,
	}, nil
}

// Material returns the hex-encoded key material as a SensitiveString. The
// caller must call .Reveal() explicitly to obtain the plaintext hex, which
// keeps accidental logging of the value a compile-visible act.
func (k Key) Material() SensitiveString { return k.material }

// Bytes decodes the key's hex material into raw bytes. Callers that hold
// onto the result are responsible for zeroizing it with crypto.Zeroize
// when done.
func (k Key) Bytes() ([]byte, error) {
	b, err := hex.DecodeString(string(k.material))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToLoadKey, err)
	}
	return b, nil
}

// IsSymmetric, IsAsymmetric, IsKeyPair, IsPublic, IsSecret, IsAuthentication
// delegate to the Key's KeyType.
func (k Key) IsSymmetric() bool      { return k.Type.IsSymmetric() }
func (k Key) IsAsymmetric() bool     { return k.Type.IsAsymmetric() }
func (k Key) IsKeyPair() bool        { return k.Type.IsKeyPair() }
func (k Key) IsPublic() bool         { return k.Type.IsPublic() }
func (k Key) IsSecret() bool         { return k.Type.IsSecret() }
func (k Key) IsAuthentication() bool { return k.Type.IsAuthentication() }

// Equal compares two keys by value, using a constant-time comparison for the
// material so key equality checks cannot be used as an oracle.
func (k Key) Equal(other Key) bool {
	if k.Type != other.Type || k.Adapter != other.Adapter || k.Version != other.Version {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(k.material), []byte(other.material)) == 1
}

// record is the four-field on-wire shape shared by the KeyStorage backends
// in this package: the env-file JSON value, the file-per-key text format,
// and the keychain text entry.
type record struct {
	Hex     string `json:"hex"`
	Type    string `json:"type"`
	Adapter string `json:"adapter"`
	Version string `json:"version"`
}

func keyToRecord(k Key) record {
	return record{
		Hex:     k.material.Reveal(),
		Type:    string(k.Type),
		Adapter: string(k.Adapter),
		Version: k.Version,
	}
}

func recordToKey(r record) (Key, error) {
	return NewKey(r.Hex, KeyType(r.Type), Algorithm(r.Adapter), r.Version)
}

// KeyConfig configures derivation or generation of a Key by KeyFactory. It
// is immutable; With* methods return a modified copy (builder-style withers).
type KeyConfig struct {
	Type          KeyType
	Algorithm     Algorithm
	Password      string
	Salt          []byte
	SecurityLevel int
	AlgorithmID   string
	Version       string
}

// NewKeyConfig returns a config for generating (not deriving) a key of the given type.
func NewKeyConfig(typ KeyType, algo Algorithm) KeyConfig {
	return KeyConfig{Type: typ, Algorithm: algo, Version: "1"}
}

// WithPassword returns a copy of c with Password set.
func (c KeyConfig) WithPassword(password string) KeyConfig { c.Password = password; return c }

// WithSalt returns a copy of c with Salt set.
func (c KeyConfig) WithSalt(salt []byte) KeyConfig { c.Salt = salt; return c }

// WithSecurityLevel returns a copy of c with SecurityLevel set.
func (c KeyConfig) WithSecurityLevel(level int) KeyConfig { c.SecurityLevel = level; return c }

// WithAlgorithmID returns a copy of c with AlgorithmID set.
func (c KeyConfig) WithAlgorithmID(id string) KeyConfig { c.AlgorithmID = id; return c }

// WithVersion returns a copy of c with Version set.
func (c KeyConfig) WithVersion(version string) KeyConfig { c.Version = version; return c }

// isDerivation reports whether every derivation field is present, meaning
// KeyFactory.Generate should derive deterministically from Password rather
// than draw from the random source.
func (c KeyConfig) isDerivation() bool {
	return c.Password != "" && len(c.Salt) > 0 && c.SecurityLevel > 0 && c.AlgorithmID != ""
}
