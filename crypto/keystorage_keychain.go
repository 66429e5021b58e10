package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keychainKeyPrefix namespaces keyring entries within the service so the
// backend can share an OS keychain service name with unrelated applications.
const keychainKeyPrefix = "key:"

// KeychainKeyStorage implements KeyStorage using the OS-native credential
// store via github.com/zalando/go-keyring: macOS Keychain, Windows Credential
// Manager, or Linux Secret Service. The record is stored as the plain-text
// four-line form used by FileKeyStorage; the keychain itself supplies
// confidentiality at rest.
type KeychainKeyStorage struct {
	service string
}

var _ KeyStorage = KeychainKeyStorage{}

// ErrKeychainUnavailable is returned when the OS keychain cannot be reached
// (no D-Bus secret service on Linux, headless session, etc).
var ErrKeychainUnavailable = errors.New("OS keychain unavailable")

// NewKeychainKeyStorage returns a KeychainKeyStorage under service,
// verifying the keychain is reachable.
func NewKeychainKeyStorage(service string) (KeychainKeyStorage, error) {
	if service == "" {
		return KeychainKeyStorage{}, fmt.Errorf("%w: service name cannot be empty", ErrKeyStoreIO)
	}
	_, err := keyring.Get(service, keychainKeyPrefix+"_probe")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return KeychainKeyStorage{}, fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	return KeychainKeyStorage{service: service}, nil
}

// Import reads the raw record for name, returning nil if absent.
func (s KeychainKeyStorage) Import(name string) ([]byte, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}
	val, err := keyring.Get(s.service, keychainKeyPrefix+name)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrKeyStoreIO, name, err)
	}
	return []byte(val), nil
}

// Resolve parses the four-line text record into a Key.
func (s KeychainKeyStorage) Resolve(raw []byte) (Key, error) {
	lines, err := splitFourLines(raw)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrUnableToLoadKey, err)
	}
	return NewKey(lines[0], KeyType(lines[1]), Algorithm(lines[2]), lines[3])
}

// Save writes k under name into the keychain.
func (s KeychainKeyStorage) Save(name string, k Key) error {
	if err := validateKeyName(name); err != nil {
		return err
	}
	r := keyToRecord(k)
	body := r.Hex + "\n" + r.Type + "\n" + r.Adapter + "\n" + r.Version + "\n"
	if err := keyring.Set(s.service, keychainKeyPrefix+name, body); err != nil {
		return fmt.Errorf("%w: storing %s: %v", ErrKeyStoreIO, name, err)
	}
	return nil
}
