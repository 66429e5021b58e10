package crypto

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// EnvKeyStorage implements KeyStorage over process environment variables:
// one variable per key, holding a JSON object {hex,type,adapter,version}.
// Save only affects the in-process environment (via os.Setenv); callers
// that need persistence across process restarts must export the resulting
// variable into their process manager's configuration themselves.
type EnvKeyStorage struct{}

var _ KeyStorage = EnvKeyStorage{}

// NewEnvKeyStorage returns an EnvKeyStorage.
func NewEnvKeyStorage() EnvKeyStorage { return EnvKeyStorage{} }

// Import reads the JSON record from the upper-cased environment variable
// named name, returning nil if unset.
func (EnvKeyStorage) Import(name string) ([]byte, error) {
	val, ok := os.LookupEnv(envVarName(name))
	if !ok {
		return nil, nil
	}
	return []byte(val), nil
}

// Resolve parses the JSON record into a Key.
func (EnvKeyStorage) Resolve(raw []byte) (Key, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrUnableToLoadKey, err)
	}
	return recordToKey(r)
}

// Save sets the upper-cased environment variable named name to k's JSON record.
func (EnvKeyStorage) Save(name string, k Key) error {
	body, err := json.Marshal(keyToRecord(k))
	if err != nil {
		return fmt.Errorf("%w: marshaling %s: %v", ErrKeyStoreIO, name, err)
	}
	if err := os.Setenv(envVarName(name), string(body)); err != nil {
		return fmt.Errorf("%w: setting env var for %s: %v", ErrKeyStoreIO, name, err)
	}
	return nil
}

func envVarName(name string) string { return strings.ToUpper(name) }
