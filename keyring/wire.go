package keyring

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/duskvault/keyring/crypto"
)

// keyRecordWire is the four-field on-wire shape of a Key.
type keyRecordWire struct {
	Hex     string `json:"hex"`
	Type    string `json:"type"`
	Adapter string `json:"adapter"`
	Version string `json:"version"`
}

func keyToWire(k crypto.Key) keyRecordWire {
	return keyRecordWire{Hex: k.Material().Reveal(), Type: string(k.Type), Adapter: string(k.Adapter), Version: k.Version}
}

func wireToKey(w keyRecordWire) (crypto.Key, error) {
	return crypto.NewKey(w.Hex, crypto.KeyType(w.Type), crypto.Algorithm(w.Adapter), w.Version)
}

// vaultWire is `{ "<key_name>": {hex,type,adapter,version}, "metadata": {...} }`:
// a flat JSON object mixing key records with one reserved "metadata" key.
type vaultWire struct {
	Keys     map[string]keyRecordWire
	Metadata map[string]string // value base64-encoded
}

func (v vaultWire) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(v.Keys)+1)
	for name, k := range v.Keys {
		m[name] = k
	}
	if len(v.Metadata) > 0 {
		m["metadata"] = v.Metadata
	}
	return json.Marshal(m)
}

func (v *vaultWire) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Keys = make(map[string]keyRecordWire)
	for name, msg := range raw {
		if name == "metadata" {
			var md map[string]string
			if err := json.Unmarshal(msg, &md); err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
			v.Metadata = md
			continue
		}
		var kr keyRecordWire
		if err := json.Unmarshal(msg, &kr); err != nil {
			return fmt.Errorf("key %q: %w", name, err)
		}
		v.Keys[name] = kr
	}
	return nil
}

// keyringWire is the JSON shape of a keyring's plaintext, after decryption.
type keyringWire struct {
	Locked   bool                 `json:"locked"`
	UniqueID string               `json:"uniqueId"`
	Vault    map[string]vaultWire `json:"vault"`
	Macs     []string             `json:"macs"`
}

// serialize renders k's current state as the canonical JSON form, forcing
// "locked":true unconditionally regardless of k.locked.
func (k *Keyring) serialize() ([]byte, error) {
	vault := make(map[string]vaultWire, len(k.vaults))
	for name, entry := range k.vaults {
		vw := vaultWire{Keys: make(map[string]keyRecordWire, len(entry.Keys))}
		for kn, key := range entry.Keys {
			vw.Keys[kn] = keyToWire(key)
		}
		if len(entry.Metadata) > 0 {
			vw.Metadata = make(map[string]string, len(entry.Metadata))
			for mn, mv := range entry.Metadata {
				vw.Metadata[mn] = base64.URLEncoding.EncodeToString(mv)
			}
		}
		vault[name] = vw
	}

	macs := make([]string, 0, len(k.authorizedMacs))
	for m := range k.authorizedMacs {
		macs = append(macs, m)
	}
	sort.Strings(macs)

	wire := keyringWire{
		Locked:   true,
		UniqueID: hex.EncodeToString(k.uniqueID),
		Vault:    vault,
		Macs:     macs,
	}
	return json.MarshalIndent(wire, "", "  ")
}

// deserializeKeyring parses plaintext into a Locked keyring via
// withSecuredData.
func deserializeKeyring(plaintext []byte) (*Keyring, error) {
	var wire keyringWire
	if err := json.Unmarshal(plaintext, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	id, err := hex.DecodeString(wire.UniqueID)
	if err != nil {
		return nil, fmt.Errorf("%w: uniqueId: %v", ErrSerializationFailed, err)
	}

	vaults := make(map[string]VaultEntry, len(wire.Vault))
	for name, vw := range wire.Vault {
		entry := newVaultEntry()
		for kn, kr := range vw.Keys {
			key, err := wireToKey(kr)
			if err != nil {
				return nil, fmt.Errorf("%w: vault %q key %q: %v", ErrSerializationFailed, name, kn, err)
			}
			entry.Keys[kn] = key
		}
		for mn, mv := range vw.Metadata {
			raw, err := base64.URLEncoding.DecodeString(mv)
			if err != nil {
				return nil, fmt.Errorf("%w: vault %q metadata %q: %v", ErrSerializationFailed, name, mn, err)
			}
			entry.Metadata[mn] = raw
		}
		vaults[name] = entry
	}

	macs := make(map[string]struct{}, len(wire.Macs))
	for _, m := range wire.Macs {
		macs[m] = struct{}{}
	}

	return withSecuredData(id, vaults, macs), nil
}
