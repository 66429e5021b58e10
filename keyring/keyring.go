package keyring

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/duskvault/keyring/crypto"
)

// uniqueIDLen is the byte length of a Keyring's unique_id.
const uniqueIDLen = 64

// VaultEntry is one logical namespace inside a Keyring: its own keys and
// free-form metadata.
type VaultEntry struct {
	Keys     map[string]crypto.Key
	Metadata map[string][]byte
}

func newVaultEntry() VaultEntry {
	return VaultEntry{Keys: make(map[string]crypto.Key), Metadata: make(map[string][]byte)}
}

// Keyring is the central entity of the keyring core: a MAC-gated state
// machine over {Unlocked, Locked} guarding an in-memory vault -> key map.
// All mutating operations are silent no-ops while Locked; reads return the
// zero value while Locked.
type Keyring struct {
	uniqueID       []byte
	vaults         map[string]VaultEntry
	authorizedMacs map[string]struct{} // keyed by base64.URLEncoding(mac)
	locked         bool
}

// New constructs a fresh, Unlocked keyring with a random 64-byte unique_id
// and no authorized MACs.
func New() (*Keyring, error) {
	id := make([]byte, uniqueIDLen)
	if _, err := io.ReadFull(rand.Reader, id); err != nil {
		return nil, fmt.Errorf("%w: generating unique_id: %v", ErrStorageUnavailable, err)
	}
	return &Keyring{
		uniqueID:       id,
		vaults:         make(map[string]VaultEntry),
		authorizedMacs: make(map[string]struct{}),
	}, nil
}

// withSecuredData rehydrates a keyring in Locked state, used only by the
// deserializer.
func withSecuredData(uniqueID []byte, vaults map[string]VaultEntry, macs map[string]struct{}) *Keyring {
	if vaults == nil {
		vaults = make(map[string]VaultEntry)
	}
	if macs == nil {
		macs = make(map[string]struct{})
	}
	return &Keyring{uniqueID: uniqueID, vaults: vaults, authorizedMacs: macs, locked: true}
}

// UniqueID returns the keyring's 64-byte unique_id. It never changes
// across the keyring's lifetime (I3).
func (k *Keyring) UniqueID() []byte { return k.uniqueID }

// IsLocked reports the current state.
func (k *Keyring) IsLocked() bool { return k.locked }

func macKey(mac []byte) string { return base64.URLEncoding.EncodeToString(mac) }

// authorizedContains reports whether mac is a member of authorized_macs,
// comparing against every entry in constant time so membership testing
// cannot be used as a timing oracle.
func (k *Keyring) authorizedContains(mac []byte) bool {
	var found int
	for encoded := range k.authorizedMacs {
		candidate, err := base64.URLEncoding.DecodeString(encoded)
		if err != nil || len(candidate) != len(mac) {
			continue
		}
		found |= subtle.ConstantTimeCompare(candidate, mac)
	}
	return found == 1
}

// Lock transitions Unlocked -> Locked if mac is authorized. Returns
// ErrUnauthorizedMac if mac is not in authorized_macs, even if the keyring
// is already Locked. Locking an already-locked keyring with an authorized
// mac is a no-op (lock idempotence).
func (k *Keyring) Lock(mac []byte) error {
	if !k.authorizedContains(mac) {
		return ErrUnauthorizedMac
	}
	k.locked = true
	return nil
}

// Unlock transitions Locked -> Unlocked if mac is authorized. Returns
// ErrUnauthorizedMac if mac is not in authorized_macs, even if the keyring
// is already Unlocked. Unlocking an already-unlocked keyring with an
// authorized mac is a no-op.
func (k *Keyring) Unlock(mac []byte) error {
	if !k.authorizedContains(mac) {
		return ErrUnauthorizedMac
	}
	k.locked = false
	return nil
}

// AddAuth adds mac to authorized_macs. No-op while Locked.
func (k *Keyring) AddAuth(mac []byte) {
	if k.locked {
		return
	}
	k.authorizedMacs[macKey(mac)] = struct{}{}
}

// FlushAuth clears authorized_macs. No-op while Locked.
func (k *Keyring) FlushAuth() {
	if k.locked {
		return
	}
	k.authorizedMacs = make(map[string]struct{})
}

// AddKey stores key under (vault, name), creating vault if absent. No-op
// while Locked.
func (k *Keyring) AddKey(vault, name string, key crypto.Key) {
	if k.locked {
		return
	}
	entry, ok := k.vaults[vault]
	if !ok {
		entry = newVaultEntry()
	}
	entry.Keys[name] = key
	k.vaults[vault] = entry
}

// AddMetadata stores value under (vault, name)'s metadata, creating vault if
// absent. No-op while Locked.
func (k *Keyring) AddMetadata(vault, name string, value []byte) {
	if k.locked {
		return
	}
	entry, ok := k.vaults[vault]
	if !ok {
		entry = newVaultEntry()
	}
	entry.Metadata[name] = value
	k.vaults[vault] = entry
}

// RemoveKey deletes (vault, name). No-op while Locked or if absent.
func (k *Keyring) RemoveKey(vault, name string) {
	if k.locked {
		return
	}
	if entry, ok := k.vaults[vault]; ok {
		delete(entry.Keys, name)
	}
}

// FlushKeys removes every key in vault, preserving its metadata. No-op
// while Locked.
func (k *Keyring) FlushKeys(vault string) {
	if k.locked {
		return
	}
	if entry, ok := k.vaults[vault]; ok {
		entry.Keys = make(map[string]crypto.Key)
		k.vaults[vault] = entry
	}
}

// FlushVault removes vault entirely. No-op while Locked.
func (k *Keyring) FlushVault(vault string) {
	if k.locked {
		return
	}
	delete(k.vaults, vault)
}

// GetKey returns (vault, name)'s key. Returns the zero Key and false while
// Locked or if absent.
func (k *Keyring) GetKey(vault, name string) (crypto.Key, bool) {
	if k.locked {
		return crypto.Key{}, false
	}
	entry, ok := k.vaults[vault]
	if !ok {
		return crypto.Key{}, false
	}
	key, ok := entry.Keys[name]
	return key, ok
}

// GetKeys returns a copy of vault's key map. Returns nil while Locked.
func (k *Keyring) GetKeys(vault string) map[string]crypto.Key {
	if k.locked {
		return nil
	}
	entry, ok := k.vaults[vault]
	if !ok {
		return nil
	}
	out := make(map[string]crypto.Key, len(entry.Keys))
	for name, key := range entry.Keys {
		out[name] = key
	}
	return out
}

// GetMetadata returns (vault, name)'s metadata value. Returns nil, false
// while Locked or if absent.
func (k *Keyring) GetMetadata(vault, name string) ([]byte, bool) {
	if k.locked {
		return nil, false
	}
	entry, ok := k.vaults[vault]
	if !ok {
		return nil, false
	}
	val, ok := entry.Metadata[name]
	return val, ok
}

// VaultNames returns the names of every vault currently present. Returns
// nil while Locked.
func (k *Keyring) VaultNames() []string {
	if k.locked {
		return nil
	}
	names := make([]string, 0, len(k.vaults))
	for name := range k.vaults {
		names = append(names, name)
	}
	return names
}

// snapshot captures a deep copy of mutable state, used by KeyManager for
// rollback on a failed rotation.
func (k *Keyring) snapshot() keyringSnapshot {
	vaults := make(map[string]VaultEntry, len(k.vaults))
	for name, entry := range k.vaults {
		keys := make(map[string]crypto.Key, len(entry.Keys))
		for kn, kv := range entry.Keys {
			keys[kn] = kv
		}
		meta := make(map[string][]byte, len(entry.Metadata))
		for mn, mv := range entry.Metadata {
			meta[mn] = append([]byte{}, mv...)
		}
		vaults[name] = VaultEntry{Keys: keys, Metadata: meta}
	}
	macs := make(map[string]struct{}, len(k.authorizedMacs))
	for m := range k.authorizedMacs {
		macs[m] = struct{}{}
	}
	return keyringSnapshot{vaults: vaults, macs: macs, locked: k.locked}
}

type keyringSnapshot struct {
	vaults map[string]VaultEntry
	macs   map[string]struct{}
	locked bool
}

// restore reverts k to a previously captured snapshot.
func (k *Keyring) restore(s keyringSnapshot) {
	k.vaults = s.vaults
	k.authorizedMacs = s.macs
	k.locked = s.locked
}
