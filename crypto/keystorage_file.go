package crypto

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileKeyExtension   = ".key"
	keyFilePermissions = 0600
	keyDirPermissions  = 0700
)

// FileKeyStorage implements KeyStorage as one plain-text file per key: four
// lines, `hex\ntype\nadapter\nversion`. Master-key bootstrap material is not
// itself password-encrypted here — encrypting it would require a second
// secret to unlock the secret that unlocks the keyring. Confidentiality for
// this backend is the filesystem's, via restrictive permissions.
type FileKeyStorage struct {
	dir string
}

var _ KeyStorage = FileKeyStorage{}

// NewFileKeyStorage returns a FileKeyStorage rooted at dir, creating it with
// 0700 permissions if it does not exist.
func NewFileKeyStorage(dir string) (FileKeyStorage, error) {
	if dir == "" {
		return FileKeyStorage{}, fmt.Errorf("%w: directory path is empty", ErrKeyStoreIO)
	}
	if err := os.MkdirAll(dir, keyDirPermissions); err != nil {
		return FileKeyStorage{}, fmt.Errorf("%w: creating directory: %v", ErrKeyStoreIO, err)
	}
	return FileKeyStorage{dir: dir}, nil
}

// Import reads the raw four-line record for name, returning nil if the file
// does not exist.
func (s FileKeyStorage) Import(name string) ([]byte, error) {
	path, err := s.keyFilePath(name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrKeyStoreIO, name, err)
	}
	return raw, nil
}

// Resolve parses the four-line text record into a Key.
func (s FileKeyStorage) Resolve(raw []byte) (Key, error) {
	lines, err := splitFourLines(raw)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrUnableToLoadKey, err)
	}
	return NewKey(lines[0], KeyType(lines[1]), Algorithm(lines[2]), lines[3])
}

// Save writes k under name as a four-line text file, atomically (write to a
// temp file in the same directory, then rename).
func (s FileKeyStorage) Save(name string, k Key) error {
	path, err := s.keyFilePath(name)
	if err != nil {
		return err
	}
	r := keyToRecord(k)
	body := strings.Join([]string{r.Hex, r.Type, r.Adapter, r.Version}, "\n") + "\n"

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrKeyStoreIO, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrKeyStoreIO, name, err)
	}
	if err := tmp.Chmod(keyFilePermissions); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: setting permissions on %s: %v", ErrKeyStoreIO, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrKeyStoreIO, name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming into place for %s: %v", ErrKeyStoreIO, name, err)
	}
	return nil
}

func (s FileKeyStorage) keyFilePath(name string) (string, error) {
	if err := validateKeyName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+fileKeyExtension), nil
}

// validateKeyName rejects names that are unsafe for use as a filename.
func validateKeyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: key name cannot be empty", ErrKeyStoreIO)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: key name contains path separators", ErrKeyStoreIO)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: key name cannot start with '.'", ErrKeyStoreIO)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: key name too long (max 255 characters)", ErrKeyStoreIO)
	}
	return nil
}

func splitFourLines(raw []byte) ([4]string, error) {
	var out [4]string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for i := 0; i < 4; i++ {
		if !scanner.Scan() {
			return out, fmt.Errorf("expected 4 lines, got %d", i)
		}
		out[i] = scanner.Text()
	}
	return out, nil
}
