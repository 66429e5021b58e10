package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	secretFileExtension = ".secret"
	secretFilePerm      = 0600
	secretDirPerm       = 0700
)

// FileVaultAdapter implements VaultAdapter as one JSON file per secret
// under <dir>/<vault>/<shm>.secret, using an atomic write-via-temp-file-
// then-rename.
type FileVaultAdapter struct {
	dir string
}

var _ VaultAdapter = FileVaultAdapter{}

// NewFileVaultAdapter returns a FileVaultAdapter rooted at dir, creating it
// with 0700 permissions if it does not exist.
func NewFileVaultAdapter(dir string) (FileVaultAdapter, error) {
	if dir == "" {
		return FileVaultAdapter{}, fmt.Errorf("%w: directory path is empty", ErrVaultNotInitialized)
	}
	if err := os.MkdirAll(dir, secretDirPerm); err != nil {
		return FileVaultAdapter{}, fmt.Errorf("creating vault directory: %w", err)
	}
	return FileVaultAdapter{dir: dir}, nil
}

// GetSecret reads and decodes the JSON file for shm under opts.Vault.
func (a FileVaultAdapter) GetSecret(_ context.Context, shm string, opts PutOptions) (Secret, error) {
	path, err := a.secretFilePath(opts.Vault, shm)
	if err != nil {
		return Secret{}, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Secret{}, ErrSecretNotFound
	}
	if err != nil {
		return Secret{}, fmt.Errorf("reading secret %s/%s: %w", opts.Vault, shm, err)
	}
	var secret Secret
	if err := json.Unmarshal(raw, &secret); err != nil {
		return Secret{}, fmt.Errorf("decoding secret %s/%s: %w", opts.Vault, shm, err)
	}
	return secret, nil
}

// PutSecret writes secret atomically under opts.Vault, creating the vault
// directory if absent.
func (a FileVaultAdapter) PutSecret(_ context.Context, secret Secret, opts PutOptions) error {
	vaultDir, err := a.vaultDir(opts.Vault)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(vaultDir, secretDirPerm); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}
	path, err := a.secretFilePath(opts.Vault, secret.UniqueID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(secret)
	if err != nil {
		return fmt.Errorf("encoding secret %s/%s: %w", opts.Vault, secret.UniqueID, err)
	}

	tmp, err := os.CreateTemp(vaultDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing secret %s/%s: %w", opts.Vault, secret.UniqueID, err)
	}
	if err := tmp.Chmod(secretFilePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions on secret %s/%s: %w", opts.Vault, secret.UniqueID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing secret %s/%s: %w", opts.Vault, secret.UniqueID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place for secret %s/%s: %w", opts.Vault, secret.UniqueID, err)
	}
	return nil
}

// DeleteSecret deletes secret.UniqueID from opts.Vault.
func (a FileVaultAdapter) DeleteSecret(ctx context.Context, secret Secret, opts PutOptions) error {
	return a.DeleteSecretByKey(ctx, secret.UniqueID, opts)
}

// DeleteSecretByKey removes shm's file under opts.Vault.
func (a FileVaultAdapter) DeleteSecretByKey(_ context.Context, shm string, opts PutOptions) error {
	path, err := a.secretFilePath(opts.Vault, shm)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrSecretNotFound
		}
		return fmt.Errorf("deleting secret %s/%s: %w", opts.Vault, shm, err)
	}
	return nil
}

// DeleteVault removes opts.Vault's entire directory.
func (a FileVaultAdapter) DeleteVault(_ context.Context, opts PutOptions) error {
	vaultDir, err := a.vaultDir(opts.Vault)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(vaultDir); err != nil {
		return fmt.Errorf("deleting vault %s: %w", opts.Vault, err)
	}
	return nil
}

func (a FileVaultAdapter) vaultDir(vault string) (string, error) {
	if err := validatePathComponent(vault); err != nil {
		return "", fmt.Errorf("vault name: %w", err)
	}
	return filepath.Join(a.dir, vault), nil
}

func (a FileVaultAdapter) secretFilePath(vault, shm string) (string, error) {
	vaultDir, err := a.vaultDir(vault)
	if err != nil {
		return "", err
	}
	if err := validatePathComponent(shm); err != nil {
		return "", fmt.Errorf("secret id: %w", err)
	}
	return filepath.Join(vaultDir, shm+secretFileExtension), nil
}

// validatePathComponent rejects names unsafe for use as a path segment.
// SHMs are base64url and so cannot contain "/" themselves, but the same
// guard is applied here as a defense against a future lookup-id encoding
// change.
func validatePathComponent(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrVaultNotInitialized)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: name contains path separators", ErrVaultNotInitialized)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: name cannot start with '.'", ErrVaultNotInitialized)
	}
	return nil
}
