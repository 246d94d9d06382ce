// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package secrets

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// KeyringStore implements Store using the OS keyring via
// zalando/go-keyring. On macOS it uses Keychain, on Linux
// secret-service (D-Bus), and on Windows the Credential Manager.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := validateRef(service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", inkerr.Errorf(inkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", inkerr.Wrapf(err, inkerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return inkerr.Errorf(inkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return inkerr.Wrapf(err, inkerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

func validateRef(service, key string) error {
	if service == "" {
		return inkerr.New(inkerr.CodeSecretInvalidInput, "secret: service must not be empty")
	}
	if key == "" {
		return inkerr.New(inkerr.CodeSecretInvalidInput, "secret: key must not be empty")
	}
	return nil
}

// MemoryStore is an in-process Store for tests and environments without
// an OS keyring.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: map[string]string{}}
}

func (s *MemoryStore) Store(service, key, value string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[service+"\x00"+key] = value
	return nil
}

func (s *MemoryStore) Retrieve(service, key string) (string, error) {
	if err := validateRef(service, key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.secrets[service+"\x00"+key]
	if !ok {
		return "", inkerr.Errorf(inkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	return val, nil
}

func (s *MemoryStore) Delete(service, key string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[service+"\x00"+key]; !ok {
		return inkerr.Errorf(inkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	delete(s.secrets, service+"\x00"+key)
	return nil
}
