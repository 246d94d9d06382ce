// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package secrets

import (
	"strings"

	"github.com/inkwell-dev/inkwell/internal/config"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key
// URI.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", inkerr.Errorf(inkerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", inkerr.Errorf(inkerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// ResolveValue resolves a single keyring:// URI to its secret value.
// Values that are not keyring URIs pass through unchanged.
func ResolveValue(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", inkerr.Wrapf(err, inkerr.CodeSecretResolveFailure, "resolving keyring URI %q", value)
	}

	return secret, nil
}

// ResolveConfig replaces keyring:// references in the loaded config's
// credential fields with their secret values. API keys are the only
// fields that may hold secrets.
func ResolveConfig(store Store, cfg *config.Config) error {
	resolved, err := ResolveValue(store, cfg.Embedding.APIKey)
	if err != nil {
		return err
	}
	cfg.Embedding.APIKey = resolved

	resolved, err = ResolveValue(store, cfg.Generation.APIKey)
	if err != nil {
		return err
	}
	cfg.Generation.APIKey = resolved

	return nil
}
