// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package secrets stores provider API keys outside config files and
// resolves keyring:// references found in loaded configuration.
package secrets

// Store provides secure secret storage operations. Implementations may
// use OS keyrings or in-memory maps for tests.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// A missing key reports CodeSecretNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	// A missing key reports CodeSecretNotFound.
	Delete(service, key string) error
}

// DefaultService is the keyring service name inkwell stores its own
// secrets under.
const DefaultService = "inkwell"
