// Package secrets reads API keys and webhook URLs from the OS keychain.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the app's secrets in the OS keychain.
const KeyringService = "jobscout"

// Prefix marks a config value that should be read from the keychain, as in
// "keyring:openai".
const Prefix = "keyring:"

// ErrNotFound is returned when the keychain holds no value for an account.
var ErrNotFound = errors.New("secret not found in keychain")

// Get returns the secret stored under account.
func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	v, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	if err != nil {
		return "", fmt.Errorf("reading keychain account %s: %w", account, err)
	}
	return v, nil
}

// Set stores value under account, replacing any previous value.
func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

// Delete removes the secret stored under account.
func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if err := keyring.Delete(KeyringService, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, account)
		}
		return err
	}
	return nil
}

// Resolve returns value unchanged unless it carries the keyring: prefix, in
// which case the named account is read from the keychain.
func Resolve(value string) (string, error) {
	account, ok := strings.CutPrefix(strings.TrimSpace(value), Prefix)
	if !ok {
		return value, nil
	}
	return Get(account)
}
