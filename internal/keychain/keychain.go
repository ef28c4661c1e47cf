// Package keychain resolves secret values through the macOS keychain.
// A credentials file may hold a "keychain:<account>" reference instead of a
// plaintext client secret; Resolve fetches the real value at load time.
package keychain

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const serviceName = "gmail-cli"

const refPrefix = "keychain:"

// IsSupported returns true if keychain is supported on this platform.
func IsSupported() bool {
	return runtime.GOOS == "darwin"
}

// Set stores a secret in the keychain.
func Set(account, secret string) error {
	if !IsSupported() {
		return fmt.Errorf("keychain is only supported on macOS")
	}

	// Delete existing entry first (ignore errors if it doesn't exist)
	_ = Delete(account)

	cmd := exec.Command("security", "add-generic-password",
		"-a", account,
		"-s", serviceName,
		"-w", secret,
		"-U", // Update if exists
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to store in keychain: %s", strings.TrimSpace(string(output)))
	}
	return nil
}

// Get retrieves a secret from the keychain.
func Get(account string) (string, error) {
	if !IsSupported() {
		return "", fmt.Errorf("keychain is only supported on macOS")
	}

	cmd := exec.Command("security", "find-generic-password",
		"-a", account,
		"-s", serviceName,
		"-w", // Output password only
	)

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("secret not found in keychain for %q", account)
	}

	return strings.TrimSpace(string(output)), nil
}

// Delete removes a secret from the keychain.
func Delete(account string) error {
	if !IsSupported() {
		return fmt.Errorf("keychain is only supported on macOS")
	}

	cmd := exec.Command("security", "delete-generic-password",
		"-a", account,
		"-s", serviceName,
	)

	_, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to delete from keychain: %v", err)
	}
	return nil
}

// Ref returns a reference string suitable for a credentials file.
func Ref(account string) string {
	return refPrefix + account
}

// IsRef returns true if the value is a keychain reference.
func IsRef(value string) bool {
	return strings.HasPrefix(value, refPrefix)
}

// Account returns the account name from a keychain reference, or "" if the
// value is not a reference.
func Account(value string) string {
	if !IsRef(value) {
		return ""
	}
	return strings.TrimPrefix(value, refPrefix)
}

// Resolve resolves a value, fetching from keychain if it's a reference.
func Resolve(value string) (string, error) {
	if !IsRef(value) {
		return value, nil
	}
	return Get(Account(value))
}
