// Package store persists the OAuth client-credential descriptor and the
// access/refresh token record on disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vishwaraja/gmail-cli/internal/keychain"
)

const (
	// EnvCredentialsPath overrides the client-credential descriptor location.
	EnvCredentialsPath = "GMAIL_CREDENTIALS_PATH"
	// EnvTokenPath overrides the token record location.
	EnvTokenPath = "GMAIL_TOKEN_PATH"

	defaultDirName = ".gmail-cli"
)

// LocalStateError reports missing, unreadable, or malformed persisted state.
// It always carries remediation instructions for the user.
type LocalStateError struct {
	Path   string
	Reason string
	Advice string
	Err    error
}

func (e *LocalStateError) Error() string {
	msg := fmt.Sprintf("local state at %s: %s", e.Path, e.Reason)
	if e.Advice != "" {
		msg += " (" + e.Advice + ")"
	}
	return msg
}

func (e *LocalStateError) Unwrap() error { return e.Err }

// Credentials is the OAuth client descriptor downloaded from the provider's
// developer console. It is read once per invocation and never mutated.
type Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

// credentialsFile matches the console download, which nests the descriptor
// under "installed" (desktop apps) or "web".
type credentialsFile struct {
	Installed *Credentials `json:"installed"`
	Web       *Credentials `json:"web"`
}

// Token is the persisted access/refresh token record. A missing refresh
// token means expiry forces a full interactive re-authentication.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Store reads and writes the two state files. Construct one per process
// with explicit paths; there are no package-level path lookups.
type Store struct {
	credentialsPath string
	tokenPath       string
}

func New(credentialsPath, tokenPath string) *Store {
	return &Store{credentialsPath: credentialsPath, tokenPath: tokenPath}
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, defaultDirName), nil
}

// DefaultCredentialsPath returns the env override or ~/.gmail-cli/credentials.json.
func DefaultCredentialsPath() (string, error) {
	if p := os.Getenv(EnvCredentialsPath); p != "" {
		return p, nil
	}
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// DefaultTokenPath returns the env override or ~/.gmail-cli/token.json.
func DefaultTokenPath() (string, error) {
	if p := os.Getenv(EnvTokenPath); p != "" {
		return p, nil
	}
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token.json"), nil
}

// Open builds a Store at the default (or env-overridden) locations.
func Open() (*Store, error) {
	credPath, err := DefaultCredentialsPath()
	if err != nil {
		return nil, err
	}
	tokenPath, err := DefaultTokenPath()
	if err != nil {
		return nil, err
	}
	return New(credPath, tokenPath), nil
}

func (s *Store) CredentialsPath() string { return s.credentialsPath }
func (s *Store) TokenPath() string       { return s.tokenPath }

// readFile stats before reading so a directory in place of a file is
// reported explicitly instead of as a raw I/O error.
func readFile(path, advice string) ([]byte, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &LocalStateError{Path: path, Reason: "cannot stat file", Advice: advice, Err: err}
	}
	if info.IsDir() {
		return nil, &LocalStateError{
			Path:   path,
			Reason: "expected a file but found a directory",
			Advice: advice,
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LocalStateError{Path: path, Reason: "cannot read file", Advice: advice, Err: err}
	}
	return data, nil
}

// LoadCredentials reads and validates the client descriptor. The client
// secret may be a keychain reference, resolved here.
func (s *Store) LoadCredentials() (*Credentials, error) {
	const advice = "download OAuth client credentials from the provider console and save them to this path"

	data, err := readFile(s.credentialsPath, advice)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &LocalStateError{Path: s.credentialsPath, Reason: "credentials file not found", Advice: advice}
	}

	var file credentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &LocalStateError{Path: s.credentialsPath, Reason: "invalid JSON", Advice: advice, Err: err}
	}

	creds := file.Installed
	if creds == nil {
		creds = file.Web
	}
	if creds == nil {
		// Accept a flat descriptor too.
		var flat Credentials
		if err := json.Unmarshal(data, &flat); err == nil && flat.ClientID != "" {
			creds = &flat
		}
	}
	if creds == nil || creds.ClientID == "" {
		return nil, &LocalStateError{
			Path:   s.credentialsPath,
			Reason: "no OAuth client found in credentials file",
			Advice: advice,
		}
	}

	secret, err := keychain.Resolve(creds.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve client secret: %w", err)
	}
	creds.ClientSecret = secret

	return creds, nil
}

// clientSecretEntry locates the client_secret field in a decoded credentials
// document, checking the console nesting keys before the top level. It
// returns the map holding the field so callers can rewrite it in place.
func clientSecretEntry(doc map[string]any) (map[string]any, string, bool) {
	for _, key := range []string{"installed", "web"} {
		if nested, ok := doc[key].(map[string]any); ok {
			if secret, ok := nested["client_secret"].(string); ok {
				return nested, secret, true
			}
		}
	}
	if secret, ok := doc["client_secret"].(string); ok {
		return doc, secret, true
	}
	return nil, "", false
}

func (s *Store) loadCredentialsDoc() (map[string]any, error) {
	const advice = "download OAuth client credentials from the provider console and save them to this path"

	data, err := readFile(s.credentialsPath, advice)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &LocalStateError{Path: s.credentialsPath, Reason: "credentials file not found", Advice: advice}
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LocalStateError{Path: s.credentialsPath, Reason: "invalid JSON", Advice: advice, Err: err}
	}
	return doc, nil
}

// RawClientSecret returns the client_secret value exactly as stored in the
// credentials file, without resolving keychain references.
func (s *Store) RawClientSecret() (string, error) {
	doc, err := s.loadCredentialsDoc()
	if err != nil {
		return "", err
	}
	_, secret, ok := clientSecretEntry(doc)
	if !ok {
		return "", &LocalStateError{
			Path:   s.credentialsPath,
			Reason: "no client secret in credentials file",
			Advice: "download OAuth client credentials from the provider console and save them to this path",
		}
	}
	return secret, nil
}

// RewriteClientSecret replaces the client_secret value in the credentials
// file, preserving the document's nesting and any sibling fields the
// console download carries.
func (s *Store) RewriteClientSecret(value string) error {
	doc, err := s.loadCredentialsDoc()
	if err != nil {
		return err
	}
	holder, _, ok := clientSecretEntry(doc)
	if !ok {
		return &LocalStateError{
			Path:   s.credentialsPath,
			Reason: "no client secret in credentials file",
			Advice: "download OAuth client credentials from the provider console and save them to this path",
		}
	}
	holder["client_secret"] = value

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.credentialsPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// LoadToken reads the persisted token record. A missing file is not an
// error: it returns (nil, nil), meaning no token has been stored yet.
func (s *Store) LoadToken() (*Token, error) {
	const advice = "delete the file and re-run `gmail-cli auth`"

	data, err := readFile(s.tokenPath, advice)
	if err != nil || data == nil {
		return nil, err
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, &LocalStateError{Path: s.tokenPath, Reason: "invalid JSON", Advice: advice, Err: err}
	}
	if tok.AccessToken == "" {
		return nil, &LocalStateError{Path: s.tokenPath, Reason: "token record has no access token", Advice: advice}
	}
	return &tok, nil
}

// SaveToken writes the token record with owner-only permissions.
func (s *Store) SaveToken(tok *Token) error {
	dir := filepath.Dir(s.tokenPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// DeleteToken removes the token record. Deleting an absent record is a no-op.
func (s *Store) DeleteToken() error {
	err := os.Remove(s.tokenPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
