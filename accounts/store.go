// Package accounts implements the server side credential store: named
// accounts with salted password hashes, persisted as a single envelope
// file, plus machine-bound license issuance.
package accounts

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/license"
)

type (
	// Account is the stored credential record. The literal password never
	// touches this struct, only the derived hash does.
	Account struct {
		Salt         string `json:"salt"`
		PasswordHash string `json:"password_hash"`
		Created      string `json:"created"`
		Enabled      bool   `json:"enabled"`
	}

	// Info is the listing view of an account, without any hash material.
	Info struct {
		Username string `json:"username"`
		Created  string `json:"created"`
		Enabled  bool   `json:"enabled"`
	}

	// Store owns the username -> Account mapping. Every mutation rewrites
	// the whole state file, so all operations serialize on one mutex.
	Store struct {
		mu       sync.Mutex
		path     string
		codec    *envelope.Codec
		accounts map[string]Account
	}

	storeFile struct {
		Accounts map[string]Account `json:"accounts"`
		Updated  string             `json:"updated"`
	}
)

// Open binds a store to its state file and loads it. A missing or corrupt
// file yields an empty store rather than an error, deleting the state
// file is the supported way of resetting an installation.
func Open(path string, codec *envelope.Codec) *Store {
	s := &Store{path: path, codec: codec}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s
}

func (s *Store) load() {
	s.accounts = make(map[string]Account)
	buf, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var file storeFile
	if err := s.codec.Decode(string(buf), &file); err != nil {
		return
	}
	if file.Accounts != nil {
		s.accounts = file.Accounts
	}
}

// save must run with the mutex held.
func (s *Store) save() error {
	content, err := s.codec.Encode(storeFile{
		Accounts: s.accounts,
		Updated:  time.Now().Format(license.TimeFormat),
	})
	if err != nil {
		return fmt.Errorf("unable to encode account store, cause %w", err)
	}
	if err := os.WriteFile(s.path, []byte(content), 0600); err != nil {
		return fmt.Errorf("unable to write account store %v, cause %w", s.path, err)
	}
	return nil
}

// Add creates a new enabled account after validating the credentials and
// persists the store.
func (s *Store) Add(username, password string) error {
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	if len(username) < 3 {
		return ErrUsernameTooShort
	}
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.accounts[username]; found {
		return ErrAccountExists
	}
	salt, err := authcrypt.GenerateSalt()
	if err != nil {
		return err
	}
	s.accounts[username] = Account{
		Salt:         salt,
		PasswordHash: authcrypt.DerivePasswordHash(password, salt),
		Created:      time.Now().Format(license.TimeFormat),
		Enabled:      true,
	}
	return s.save()
}

// Delete removes an account and persists the store.
func (s *Store) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.accounts[username]; !found {
		return ErrAccountNotFound
	}
	delete(s.accounts, username)
	return s.save()
}

// Verify checks the credentials against the stored hash. Unknown account,
// disabled account and wrong password each fail with their own error.
func (s *Store) Verify(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.verifyLocked(username, password)
	return err
}

func (s *Store) verifyLocked(username, password string) (Account, error) {
	acc, found := s.accounts[username]
	if !found {
		return Account{}, ErrAccountNotFound
	}
	if !acc.Enabled {
		return Account{}, ErrAccountDisabled
	}
	derived := authcrypt.DerivePasswordHash(password, acc.Salt)
	if !authcrypt.HashEqual(derived, acc.PasswordHash) {
		return Account{}, ErrPasswordMismatch
	}
	return acc, nil
}

// Check reports whether the account currently exists and is enabled,
// without touching any password material. Token validation uses this to
// re-derive validity from live state.
func (s *Store) Check(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[username]
	if !found {
		return ErrAccountNotFound
	}
	if !acc.Enabled {
		return ErrAccountDisabled
	}
	return nil
}

// Toggle flips the enabled flag, persists and returns the new state.
func (s *Store) Toggle(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[username]
	if !found {
		return false, ErrAccountNotFound
	}
	acc.Enabled = !acc.Enabled
	s.accounts[username] = acc
	if err := s.save(); err != nil {
		return false, err
	}
	return acc.Enabled, nil
}

// List returns the accounts sorted by username, never exposing salts or
// hashes.
func (s *Store) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, 0, len(s.accounts))
	for username, acc := range s.accounts {
		out = append(out, Info{Username: username, Created: acc.Created, Enabled: acc.Enabled})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// GenerateLicense verifies the credentials and, on success, seals a
// detached snapshot of the account's hash material into a license
// envelope bound (informationally) to machineID.
func (s *Store) GenerateLicense(username, password, machineID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.verifyLocked(username, password)
	if err != nil {
		return "", err
	}
	content, err := s.codec.Encode(license.License{
		Username:     username,
		PasswordHash: acc.PasswordHash,
		Salt:         acc.Salt,
		Issued:       time.Now().Format(license.TimeFormat),
		MachineID:    machineID,
	})
	if err != nil {
		return "", fmt.Errorf("unable to encode license, cause %w", err)
	}
	return content, nil
}

// Snapshot exports the current store as an envelope string, the same
// shape the state file uses. Clients can bootstrap a license from it with
// license.Holder.CreateLicenseFromLogin.
func (s *Store) Snapshot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, err := s.codec.Encode(storeFile{
		Accounts: s.accounts,
		Updated:  time.Now().Format(license.TimeFormat),
	})
	if err != nil {
		return "", fmt.Errorf("unable to encode account store, cause %w", err)
	}
	return content, nil
}
