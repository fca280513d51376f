// Package license implements the client side of the auth scheme: a single
// license file holding a detached snapshot of the account credentials,
// verifiable offline without ever talking to the server.
package license

import (
	"fmt"
	"os"
	"time"

	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/machineid"
)

// TimeFormat renders issue timestamps the way every state file in the
// wild already does.
const TimeFormat = "2006-01-02 15:04:05"

type (
	// License is the payload carried inside a license envelope. Salt and
	// PasswordHash are copied verbatim from the account at issuance time,
	// which is what makes offline verification possible.
	License struct {
		Username     string `json:"username"`
		PasswordHash string `json:"password_hash"`
		Salt         string `json:"salt"`
		Issued       string `json:"issued"`
		MachineID    string `json:"machine_id"`
	}

	// Holder keeps at most one decoded license in memory, backed by a
	// single file that contains exactly one envelope string.
	Holder struct {
		path    string
		codec   *envelope.Codec
		current *License
	}

	// snapshot mirrors just enough of the account store file format to
	// bootstrap a license from an exported store envelope.
	snapshot struct {
		Accounts map[string]snapshotAccount `json:"accounts"`
	}

	snapshotAccount struct {
		Salt         string `json:"salt"`
		PasswordHash string `json:"password_hash"`
		Enabled      bool   `json:"enabled"`
	}
)

// Open binds a holder to path and attempts an initial load. A missing or
// corrupt file is not an error, the holder just starts unlicensed.
func Open(path string, codec *envelope.Codec) *Holder {
	h := &Holder{path: path, codec: codec}
	h.Load()
	return h
}

// Load re-reads the license file and reports whether a valid license is
// now held. Any read or decode failure leaves the holder unlicensed.
func (h *Holder) Load() bool {
	buf, err := os.ReadFile(h.path)
	if err != nil {
		h.current = nil
		return false
	}
	var lic License
	if err := h.codec.Decode(string(buf), &lic); err != nil {
		h.current = nil
		return false
	}
	h.current = &lic
	return true
}

// Save writes content verbatim as the new license file, trusting the
// caller to have produced a valid envelope. With backup set, the previous
// file is first copied aside with a .bak suffix.
func (h *Holder) Save(content string, backup bool) error {
	if backup {
		if prev, err := os.ReadFile(h.path); err == nil {
			if err := os.WriteFile(h.path+".bak", prev, 0600); err != nil {
				return fmt.Errorf("unable to back up previous license file, cause %w", err)
			}
		}
	}
	if err := os.WriteFile(h.path, []byte(content), 0600); err != nil {
		return fmt.Errorf("unable to write license file %v, cause %w", h.path, err)
	}
	return nil
}

func (h *Holder) IsLicensed() bool {
	return h.current != nil
}

// Username returns the licensed username, or empty when unlicensed.
func (h *Holder) Username() string {
	if h.current == nil {
		return ""
	}
	return h.current.Username
}

// Current returns a copy of the held license, or nil when unlicensed.
func (h *Holder) Current() *License {
	if h.current == nil {
		return nil
	}
	lic := *h.current
	return &lic
}

// VerifyOffline checks the given credentials against the held license
// without any network call: the hash is re-derived with the license salt
// and compared to the snapshot hash. The embedded machine id is advisory
// metadata and deliberately not checked here.
func (h *Holder) VerifyOffline(username, password string) error {
	if h.current == nil {
		return ErrNotLicensed
	}
	if h.current.Username != username {
		return ErrUsernameMismatch
	}
	derived := authcrypt.DerivePasswordHash(password, h.current.Salt)
	if !authcrypt.HashEqual(derived, h.current.PasswordHash) {
		return ErrPasswordMismatch
	}
	return nil
}

// CreateLicenseFromLogin bootstraps a license from an exported account
// store envelope, verifying the credentials locally the same way the
// server would. On success the license is saved and becomes current.
func (h *Holder) CreateLicenseFromLogin(username, password, storeSnapshot string) error {
	var snap snapshot
	if err := h.codec.Decode(storeSnapshot, &snap); err != nil {
		return ErrInvalidSnapshot
	}
	acc, found := snap.Accounts[username]
	if !found {
		return ErrAccountNotFound
	}
	if !acc.Enabled {
		return ErrAccountDisabled
	}
	derived := authcrypt.DerivePasswordHash(password, acc.Salt)
	if !authcrypt.HashEqual(derived, acc.PasswordHash) {
		return ErrPasswordMismatch
	}
	lic := License{
		Username:     username,
		PasswordHash: acc.PasswordHash,
		Salt:         acc.Salt,
		Issued:       time.Now().Format(TimeFormat),
		MachineID:    machineid.ID(),
	}
	content, err := h.codec.Encode(lic)
	if err != nil {
		return fmt.Errorf("unable to encode license, cause %w", err)
	}
	if err := h.Save(content, true); err != nil {
		return err
	}
	h.current = &lic
	return nil
}
