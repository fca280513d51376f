// Package authcrypt holds the hashing primitives shared by the account
// store and the license holder: PBKDF2 password hashing and HMAC signing.
//
// Passwords are never stored or transported in plain form, only the
// derived hash leaves this package. Signing uses a shared key compiled
// into both client and server, overridable from the environment.
package authcrypt

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

type (
	// Key is the shared HMAC key used to sign envelopes.
	Key []byte
)

const (
	// KeyEnvVar is the default environment variable consulted by
	// KeyFromEnv for a signing key override.
	KeyEnvVar = "LOCKBOX_AUTH_KEY"

	// pbkdf2 work factor, fixed since licenses in the wild embed hashes
	// derived with it
	hashIterations = 100000
	hashKeyLen     = 32
	saltLen        = 16
)

// builtinKey is baked into every binary so that a license issued by one
// deployment verifies on another without key exchange.
var builtinKey = Key("lockbox-auth-key-2024-secure")

func (k Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// DefaultKey returns a copy of the compiled-in signing key.
func DefaultKey() Key {
	out := make(Key, len(builtinKey))
	copy(out, builtinKey)
	return out
}

// KeyFromEnv reads the signing key from the given environment variable,
// clearing the variable afterwards so child processes do not inherit it.
// An unset or empty variable yields the compiled-in key.
func KeyFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (Key, error) {
	val := getfn(varname)
	if err := setfn(varname, ""); err != nil {
		return nil, fmt.Errorf("unable to clear %v from the environment, cause %w", varname, err)
	}
	if len(val) == 0 {
		return DefaultKey(), nil
	}
	return Key(val), nil
}

// GenerateSalt returns a fresh per-account salt as a 32 character hex
// string, always from a CSPRNG.
func GenerateSalt() (string, error) {
	var buf [saltLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("unable to read random salt, cause %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// DerivePasswordHash stretches password with PBKDF2-SHA256 using salt as
// the key-derivation salt. The result is base64 so it can live inside
// JSON payloads. Deterministic: verification re-derives and compares.
func DerivePasswordHash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLen, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

// HashEqual compares two derived hashes in constant time.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Sign computes the base64 HMAC-SHA256 of data under key.
func Sign(key Key, data []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches Sign(key, data).
// Malformed input is just a mismatch, never an error.
func VerifySignature(key Key, data []byte, signature string) bool {
	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hmac.Equal(expected, mac.Sum(nil))
}
