// Package envelope turns structured payloads into opaque strings that can
// live in a state file or ride an HTTP response, and back again.
//
// The format is signed and obfuscated, not encrypted: the XOR step is
// keyless and reversible by anyone, it only keeps casual eyes away.
// Integrity is what the format actually guarantees, any tampered byte
// makes Decode fail.
package envelope

import (
	"encoding/base64"
	"encoding/json"

	"github.com/andrebq/lockbox/authcrypt"
)

type (
	// Codec encodes and decodes envelopes under a fixed signing key.
	Codec struct {
		key authcrypt.Key
	}

	// sealed is the inner wire structure. Data keeps the exact bytes the
	// signature was computed over, so verification does not depend on
	// re-serialization being canonical.
	sealed struct {
		Data      json.RawMessage `json:"data"`
		Signature string          `json:"signature"`
	}
)

func NewCodec(key authcrypt.Key) *Codec {
	return &Codec{key: key}
}

// Encode seals payload into a transportable string: serialize, sign,
// wrap, base64, XOR-by-position, base64 again.
func (c *Codec) Encode(payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", EncodeFailure{Cause: err}
	}
	inner, err := json.Marshal(sealed{
		Data:      raw,
		Signature: authcrypt.Sign(c.key, raw),
	})
	if err != nil {
		return "", EncodeFailure{Cause: err}
	}
	buf := []byte(base64.StdEncoding.EncodeToString(inner))
	obfuscate(buf)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decode reverses Encode into payload. It fails with ErrInvalidEnvelope
// on any malformed layer or signature mismatch, never returning partial
// or unverified data. Both base64 layers decode strictly so a flipped
// bit anywhere in content is always a hard failure, never canonicalized
// away.
func (c *Codec) Decode(content string, payload interface{}) error {
	buf, err := base64.StdEncoding.Strict().DecodeString(content)
	if err != nil {
		return ErrInvalidEnvelope
	}
	obfuscate(buf)
	inner, err := base64.StdEncoding.Strict().DecodeString(string(buf))
	if err != nil {
		return ErrInvalidEnvelope
	}
	var s sealed
	if err := json.Unmarshal(inner, &s); err != nil {
		return ErrInvalidEnvelope
	}
	if !authcrypt.VerifySignature(c.key, s.Data, s.Signature) {
		return ErrInvalidEnvelope
	}
	if err := json.Unmarshal(s.Data, payload); err != nil {
		return ErrInvalidEnvelope
	}
	return nil
}

// obfuscate XORs each byte with its position mod 256. Self-inverse.
func obfuscate(buf []byte) {
	for i := range buf {
		buf[i] ^= byte(i % 256)
	}
}
