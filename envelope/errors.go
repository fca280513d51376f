package envelope

import (
	"errors"
	"fmt"
)

type (
	EncodeFailure struct {
		Cause error
	}
)

// ErrInvalidEnvelope covers every decode failure: malformed base64,
// broken obfuscation layer, unparsable wrapper or signature mismatch.
// Callers must not learn how far the decode got.
var ErrInvalidEnvelope = errors.New("envelope is malformed or has an invalid signature")

func (e EncodeFailure) Error() string {
	return fmt.Sprintf("unable to encode payload, cause %v", e.Cause)
}

func (e EncodeFailure) Unwrap() error { return e.Cause }
