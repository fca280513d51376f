package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	lim, err := New(3, time.Minute)
	require.NoError(t, err)

	require.True(t, lim.Allow("alice"))
	lim.Failure("alice")
	lim.Failure("alice")
	require.True(t, lim.Allow("alice"), "two failures stay under a limit of three")
	lim.Failure("alice")
	require.False(t, lim.Allow("alice"), "limit reached, attempts must be blocked")
	require.True(t, lim.Allow("bob"), "counters are per username")

	lim.Success("alice")
	require.True(t, lim.Allow("alice"), "a successful login clears the counter")
}
