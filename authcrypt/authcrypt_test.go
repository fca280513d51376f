package authcrypt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		salt, err := GenerateSalt()
		require.NoError(t, err)
		require.Len(t, salt, 32, "salt must be 16 random bytes hex encoded")
		require.False(t, seen[salt], "salts must not repeat")
		seen[salt] = true
	}
}

func TestDerivePasswordHash(t *testing.T) {
	h1 := DerivePasswordHash("secret1", "aaaa")
	h2 := DerivePasswordHash("secret1", "aaaa")
	require.Equal(t, h1, h2, "same password and salt must derive the same hash")

	require.NotEqual(t, h1, DerivePasswordHash("secret1", "bbbb"),
		"different salt must change the hash")
	require.NotEqual(t, h1, DerivePasswordHash("secret2", "aaaa"),
		"different password must change the hash")
	require.True(t, HashEqual(h1, h2))
	require.False(t, HashEqual(h1, DerivePasswordHash("secret2", "aaaa")))
}

func TestSignVerify(t *testing.T) {
	key := DefaultKey()
	data := []byte(`{"username":"alice"}`)
	sig := Sign(key, data)
	require.True(t, VerifySignature(key, data, sig))
	require.False(t, VerifySignature(key, []byte(`{"username":"bob"}`), sig))
	require.False(t, VerifySignature(Key("other-key"), data, sig))
	require.False(t, VerifySignature(key, data, "not base64 at all!"))
	require.False(t, VerifySignature(key, data, ""))
}

func TestKeyFromEnv(t *testing.T) {
	env := map[string]string{"TEST_KEY": "super-secret"}
	getfn := func(k string) string { return env[k] }
	setfn := func(k, v string) error { env[k] = v; return nil }

	key, err := KeyFromEnv("TEST_KEY", getfn, setfn)
	require.NoError(t, err)
	require.Equal(t, Key("super-secret"), key)
	require.Empty(t, env["TEST_KEY"], "key must be wiped from the environment")

	key, err = KeyFromEnv("MISSING", getfn, setfn)
	require.NoError(t, err)
	require.Equal(t, DefaultKey(), key)
}
