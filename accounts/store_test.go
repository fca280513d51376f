package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/testutil"
	"github.com/stretchr/testify/require"
)

func tempStore(t testutil.TestLog) (*Store, string, func()) {
	dir, cleanup := testutil.AcquireStateDir(t)
	path := filepath.Join(dir, "accounts.dat")
	return Open(path, envelope.NewCodec(authcrypt.DefaultKey())), path, cleanup
}

func TestAddValidation(t *testing.T) {
	store, _, cleanup := tempStore(t)
	defer cleanup()

	require.ErrorIs(t, store.Add("", "validpass"), ErrEmptyCredentials)
	require.ErrorIs(t, store.Add("alice", ""), ErrEmptyCredentials)
	require.ErrorIs(t, store.Add("ab", "validpass"), ErrUsernameTooShort)
	require.ErrorIs(t, store.Add("validname", "short"), ErrPasswordTooShort)

	require.NoError(t, store.Add("u1", "password1"))
	require.ErrorIs(t, store.Add("u1", "other-password"), ErrAccountExists)
}

func TestVerify(t *testing.T) {
	store, _, cleanup := tempStore(t)
	defer cleanup()

	require.NoError(t, store.Add("alice", "secret1"))
	require.NoError(t, store.Verify("alice", "secret1"))
	require.ErrorIs(t, store.Verify("alice", "wrong"), ErrPasswordMismatch)
	require.ErrorIs(t, store.Verify("nobody", "secret1"), ErrAccountNotFound)

	enabled, err := store.Toggle("alice")
	require.NoError(t, err)
	require.False(t, enabled)
	require.ErrorIs(t, store.Verify("alice", "secret1"), ErrAccountDisabled)
	require.ErrorIs(t, store.Check("alice"), ErrAccountDisabled)

	enabled, err = store.Toggle("alice")
	require.NoError(t, err)
	require.True(t, enabled)
	require.NoError(t, store.Verify("alice", "secret1"))
	require.NoError(t, store.Check("alice"))

	_, err = store.Toggle("nobody")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPersistence(t *testing.T) {
	store, path, cleanup := tempStore(t)
	defer cleanup()

	require.NoError(t, store.Add("alice", "secret1"))
	require.NoError(t, store.Add("bob", "secret2"))
	require.NoError(t, store.Delete("bob"))
	require.ErrorIs(t, store.Delete("bob"), ErrAccountNotFound)

	// a fresh store over the same file sees the same accounts
	reopened := Open(path, envelope.NewCodec(authcrypt.DefaultKey()))
	require.NoError(t, reopened.Verify("alice", "secret1"))
	list := reopened.List()
	require.Len(t, list, 1)
	require.Equal(t, "alice", list[0].Username)
	require.True(t, list[0].Enabled)
	require.NotEmpty(t, list[0].Created)
}

func TestCorruptStateFile(t *testing.T) {
	store, path, cleanup := tempStore(t)
	defer cleanup()
	require.NoError(t, store.Add("alice", "secret1"))

	require.NoError(t, os.WriteFile(path, []byte("garbage, not an envelope"), 0600))
	reopened := Open(path, envelope.NewCodec(authcrypt.DefaultKey()))
	require.Empty(t, reopened.List(), "corrupt state file must load as an empty store")

	require.NoError(t, os.Remove(path))
	reopened = Open(path, envelope.NewCodec(authcrypt.DefaultKey()))
	require.Empty(t, reopened.List(), "missing state file must load as an empty store")
}

func TestListOrdering(t *testing.T) {
	store, _, cleanup := tempStore(t)
	defer cleanup()
	for _, u := range []string{"charlie", "ana", "bob"} {
		require.NoError(t, store.Add(u, "password1"))
	}
	list := store.List()
	require.Len(t, list, 3)
	require.Equal(t, "ana", list[0].Username)
	require.Equal(t, "bob", list[1].Username)
	require.Equal(t, "charlie", list[2].Username)
}

func TestGenerateLicense(t *testing.T) {
	store, _, cleanup := tempStore(t)
	defer cleanup()
	require.NoError(t, store.Add("alice", "secret1"))

	_, err := store.GenerateLicense("alice", "wrong", "machine-1")
	require.ErrorIs(t, err, ErrPasswordMismatch)
	_, err = store.GenerateLicense("nobody", "secret1", "machine-1")
	require.ErrorIs(t, err, ErrAccountNotFound)

	content, err := store.GenerateLicense("alice", "secret1", "machine-1")
	require.NoError(t, err)
	require.NotEmpty(t, content)
}
