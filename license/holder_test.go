package license_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/lockbox/accounts"
	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/testutil"
	"github.com/andrebq/lockbox/license"
	"github.com/stretchr/testify/require"
)

func TestUnlicensedHolder(t *testing.T) {
	dir, cleanup := testutil.AcquireStateDir(t)
	defer cleanup()
	codec := envelope.NewCodec(authcrypt.DefaultKey())

	holder := license.Open(filepath.Join(dir, "license.dat"), codec)
	require.False(t, holder.IsLicensed())
	require.Empty(t, holder.Username())
	require.Nil(t, holder.Current())
	require.ErrorIs(t, holder.VerifyOffline("alice", "secret1"), license.ErrNotLicensed)
}

func TestVerifyOffline(t *testing.T) {
	dir, cleanup := testutil.AcquireStateDir(t)
	defer cleanup()
	codec := envelope.NewCodec(authcrypt.DefaultKey())

	store := accounts.Open(filepath.Join(dir, "accounts.dat"), codec)
	require.NoError(t, store.Add("alice", "secret1"))
	content, err := store.GenerateLicense("alice", "secret1", "machine-1")
	require.NoError(t, err)

	holder := license.Open(filepath.Join(dir, "license.dat"), codec)
	require.NoError(t, holder.Save(content, false))
	require.True(t, holder.Load())
	require.True(t, holder.IsLicensed())
	require.Equal(t, "alice", holder.Username())
	require.Equal(t, "machine-1", holder.Current().MachineID)

	require.NoError(t, holder.VerifyOffline("alice", "secret1"))
	require.ErrorIs(t, holder.VerifyOffline("alice", "wrong"), license.ErrPasswordMismatch)
	require.ErrorIs(t, holder.VerifyOffline("bob", "secret1"), license.ErrUsernameMismatch)
}

func TestCorruptLicenseFile(t *testing.T) {
	dir, cleanup := testutil.AcquireStateDir(t)
	defer cleanup()
	codec := envelope.NewCodec(authcrypt.DefaultKey())
	path := filepath.Join(dir, "license.dat")

	require.NoError(t, os.WriteFile(path, []byte("not an envelope"), 0600))
	holder := license.Open(path, codec)
	require.False(t, holder.IsLicensed(), "corrupt license file must load as unlicensed")
}

func TestSaveBackup(t *testing.T) {
	dir, cleanup := testutil.AcquireStateDir(t)
	defer cleanup()
	codec := envelope.NewCodec(authcrypt.DefaultKey())
	path := filepath.Join(dir, "license.dat")

	holder := license.Open(path, codec)
	require.NoError(t, holder.Save("first", false))
	require.NoError(t, holder.Save("second", true))

	prev, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	require.Equal(t, "first", string(prev))
	cur, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(cur))
}

func TestCreateLicenseFromLogin(t *testing.T) {
	dir, cleanup := testutil.AcquireStateDir(t)
	defer cleanup()
	codec := envelope.NewCodec(authcrypt.DefaultKey())

	store := accounts.Open(filepath.Join(dir, "accounts.dat"), codec)
	require.NoError(t, store.Add("alice", "secret1"))
	require.NoError(t, store.Add("carol", "secret3"))
	_, err := store.Toggle("carol")
	require.NoError(t, err)
	snapshot, err := store.Snapshot()
	require.NoError(t, err)

	holder := license.Open(filepath.Join(dir, "license.dat"), codec)
	require.ErrorIs(t, holder.CreateLicenseFromLogin("alice", "secret1", "bogus"), license.ErrInvalidSnapshot)
	require.ErrorIs(t, holder.CreateLicenseFromLogin("nobody", "secret1", snapshot), license.ErrAccountNotFound)
	require.ErrorIs(t, holder.CreateLicenseFromLogin("carol", "secret3", snapshot), license.ErrAccountDisabled)
	require.ErrorIs(t, holder.CreateLicenseFromLogin("alice", "wrong", snapshot), license.ErrPasswordMismatch)
	require.False(t, holder.IsLicensed())

	require.NoError(t, holder.CreateLicenseFromLogin("alice", "secret1", snapshot))
	require.True(t, holder.IsLicensed())
	require.Equal(t, "alice", holder.Username())

	// the saved file survives a reload
	reopened := license.Open(filepath.Join(dir, "license.dat"), codec)
	require.True(t, reopened.IsLicensed())
	require.NoError(t, reopened.VerifyOffline("alice", "secret1"))
}
