package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andrebq/lockbox/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordAndTail(t *testing.T) {
	dir, cleanup := testutil.AcquireStateDir(t)
	defer cleanup()
	ctx := context.Background()

	log, err := Open(ctx, filepath.Join(dir, "audit.db"))
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Record(ctx, KindVerify, "alice", false, "incorrect password"))
	require.NoError(t, log.Record(ctx, KindVerify, "alice", true, ""))
	require.NoError(t, log.Record(ctx, KindToken, "alice", true, ""))

	entries, err := log.Tail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, KindToken, entries[0].Kind, "tail must return newest first")
	require.Equal(t, KindVerify, entries[1].Kind)
	require.True(t, entries[1].OK)

	entries, err = log.Tail(ctx, 100)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.False(t, entries[2].OK)
	require.Equal(t, "incorrect password", entries[2].Detail)
	require.NotEmpty(t, entries[2].When)
}
