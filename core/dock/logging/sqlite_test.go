package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movements.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	ctx := context.Background()
	in := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, Movement{
		ID: "id-1", RecordID: "V1-1", VehicleNumber: "V1", DockNumber: 1, Source: "AAA", DockIn: in,
	}))
	require.NoError(t, store.Append(ctx, Movement{
		ID: "id-2", RecordID: "V2-2", VehicleNumber: "V2", DockNumber: 2, Source: "BBB", DockIn: in.Add(time.Minute),
	}))

	open, err := store.Query(ctx, Query{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 2)

	out := in.Add(30 * time.Minute)
	require.NoError(t, store.MarkDockOut(ctx, "V1-1", out))

	open, err = store.Query(ctx, Query{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "V2", open[0].VehicleNumber)

	all, err := store.Query(ctx, Query{VehicleNumber: "V1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].DockOut)
	require.Equal(t, out.UnixNano(), all[0].DockOut.UnixNano())
}

func TestSQLiteStoreMarkDockOutUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movements.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	err = store.MarkDockOut(context.Background(), "nope-1", time.Now())
	require.Error(t, err)
}
