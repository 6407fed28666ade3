package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlog/busrecorder/gtfsrt"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "observations.db")
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func observation(vehicleID, routeID string, ts int64) gtfsrt.Observation {
	return gtfsrt.Observation{
		ObservedAt: ts,
		VehicleID:  vehicleID,
		RouteID:    routeID,
		Latitude:   34.019,
		Longitude:  -118.491,
	}
}

func TestOpenIdempotent(t *testing.T) {
	st, path := newTestStore(t)
	ctx := context.Background()

	_, err := st.InsertBatch(ctx, []gtfsrt.Observation{observation("bbb-100", "1", 1700000000)})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopening the same file must not complain about existing schema and
	// must preserve committed rows.
	st2, err := Open(path)
	require.NoError(t, err)
	defer st2.Close()

	n, err := st2.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInsertBatchEmpty(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	written, err := st.InsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, written)

	n, err := st.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInsertBatchWritesAllRows(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	full := observation("bbb-100", "1", 1700000000)
	tripID := "trip-a"
	dir := int32(0)
	seq := int32(4)
	speed := float32(7.2)
	bearing := float32(180)
	full.TripID = &tripID
	full.DirectionID = &dir
	full.CurrentStopSequence = &seq
	full.Speed = &speed
	full.Bearing = &bearing

	bare := observation("bbb-101", "1", 1700000060)

	written, err := st.InsertBatch(ctx, []gtfsrt.Observation{full, bare})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	n, err := st.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Absent optionals must be stored as NULL, not as zero values.
	var nullSpeed int64
	err = st.db.Get(&nullSpeed, `SELECT COUNT(*) FROM observations WHERE speed IS NULL`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nullSpeed)
}

func TestInsertBatchAtomicRollback(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	// Force a mid-batch constraint violation on the second row.
	_, err := st.db.Exec(`CREATE UNIQUE INDEX idx_unique_obs ON observations(vehicle_id, timestamp)`)
	require.NoError(t, err)

	batch := []gtfsrt.Observation{
		observation("bbb-100", "1", 1700000000),
		observation("bbb-100", "1", 1700000000),
		observation("bbb-101", "1", 1700000000),
	}

	_, err = st.InsertBatch(ctx, batch)
	require.Error(t, err)

	n, err := st.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "a failed batch must leave no partial rows")
}

func TestCountForRoute(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	batch := []gtfsrt.Observation{
		observation("bbb-100", "1", 1700000000),
		observation("bbb-101", "1", 1700000000),
		observation("bbb-200", "7", 1700000000),
	}
	_, err := st.InsertBatch(ctx, batch)
	require.NoError(t, err)

	n, err := st.CountForRoute(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = st.CountForRoute(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	total, err := st.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
