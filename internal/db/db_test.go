package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous, "NORMAL")

	var tempStore int
	require.NoError(t, db.QueryRow("PRAGMA temp_store").Scan(&tempStore))
	assert.Equal(t, 2, tempStore, "MEMORY")
}

func TestMigrations(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, db.migrateDown())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, db.MigrateUp())
	require.NoError(t, db.MigrateUp(), "second run is a no-op")
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestReopenExistingDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	_, err = db.RecordCapture(CaptureRecord{Name: "a", Path: "spec_data/a.txt", CapturedAt: time.Unix(10, 0)})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	recs, err := db.Captures(0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRecordCapture(t *testing.T) {
	db := newTestDB(t)
	at := time.Date(2024, 3, 5, 14, 7, 9, 123456789, time.UTC)

	want := CaptureRecord{
		Name:          "2024-03-05 14:07:09",
		Path:          "spec_data/2024-03-05 14:07:09.txt",
		CapturedAt:    at,
		IntegrationUs: 500000,
		Frames:        4,
		Smoother:      "gaussian(tau=1)",
		SmootherParam: 1,
		Pixels:        2047,
		Dark:          true,
		DeviceSerial:  "STS01234",
	}
	id, err := db.RecordCapture(want)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := db.CaptureByName(want.Name)
	require.NoError(t, err)
	want.ID = id
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CaptureByName() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordCapture_Defaults(t *testing.T) {
	db := newTestDB(t)

	_, err := db.RecordCapture(CaptureRecord{Name: "x"})
	assert.Error(t, err)

	_, err = db.RecordCapture(CaptureRecord{Name: "x", Path: "x.txt", CapturedAt: time.Unix(1, 0)})
	require.NoError(t, err)
	got, err := db.CaptureByName("x")
	require.NoError(t, err)
	assert.Equal(t, "none", got.Smoother)
}

func TestCaptures_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		_, err := db.RecordCapture(CaptureRecord{Name: name, Path: name + ".txt", CapturedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	// same name saved again later replaces it for lookups
	_, err := db.RecordCapture(CaptureRecord{Name: "first", Path: "first-2.txt", CapturedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	all, err := db.Captures(0)
	require.NoError(t, err)
	var names []string
	for _, r := range all {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"first", "third", "second", "first"}, names)

	two, err := db.Captures(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	got, err := db.CaptureByName("first")
	require.NoError(t, err)
	assert.Equal(t, "first-2.txt", got.Path)
}

func TestCaptureByName_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.CaptureByName("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCaptureRecord_String(t *testing.T) {
	rec := CaptureRecord{Name: "dark", Path: "spec_data/dark.txt", CapturedAt: time.Unix(0, 0).UTC(), Frames: 1, IntegrationUs: 500000, Smoother: "none", Pixels: 3}
	s := rec.String()
	for _, want := range []string{"1970-01-01T00:00:00Z", "dark", "500000us", "spec_data/dark.txt"} {
		assert.Contains(t, s, want)
	}
}

func TestNewDB_BadPath(t *testing.T) {
	_, err := NewDB(filepath.Join(t.TempDir(), "missing", "dir", "catalog.db"))
	assert.Error(t, err)
}
