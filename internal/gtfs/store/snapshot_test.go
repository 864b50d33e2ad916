package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfitracker-data/internal/common/logger"
	"github.com/tfitracker-data/pkg/gtfs/models"
)

func TestNewSnapshotRequiresPath(t *testing.T) {
	_, err := NewSnapshot("", logger.Nop())
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	snapshot, err := NewSnapshot(path, logger.Nop())
	require.NoError(t, err)

	s := newTestStore(t)
	require.NoError(t, s.UpsertTrip(&models.Trip{ID: "t1", Route: "R1", Service: 100, Direction: true}))
	require.NoError(t, s.UpsertStopTime(&models.StopTime{
		TripID: "t1", Seq: 1, StopID: "S1",
		Times: models.TimeRange{Arrival: 8 * 3600, Departure: 8 * 3600}, Timepoint: true,
	}))
	s.UpsertCalendar(&models.CalendarService{
		ID:   100,
		Week: [7]bool{true, true, true, true, true, false, false},
		Days: models.DaysRange{
			Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC),
		},
		Exceptions: map[time.Time]bool{
			time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC): true,
		},
	})
	s.Registry().FetchedAt = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Registry().Operators["Irish Rail"] = map[string]*models.FileMetadata{
		"https://rail.example/gtfs.zip": {
			FirstSeen: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
			Publisher: "Rail Co",
			Language:  "en",
			Version:   "1.0",
			Validity: models.DaysRange{
				Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	require.NoError(t, snapshot.Save(s.Data()))

	loaded, err := snapshot.Load()
	require.NoError(t, err)
	assert.Equal(t, s.Data().Agencies, loaded.Agencies)
	assert.Equal(t, s.Data().Calendar, loaded.Calendar)
	assert.Equal(t, s.Data().Stops, loaded.Stops)
	assert.Equal(t, s.Data().Shapes, loaded.Shapes)
	assert.Equal(t, s.Data().Registry, loaded.Registry)

	restored := New()
	restored.MarkChanged()
	restored.Restore(loaded)
	assert.False(t, restored.Changed())
	_, _, trip := restored.FindTrip("t1")
	require.NotNil(t, trip)
	assert.True(t, trip.Direction)
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	snapshot, err := NewSnapshot(filepath.Join(t.TempDir(), "absent.db"), logger.Nop())
	require.NoError(t, err)

	data, err := snapshot.Load()
	require.NoError(t, err)
	assert.Empty(t, data.Agencies)
	assert.NotNil(t, data.Registry.Operators)
}
