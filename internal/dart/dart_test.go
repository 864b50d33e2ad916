package dart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfitracker-data/internal/gtfs/store"
	"github.com/tfitracker-data/pkg/gtfs/models"
)

func testSpec() RouteSpec {
	return RouteSpec{
		AgencyName: "Irish Rail",
		RouteType:  models.RouteRail,
		ShortName:  "DART",
		LongName:   "Bray - Howth",
	}
}

func hms(h, m int) int { return h*3600 + m*60 }

func addTrip(t *testing.T, st *store.Store, id string, direction bool, name string, service int, stops []string, times []int) {
	t.Helper()
	require.NoError(t, st.UpsertTrip(&models.Trip{
		ID: id, Route: "R1", Service: service, Direction: direction, ShortName: name,
	}))
	for idx, stopID := range stops {
		require.NoError(t, st.UpsertStopTime(&models.StopTime{
			TripID: id, Seq: idx + 1, StopID: stopID,
			Times:     models.TimeRange{Arrival: times[idx], Departure: times[idx]},
			Timepoint: true,
		}))
	}
}

// newTestStore builds a two-service route: t1 and t3 share one weekday
// schedule, t2 runs a weekend variant of the same train, t4 is the return
// working under a different short name.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New()
	st.UpsertAgency(&models.Agency{ID: 1, Name: "Irish Rail", URL: "https://irishrail.ie", Timezone: "Europe/Dublin"})
	require.NoError(t, st.UpsertRoute(&models.Route{
		ID: "R1", Agency: 1, ShortName: "DART", LongName: "Bray - Howth", Type: models.RouteRail,
	}))
	for _, stop := range []*models.BaseStop{
		{ID: "ST1", Code: "BRAY", Name: "Bray"},
		{ID: "ST2", Code: "KILNY", Name: "Killiney"},
		{ID: "ST3", Code: "HOWTH", Name: "Howth"},
	} {
		require.NoError(t, st.UpsertBaseStop(stop))
	}

	validity := models.DaysRange{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC),
	}
	st.UpsertCalendar(&models.CalendarService{
		ID: 100, Week: [7]bool{true, true, true, true, true, false, false}, Days: validity,
	})
	st.UpsertCalendar(&models.CalendarService{
		ID: 200, Week: [7]bool{false, false, false, false, false, true, true}, Days: validity,
	})

	northbound := []string{"ST1", "ST2", "ST3"}
	southbound := []string{"ST3", "ST2", "ST1"}
	addTrip(t, st, "t1", true, "E108", 100, northbound, []int{hms(8, 0), hms(8, 15), hms(8, 30)})
	addTrip(t, st, "t2", true, "E108", 200, northbound, []int{hms(8, 5), hms(8, 18), hms(8, 28)})
	addTrip(t, st, "t3", true, "E108", 100, northbound, []int{hms(8, 0), hms(8, 15), hms(8, 30)})
	addTrip(t, st, "t4", false, "E202", 100, southbound, []int{hms(9, 0), hms(9, 15), hms(9, 30)})
	return st
}

func TestNewUnknownRoute(t *testing.T) {
	st := store.New()
	_, err := New(st, testSpec())
	assert.ErrorContains(t, err, "store does not have route")
}

func TestDARTRoute(t *testing.T) {
	spec := DARTRoute()
	assert.Equal(t, "Iarnród Éireann / Irish Rail", spec.AgencyName)
	assert.Equal(t, models.RouteRail, spec.RouteType)
	assert.Equal(t, "DART", spec.ShortName)
	assert.Equal(t, "Bray - Howth", spec.LongName)
}

func TestWalkTripsOrderAndConservation(t *testing.T) {
	engine, err := New(newTestStore(t), testSpec())
	require.NoError(t, err)

	groups := engine.WalkTrips(nil)
	require.Len(t, groups, 3)

	// identical schedules collapse into one group
	total := 0
	for _, group := range groups {
		total += len(group.Trips)
	}
	assert.Equal(t, len(engine.Route().Trips), total)

	// southbound track key sorts first, then the weekday group before the
	// weekend one of the same train
	assert.False(t, groups[0].Track.Direction)
	assert.Equal(t, "E202", groups[0].Name)
	assert.Equal(t, 100, groups[1].Service)
	assert.Equal(t, []string{"t1", "t3"}, tripIDs(groups[1].Trips))
	assert.Equal(t, 200, groups[2].Service)

	// repeated walks return the same deterministic order
	again := engine.WalkTrips(nil)
	for idx := range groups {
		assert.Same(t, groups[idx], again[idx])
	}
}

func tripIDs(trips []*models.Trip) []string {
	ids := make([]string, len(trips))
	for idx, trip := range trips {
		ids[idx] = trip.ID
	}
	return ids
}

func TestWalkTripsServiceFilter(t *testing.T) {
	engine, err := New(newTestStore(t), testSpec())
	require.NoError(t, err)

	groups := engine.WalkTrips(map[int]bool{200: true})
	require.Len(t, groups, 1)
	assert.Equal(t, 200, groups[0].Service)

	assert.Empty(t, engine.WalkTrips(map[int]bool{}))
}

func TestWalkTrains(t *testing.T) {
	engine, err := New(newTestStore(t), testSpec())
	require.NoError(t, err)

	trains := engine.WalkTrains(nil)
	require.Len(t, trains, 2)

	// the last train must be flushed out of the merge too
	last := trains[len(trains)-1]
	assert.Equal(t, "E108", last.Name)
	require.Len(t, last.Variants, 2)

	// canonical is the earliest-departing variant, even though the other
	// one arrives earlier
	assert.Equal(t, hms(8, 0), last.Canonical.Times[0].Times.Departure)
	assert.Equal(t, hms(8, 30), last.Canonical.Times[len(last.Canonical.Times)-1].Times.Arrival)

	first := trains[0]
	assert.Equal(t, "E202", first.Name)
	assert.Len(t, first.Variants, 1)
	assert.Same(t, first.Variants[0].Schedule, first.Canonical)
}

func TestServicesForDay(t *testing.T) {
	engine, err := New(newTestStore(t), testSpec())
	require.NoError(t, err)

	assert.Equal(t, map[int]bool{100: true, 200: true}, engine.Services())

	monday := time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, map[int]bool{100: true}, engine.ServicesForDay(monday))

	saturday := time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, map[int]bool{200: true}, engine.ServicesForDay(saturday))

	outside := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, engine.ServicesForDay(outside))
}

func TestDaySchedule(t *testing.T) {
	engine, err := New(newTestStore(t), testSpec())
	require.NoError(t, err)

	t.Run("weekday", func(t *testing.T) {
		services, entries := engine.DaySchedule(time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, map[int]bool{100: true}, services)
		require.Len(t, entries, 2)

		// schedule order puts the southbound run first
		assert.False(t, entries[0].Schedule.Direction)
		require.Len(t, entries[0].Trips, 1)
		assert.Equal(t, "t4", entries[0].Trips[0].Trip.ID)

		require.Len(t, entries[1].Trips, 2)
		assert.Equal(t, "t1", entries[1].Trips[0].Trip.ID)
		assert.Equal(t, "t3", entries[1].Trips[1].Trip.ID)
		for _, st := range entries[1].Trips {
			assert.Equal(t, 100, st.Service)
		}
	})

	t.Run("weekend", func(t *testing.T) {
		services, entries := engine.DaySchedule(time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, map[int]bool{200: true}, services)
		require.Len(t, entries, 1)
		assert.Equal(t, hms(8, 5), entries[0].Schedule.Times[0].Times.Departure)
	})

	t.Run("no service", func(t *testing.T) {
		services, entries := engine.DaySchedule(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
		assert.Empty(t, services)
		assert.Empty(t, entries)
	})
}

func TestScheduleFromTripGap(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpsertTrip(&models.Trip{
		ID: "t9", Route: "R1", Service: 100, Direction: true, ShortName: "E999",
	}))
	require.NoError(t, st.UpsertStopTime(&models.StopTime{
		TripID: "t9", Seq: 1, StopID: "ST1",
		Times: models.TimeRange{Arrival: hms(10, 0), Departure: hms(10, 0)}, Timepoint: true,
	}))
	require.NoError(t, st.UpsertStopTime(&models.StopTime{
		TripID: "t9", Seq: 3, StopID: "ST3",
		Times: models.TimeRange{Arrival: hms(10, 30), Departure: hms(10, 30)}, Timepoint: true,
	}))

	_, err := New(st, testSpec())
	assert.ErrorContains(t, err, "gap in stop sequences")
}

func TestScheduleFromTripUnknownStop(t *testing.T) {
	st := newTestStore(t)
	_, _, trip := st.FindTrip("t1")
	require.NotNil(t, trip)
	trip.Stops[2] = &models.StopTime{
		TripID: "t1", Seq: 2, StopID: "ST9",
		Times: models.TimeRange{Arrival: hms(8, 15), Departure: hms(8, 15)},
	}

	_, err := New(st, testSpec())
	assert.ErrorContains(t, err, "invalid stop code")
}
