package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSchedule(direction bool, stops []TrackStop, times []ScheduleStop) *Schedule {
	return &Schedule{
		Track: Track{Direction: direction, Stops: stops},
		Times: times,
	}
}

func stopAt(arrival, departure int) ScheduleStop {
	return ScheduleStop{Times: TimeRange{Arrival: arrival, Departure: departure}, Timepoint: true}
}

func TestTrackKey(t *testing.T) {
	track := Track{
		Direction: true,
		Stops: []TrackStop{
			{StopID: "8350IR0029", Name: "Bray"},
			{StopID: "8350IR0033", Name: "Greystones"},
		},
	}
	assert.Equal(t, "1|8350IR0029,8350IR0033", track.Key())

	track.Direction = false
	assert.Equal(t, "0|8350IR0029,8350IR0033", track.Key())
}

func TestTrackEndpoints(t *testing.T) {
	track := Track{
		Direction: true,
		Stops: []TrackStop{
			{StopID: "Z", Name: "Howth"},
			{StopID: "M", Name: "Connolly"},
			{StopID: "A", Name: "Bray"},
		},
	}
	agnostic, directional := track.Endpoints()
	assert.Equal(t, AgnosticEndpoints{A: "A", B: "Z"}, agnostic)
	assert.Equal(t, TrackEndpoints{Start: "Z", End: "A", Direction: true}, directional)
}

func TestAgnosticEndpointsCompare(t *testing.T) {
	a := AgnosticEndpoints{A: "A", B: "Z"}
	b := AgnosticEndpoints{A: "A", B: "Y"}
	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestScheduleCompare(t *testing.T) {
	stops := []TrackStop{
		{StopID: "1", Name: "Bray"},
		{StopID: "2", Name: "Howth"},
	}

	t.Run("direction dominates", func(t *testing.T) {
		inbound := makeSchedule(false, stops, []ScheduleStop{stopAt(9*3600, 9*3600), stopAt(10*3600, 10*3600)})
		outbound := makeSchedule(true, stops, []ScheduleStop{stopAt(8*3600, 8*3600), stopAt(9*3600, 9*3600)})
		assert.Equal(t, -1, inbound.Compare(outbound))
		assert.Equal(t, 1, outbound.Compare(inbound))
	})

	t.Run("stop names before times", func(t *testing.T) {
		early := makeSchedule(false,
			[]TrackStop{{StopID: "1", Name: "Howth"}, {StopID: "2", Name: "Bray"}},
			[]ScheduleStop{stopAt(6*3600, 6*3600), stopAt(7*3600, 7*3600)})
		late := makeSchedule(false, stops,
			[]ScheduleStop{stopAt(20*3600, 20*3600), stopAt(21*3600, 21*3600)})
		// "Bray" sorts before "Howth" regardless of departure times
		assert.Equal(t, 1, early.Compare(late))
	})

	t.Run("first departure breaks ties", func(t *testing.T) {
		// same endpoints: the 08:00 departure with the later arrival still
		// sorts first because departure is compared before arrival
		a := makeSchedule(false, stops, []ScheduleStop{stopAt(8*3600, 8*3600), stopAt(8*3600+30*60, 8*3600+30*60)})
		b := makeSchedule(false, stops, []ScheduleStop{stopAt(8*3600+5*60, 8*3600+5*60), stopAt(8*3600+28*60, 8*3600+28*60)})
		assert.Equal(t, -1, a.Compare(b))
		assert.Equal(t, 1, b.Compare(a))
	})

	t.Run("last arrival is the final tiebreaker", func(t *testing.T) {
		a := makeSchedule(false, stops, []ScheduleStop{stopAt(8*3600, 8*3600), stopAt(8*3600+25*60, 8*3600+25*60)})
		b := makeSchedule(false, stops, []ScheduleStop{stopAt(8*3600, 8*3600), stopAt(8*3600+30*60, 8*3600+30*60)})
		assert.Equal(t, -1, a.Compare(b))
		assert.Equal(t, 0, a.Compare(a))
	})
}

func TestScheduleKey(t *testing.T) {
	s := makeSchedule(true,
		[]TrackStop{{StopID: "1", Name: "Bray"}, {StopID: "2", Name: "Howth"}},
		[]ScheduleStop{
			{Times: TimeRange{Arrival: 8 * 3600, Departure: 8 * 3600}, Timepoint: true},
			{Times: TimeRange{Arrival: 8*3600 + 30*60, Departure: 8*3600 + 30*60}},
		})
	key := s.Key()
	require.Contains(t, key, "1|1,2|")
	assert.Equal(t, "1|1,2|08:00:00-08:00:00!,08:30:00-08:30:00", key)

	// distinct timetables on the same track produce distinct keys
	other := makeSchedule(true,
		[]TrackStop{{StopID: "1", Name: "Bray"}, {StopID: "2", Name: "Howth"}},
		[]ScheduleStop{
			{Times: TimeRange{Arrival: 9 * 3600, Departure: 9 * 3600}, Timepoint: true},
			{Times: TimeRange{Arrival: 9*3600 + 30*60, Departure: 9*3600 + 30*60}},
		})
	assert.NotEqual(t, key, other.Key())
}
