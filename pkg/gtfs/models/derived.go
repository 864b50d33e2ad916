package models

import "strings"

// Derived, read-only views over the trip graph. Never persisted.

// TrackEndpoints are the terminal stops of a track, in travel order.
type TrackEndpoints struct {
	Start     string
	End       string
	Direction bool
}

// AgnosticEndpoints are the terminal stops in a fixed (sorted) order,
// so both directions of the same line group together.
type AgnosticEndpoints struct {
	A string
	B string
}

func (e AgnosticEndpoints) Compare(other AgnosticEndpoints) int {
	if c := strings.Compare(e.A, other.A); c != 0 {
		return c
	}
	return strings.Compare(e.B, other.B)
}

// TrackStop is one stop along a track. The display name is redundant with
// the stop id but kept so tracks and schedules sort by name without lookups.
type TrackStop struct {
	StopID   string
	Name     string
	Headsign string
	Pickup   StopPointType
	Dropoff  StopPointType
}

// Track is the physical stop-by-stop path of a trip, without timing.
type Track struct {
	Direction bool
	Stops     []TrackStop
}

// Key returns a canonical identity string for grouping and ordering tracks.
func (t Track) Key() string {
	var b strings.Builder
	if t.Direction {
		b.WriteString("1|")
	} else {
		b.WriteString("0|")
	}
	for i, s := range t.Stops {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.StopID)
	}
	return b.String()
}

// Endpoints returns the sorted and the directional endpoint pair of a track.
func (t Track) Endpoints() (AgnosticEndpoints, TrackEndpoints) {
	first := t.Stops[0].StopID
	last := t.Stops[len(t.Stops)-1].StopID
	directional := TrackEndpoints{Start: first, End: last, Direction: t.Direction}
	if first > last {
		first, last = last, first
	}
	return AgnosticEndpoints{A: first, B: last}, directional
}

// ScheduleStop is the timetable entry for one stop of a schedule.
// Timepoint false means the times are approximate.
type ScheduleStop struct {
	Times     TimeRange
	Timepoint bool
}

// Schedule is a track with its timetable. Times[i] belongs to Track.Stops[i].
type Schedule struct {
	Track
	Times []ScheduleStop
}

// Compare implements the total order used for canonical-schedule selection
// and deterministic display: direction, first stop name, first stop id,
// last stop name, last stop id, first departure, last arrival.
func (s *Schedule) Compare(other *Schedule) int {
	if s.Direction != other.Direction {
		if !s.Direction {
			return -1
		}
		return 1
	}
	sFirst, oFirst := s.Stops[0], other.Stops[0]
	sLast, oLast := s.Stops[len(s.Stops)-1], other.Stops[len(other.Stops)-1]
	if c := strings.Compare(sFirst.Name, oFirst.Name); c != 0 {
		return c
	}
	if c := strings.Compare(sFirst.StopID, oFirst.StopID); c != 0 {
		return c
	}
	if c := strings.Compare(sLast.Name, oLast.Name); c != 0 {
		return c
	}
	if c := strings.Compare(sLast.StopID, oLast.StopID); c != 0 {
		return c
	}
	if d := s.Times[0].Times.Departure - other.Times[0].Times.Departure; d != 0 {
		return sign(d)
	}
	return sign(s.Times[len(s.Times)-1].Times.Arrival - other.Times[len(other.Times)-1].Times.Arrival)
}

// Key returns a canonical identity string for a schedule, extending the
// track key with the timetable.
func (s *Schedule) Key() string {
	var b strings.Builder
	b.WriteString(s.Track.Key())
	b.WriteByte('|')
	for i, t := range s.Times {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(FormatHMS(t.Times.Arrival))
		b.WriteByte('-')
		b.WriteString(FormatHMS(t.Times.Departure))
		if t.Timepoint {
			b.WriteByte('!')
		}
	}
	return b.String()
}

func sign(d int) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}
