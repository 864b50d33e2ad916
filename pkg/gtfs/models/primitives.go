package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Point is a location on Earth, WGS84 decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

func NewPoint(latitude, longitude float64) (Point, error) {
	if latitude < -90.0 || latitude > 90.0 || longitude < -180.0 || longitude > 180.0 {
		return Point{}, fmt.Errorf("invalid latitude/longitude: %f/%f", latitude, longitude)
	}
	return Point{Latitude: latitude, Longitude: longitude}, nil
}

// DaysRange is an inclusive range of calendar days, Start <= End.
type DaysRange struct {
	Start time.Time
	End   time.Time
}

func NewDaysRange(start, end time.Time) (DaysRange, error) {
	if start.After(end) {
		return DaysRange{}, fmt.Errorf("invalid date range: %s > %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return DaysRange{Start: start, End: end}, nil
}

// Contains reports whether day falls inside the range, endpoints included.
func (r DaysRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// Compare orders ranges by start date, then end date.
func (r DaysRange) Compare(other DaysRange) int {
	if !r.Start.Equal(other.Start) {
		if r.Start.Before(other.Start) {
			return -1
		}
		return 1
	}
	if r.End.Equal(other.End) {
		return 0
	}
	if r.End.Before(other.End) {
		return -1
	}
	return 1
}

// ParseGTFSDate parses the YYYYMMDD date form used by GTFS tables.
// The result is a UTC midnight time value, used as a pure calendar date.
func ParseGTFSDate(value string) (time.Time, error) {
	day, err := time.Parse("20060102", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing GTFS date %q: %w", value, err)
	}
	return day, nil
}

// ParseHMS converts an 'H:MM:SS' literal to seconds since midnight.
// Hours have no upper bound (post-midnight trips use values over 24),
// minutes and seconds must be 0-59.
func ParseHMS(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad time literal %q", value)
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	s, errS := strconv.Atoi(parts[2])
	if errH != nil || errM != nil || errS != nil {
		return 0, fmt.Errorf("bad time literal %q", value)
	}
	if h < 0 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("bad time literal %q: minute and second must be 0-59", value)
	}
	return h*3600 + m*60 + s, nil
}

// FormatHMS renders seconds since midnight as 'HH:MM:SS'.
// Values of a day or more keep growing the hour field.
func FormatHMS(sec int) string {
	if sec < 0 {
		return "??:??:??"
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// TimeRange is the arrival/departure pair of one stop visit,
// seconds since midnight. Departure never precedes arrival.
type TimeRange struct {
	Arrival   int
	Departure int
}

func NewTimeRange(arrival, departure int) (TimeRange, error) {
	if arrival < 0 || departure < 0 {
		return TimeRange{}, fmt.Errorf("negative stop time: arrival %d departure %d", arrival, departure)
	}
	if departure < arrival {
		return TimeRange{}, fmt.Errorf("departure %s before arrival %s",
			FormatHMS(departure), FormatHMS(arrival))
	}
	return TimeRange{Arrival: arrival, Departure: departure}, nil
}

// WeekdayIndex maps a calendar day to the GTFS weekly index, Monday == 0.
func WeekdayIndex(day time.Time) int {
	return (int(day.Weekday()) + 6) % 7
}
