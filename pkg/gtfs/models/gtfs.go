package models

import (
	"fmt"
	"time"
)

// RouteType is the GTFS route_type code. Base codes are listed below;
// feeds may also carry extended codes (100-1799) which pass through as-is.
type RouteType int

const (
	RouteLightRail  RouteType = 0
	RouteSubway     RouteType = 1
	RouteRail       RouteType = 2
	RouteBus        RouteType = 3
	RouteFerry      RouteType = 4
	RouteCableTram  RouteType = 5
	RouteAerialLift RouteType = 6
	RouteFunicular  RouteType = 7
	RouteTrolleybus RouteType = 11
	RouteMonorail   RouteType = 12
)

func ParseRouteType(code int) (RouteType, error) {
	if code < 0 || code > 1799 {
		return 0, fmt.Errorf("invalid route_type: %d", code)
	}
	return RouteType(code), nil
}

// LocationType is the GTFS stops.txt location_type code.
type LocationType int

const (
	LocationStop         LocationType = 0
	LocationStation      LocationType = 1
	LocationEntrance     LocationType = 2
	LocationGenericNode  LocationType = 3
	LocationBoardingArea LocationType = 4
)

func ParseLocationType(code int) (LocationType, error) {
	if code < 0 || code > 4 {
		return 0, fmt.Errorf("invalid location_type: %d", code)
	}
	return LocationType(code), nil
}

// StopPointType is the GTFS pickup_type / drop_off_type code.
type StopPointType int

const (
	StopPointRegular      StopPointType = 0
	StopPointNotAvailable StopPointType = 1
	StopPointAgencyOnly   StopPointType = 2
	StopPointDriverOnly   StopPointType = 3
)

func ParseStopPointType(code int) (StopPointType, error) {
	if code < 0 || code > 3 {
		return 0, fmt.Errorf("invalid pickup/drop-off type: %d", code)
	}
	return StopPointType(code), nil
}

// FileMetadata describes one loaded version of a feed ZIP, from feed_info.txt.
// FirstSeen is the time this exact version was first parsed; an identical
// re-parse keeps the original timestamp.
type FileMetadata struct {
	FirstSeen time.Time
	Publisher string
	URL       string
	Language  string
	Version   string
	Email     string
	Validity  DaysRange
}

// SameVersion reports whether an incoming feed_info tuple matches this one.
func (m *FileMetadata) SameVersion(other *FileMetadata) bool {
	return m.Version == other.Version &&
		m.Publisher == other.Publisher &&
		m.Language == other.Language &&
		m.Validity.Start.Equal(other.Validity.Start) &&
		m.Validity.End.Equal(other.Validity.End)
}

// Registry is the known operator/link table plus per-link feed metadata.
// A nil metadata entry means the link is known but no feed was parsed yet.
type Registry struct {
	FetchedAt time.Time
	Operators map[string]map[string]*FileMetadata
}

// Agency groups the routes of one transit operator.
type Agency struct {
	ID       int
	Name     string
	URL      string
	Timezone string
	Routes   map[string]*Route
}

// Route is a group of trips displayed to riders as a single service.
type Route struct {
	ID          string
	Agency      int
	ShortName   string
	LongName    string
	Type        RouteType
	Description string
	URL         string
	Color       string
	TextColor   string
	Trips       map[string]*Trip
}

// Trip is one scheduled run over a route. Stops are keyed by stop_sequence
// and expected to be dense starting at 1.
type Trip struct {
	ID        string
	Route     string
	Agency    int
	Service   int
	Direction bool
	Shape     string
	Block     string
	Headsign  string
	ShortName string
	Stops     map[int]*StopTime
}

// StopTime is one timed stop visit within a trip.
type StopTime struct {
	TripID    string
	Seq       int
	StopID    string
	Times     TimeRange
	Timepoint bool
	Headsign  string
	Pickup    StopPointType
	Dropoff   StopPointType
}

// BaseStop is a physical stop, station or station child location.
type BaseStop struct {
	ID          string
	Parent      string
	Code        string
	Name        string
	Point       Point
	Zone        string
	Description string
	URL         string
	Location    LocationType
}

// CalendarService is a weekly service pattern with date exceptions.
// Week is indexed Monday..Sunday; Exceptions maps a date to has-service.
type CalendarService struct {
	ID         int
	Week       [7]bool
	Days       DaysRange
	Exceptions map[time.Time]bool
}

// ActiveOn reports whether the service runs on the given day.
// An exception entry for the day wins over the weekday bit.
func (s *CalendarService) ActiveOn(day time.Time) bool {
	if !s.Days.Contains(day) {
		return false
	}
	if has, ok := s.Exceptions[day]; ok {
		return has
	}
	return s.Week[WeekdayIndex(day)]
}

// ShapePoint is one point in a travel path.
type ShapePoint struct {
	ShapeID  string
	Seq      int
	Point    Point
	Distance float64
}

// Shape is a vehicle travel path (route alignment), keyed by point sequence.
type Shape struct {
	ID     string
	Points map[int]*ShapePoint
}

// Data is the whole normalized feed graph, the unit of snapshot persistence.
type Data struct {
	SavedAt  time.Time
	Registry Registry
	Agencies map[int]*Agency
	Calendar map[int]*CalendarService
	Shapes   map[string]*Shape
	Stops    map[string]*BaseStop
}

func NewData() *Data {
	return &Data{
		Registry: Registry{Operators: map[string]map[string]*FileMetadata{}},
		Agencies: map[int]*Agency{},
		Calendar: map[int]*CalendarService{},
		Shapes:   map[string]*Shape{},
		Stops:    map[string]*BaseStop{},
	}
}
