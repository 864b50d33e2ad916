// Package dart derives the canonical physical-train schedule for one route
// from the raw trip graph. The motivating consumer is the Dublin DART line
// of the Irish Rail feed, but the engine works for any route.
package dart

import (
	"fmt"
	"sort"
	"time"

	"github.com/tfitracker-data/internal/gtfs/store"
	"github.com/tfitracker-data/pkg/gtfs/models"
)

// RouteSpec names the route the engine condenses.
type RouteSpec struct {
	AgencyName string
	RouteType  models.RouteType
	ShortName  string
	LongName   string
}

// DARTRoute is the default route of interest.
func DARTRoute() RouteSpec {
	return RouteSpec{
		AgencyName: "Iarnród Éireann / Irish Rail",
		RouteType:  models.RouteRail,
		ShortName:  "DART",
		LongName:   "Bray - Howth",
	}
}

// ConsistencyError is a keying bug: the condensed structure lost or
// duplicated trips relative to the route.
type ConsistencyError struct {
	Route      string
	Expected   int
	Walked     int
	PerService int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf(
		"trip count mismatch for route %s: %d trips, %d in condensed structure, %d per service",
		e.Route, e.Expected, e.Walked, e.PerService)
}

// Group is one fully-keyed leaf of the condensed structure:
// endpoints, track, trip short name, service, schedule, and the raw trips
// that share all of them.
type Group struct {
	Endpoints   models.AgnosticEndpoints
	Directional models.TrackEndpoints
	Track       models.Track
	Name        string
	Service     int
	Schedule    *models.Schedule
	Trips       []*models.Trip
}

// Train is one physical vehicle run: consecutive groups sharing
// (endpoints, track, name), with the canonical (earliest) schedule picked
// out of the variants.
type Train struct {
	Endpoints models.AgnosticEndpoints
	Track     models.Track
	Name      string
	Canonical *models.Schedule
	Variants  []*Group
}

// Engine holds the condensed trip structure for one route.
type Engine struct {
	store  *store.Store
	agency *models.Agency
	route  *models.Route
	groups []*Group // sorted per the traversal order
}

// New resolves the route and builds the condensed structure. Fails when the
// route is missing from the store or when the grouping loses trips.
func New(st *store.Store, spec RouteSpec) (*Engine, error) {
	agency, route := st.FindAgencyRoute(spec.AgencyName, spec.RouteType, spec.ShortName, spec.LongName)
	if agency == nil || route == nil {
		return nil, fmt.Errorf("store does not have route %q of agency %q",
			spec.ShortName, spec.AgencyName)
	}
	e := &Engine{store: st, agency: agency, route: route}
	if err := e.build(); err != nil {
		return nil, err
	}
	return e, nil
}

// Agency returns the agency owning the condensed route.
func (e *Engine) Agency() *models.Agency { return e.agency }

// Route returns the condensed route.
func (e *Engine) Route() *models.Route { return e.route }

func (e *Engine) build() error {
	byKey := map[string]*Group{}
	for _, trip := range e.route.Trips {
		track, schedule, err := e.ScheduleFromTrip(trip)
		if err != nil {
			return err
		}
		endpoints, directional := track.Endpoints()
		key := fmt.Sprintf("%s|%s\x00%s\x00%s\x00%d\x00%s",
			endpoints.A, endpoints.B, track.Key(), trip.ShortName, trip.Service, schedule.Key())
		group, ok := byKey[key]
		if !ok {
			group = &Group{
				Endpoints:   endpoints,
				Directional: directional,
				Track:       track,
				Name:        trip.ShortName,
				Service:     trip.Service,
				Schedule:    schedule,
			}
			byKey[key] = group
		}
		group.Trips = append(group.Trips, trip)
	}

	e.groups = make([]*Group, 0, len(byKey))
	for _, group := range byKey {
		sort.Slice(group.Trips, func(a, b int) bool {
			return group.Trips[a].ID < group.Trips[b].ID
		})
		e.groups = append(e.groups, group)
	}
	// explicit multi-key sort: endpoints, track, name, service, schedule
	sort.Slice(e.groups, func(a, b int) bool {
		ga, gb := e.groups[a], e.groups[b]
		if c := ga.Endpoints.Compare(gb.Endpoints); c != 0 {
			return c < 0
		}
		if ka, kb := ga.Track.Key(), gb.Track.Key(); ka != kb {
			return ka < kb
		}
		if ga.Name != gb.Name {
			return ga.Name < gb.Name
		}
		if ga.Service != gb.Service {
			return ga.Service < gb.Service
		}
		return ga.Schedule.Compare(gb.Schedule) < 0
	})

	return e.checkConservation()
}

// checkConservation verifies no trip was lost or duplicated by the keying.
func (e *Engine) checkConservation() error {
	walked := 0
	perService := map[int]int{}
	for _, group := range e.groups {
		walked += len(group.Trips)
		perService[group.Service] += len(group.Trips)
	}
	perServiceTotal := 0
	for _, n := range perService {
		perServiceTotal += n
	}
	if walked != len(e.route.Trips) || perServiceTotal != len(e.route.Trips) {
		return &ConsistencyError{
			Route:      e.route.ID,
			Expected:   len(e.route.Trips),
			Walked:     walked,
			PerService: perServiceTotal,
		}
	}
	return nil
}

// ScheduleFromTrip builds the track and schedule views of one trip.
// Stop sequences must be dense from 1.
func (e *Engine) ScheduleFromTrip(trip *models.Trip) (models.Track, *models.Schedule, error) {
	stops := make([]models.TrackStop, 0, len(trip.Stops))
	times := make([]models.ScheduleStop, 0, len(trip.Stops))
	for seq := 1; seq <= len(trip.Stops); seq++ {
		stopTime, ok := trip.Stops[seq]
		if !ok {
			return models.Track{}, nil, fmt.Errorf(
				"trip %s has a gap in stop sequences at %d", trip.ID, seq)
		}
		name, err := e.store.StopNameTranslator(stopTime.StopID)
		if err != nil {
			return models.Track{}, nil, err
		}
		stops = append(stops, models.TrackStop{
			StopID:   stopTime.StopID,
			Name:     name,
			Headsign: stopTime.Headsign,
			Pickup:   stopTime.Pickup,
			Dropoff:  stopTime.Dropoff,
		})
		times = append(times, models.ScheduleStop{
			Times:     stopTime.Times,
			Timepoint: stopTime.Timepoint,
		})
	}
	track := models.Track{Direction: trip.Direction, Stops: stops}
	return track, &models.Schedule{Track: track, Times: times}, nil
}

// Services returns the set of services used by the route's trips.
func (e *Engine) Services() map[int]bool {
	services := map[int]bool{}
	for _, trip := range e.route.Trips {
		services[trip.Service] = true
	}
	return services
}

// ServicesForDay intersects the route's services with the calendar day.
func (e *Engine) ServicesForDay(day time.Time) map[int]bool {
	active := e.store.ServicesForDay(day)
	services := map[int]bool{}
	for service := range e.Services() {
		if active[service] {
			services[service] = true
		}
	}
	return services
}

// WalkTrips returns every leaf group in deterministic order, optionally
// restricted to a set of service ids. A nil filter keeps everything.
func (e *Engine) WalkTrips(serviceFilter map[int]bool) []*Group {
	if serviceFilter == nil {
		return e.groups
	}
	var out []*Group
	for _, group := range e.groups {
		if serviceFilter[group.Service] {
			out = append(out, group)
		}
	}
	return out
}

// WalkTrains merges consecutive groups sharing (endpoints, track, name)
// into physical trains. The canonical schedule of a train is the minimum
// among its variants by the schedule total order.
func (e *Engine) WalkTrains(serviceFilter map[int]bool) []*Train {
	var trains []*Train
	var current *Train
	flush := func() {
		if current != nil {
			trains = append(trains, current)
			current = nil
		}
	}
	for _, group := range e.WalkTrips(serviceFilter) {
		if current == nil ||
			current.Endpoints != group.Endpoints ||
			current.Track.Key() != group.Track.Key() ||
			current.Name != group.Name {
			flush()
			current = &Train{
				Endpoints: group.Endpoints,
				Track:     group.Track,
				Name:      group.Name,
				Canonical: group.Schedule,
			}
		}
		if group.Schedule.Compare(current.Canonical) < 0 {
			current.Canonical = group.Schedule
		}
		current.Variants = append(current.Variants, group)
	}
	flush() // the last train is yielded too
	return trains
}

// ServiceTrip tags a raw trip with the service it ran under.
type ServiceTrip struct {
	Service int
	Trip    *models.Trip
}

// DayEntry is one schedule of a day with every (service, trip) running it.
type DayEntry struct {
	Schedule *models.Schedule
	Trips    []ServiceTrip
}

// DaySchedule returns the services active for the route on a day and the
// schedules running, in schedule order.
func (e *Engine) DaySchedule(day time.Time) (map[int]bool, []DayEntry) {
	services := e.ServicesForDay(day)
	byKey := map[string]*DayEntry{}
	var order []string
	for _, group := range e.WalkTrips(services) {
		key := group.Schedule.Key()
		entry, ok := byKey[key]
		if !ok {
			entry = &DayEntry{Schedule: group.Schedule}
			byKey[key] = entry
			order = append(order, key)
		}
		for _, trip := range group.Trips {
			entry.Trips = append(entry.Trips, ServiceTrip{Service: group.Service, Trip: trip})
		}
	}
	entries := make([]DayEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, *byKey[key])
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Schedule.Compare(entries[b].Schedule) < 0
	})
	for idx := range entries {
		sort.Slice(entries[idx].Trips, func(a, b int) bool {
			ta, tb := entries[idx].Trips[a], entries[idx].Trips[b]
			if ta.Service != tb.Service {
				return ta.Service < tb.Service
			}
			return ta.Trip.ID < tb.Trip.ID
		})
	}
	return services, entries
}
