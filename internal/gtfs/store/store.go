// Package store holds the normalized feed graph and owns all mutation of it.
// Cross-entity references are id lookups into the arena maps, never shared
// pointers across entities.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tfitracker-data/pkg/gtfs/models"
)

// NotFoundError is a failed stop resolution.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no matches for station %q", e.Query)
}

// AmbiguousError is a stop resolution that matched more than one stop.
type AmbiguousError struct {
	Query      string
	Candidates []string // "id/name", sorted by id
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("station name %q matches stations: %s --- use ID or be more specific",
		e.Query, strings.Join(e.Candidates, ", "))
}

// ReferenceError is a foreign key that does not resolve to a loaded entity.
type ReferenceError struct {
	Entity string
	Ref    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s reference %q was not found", e.Entity, e.Ref)
}

type tripRef struct {
	agency int
	route  string
}

// Store is the entity store. Mutation is single-writer: one ingestion
// session owns the store for its duration. The lookup caches are safe for
// concurrent reads between sessions and must be invalidated at session
// boundaries.
type Store struct {
	data    *models.Data
	changed bool

	mu         sync.RWMutex
	routeCache map[string]int
	tripCache  map[string]tripRef
	nameCache  map[string]string
}

func New() *Store {
	s := &Store{data: models.NewData()}
	s.InvalidateCaches()
	return s
}

// Data exposes the underlying graph for snapshotting and read-only walks.
func (s *Store) Data() *models.Data { return s.data }

// Registry returns the operator/link registry held inside the graph.
func (s *Store) Registry() *models.Registry { return &s.data.Registry }

// Changed reports whether the store was mutated since the last save.
func (s *Store) Changed() bool { return s.changed }

// MarkChanged flags the store as dirty.
func (s *Store) MarkChanged() { s.changed = true }

// MarkSaved clears the dirty flag and stamps the save time.
func (s *Store) MarkSaved() {
	s.changed = false
	s.data.SavedAt = time.Now()
}

// InvalidateCaches drops every memoized lookup. Called at the start and end
// of every mutating session.
func (s *Store) InvalidateCaches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeCache = map[string]int{}
	s.tripCache = map[string]tripRef{}
	s.nameCache = map[string]string{}
}

// UpsertAgency inserts or replaces an agency.
func (s *Store) UpsertAgency(agency *models.Agency) {
	if agency.Routes == nil {
		agency.Routes = map[string]*models.Route{}
	}
	s.data.Agencies[agency.ID] = agency
	s.changed = true
}

// UpsertRoute inserts or replaces a route under its (existing) agency.
func (s *Store) UpsertRoute(route *models.Route) error {
	agency, ok := s.data.Agencies[route.Agency]
	if !ok {
		return &ReferenceError{Entity: "agency", Ref: fmt.Sprintf("%d", route.Agency)}
	}
	if route.Trips == nil {
		route.Trips = map[string]*models.Trip{}
	}
	agency.Routes[route.ID] = route
	s.changed = true
	return nil
}

// UpsertCalendar inserts or replaces a calendar service.
func (s *Store) UpsertCalendar(service *models.CalendarService) {
	if service.Exceptions == nil {
		service.Exceptions = map[time.Time]bool{}
	}
	s.data.Calendar[service.ID] = service
	s.changed = true
}

// AddCalendarException merges one date exception into an existing service.
func (s *Store) AddCalendarException(serviceID int, day time.Time, hasService bool) error {
	service, ok := s.data.Calendar[serviceID]
	if !ok {
		return &ReferenceError{Entity: "service", Ref: fmt.Sprintf("%d", serviceID)}
	}
	service.Exceptions[day] = hasService
	s.changed = true
	return nil
}

// UpsertShapePoint adds a point to a shape, creating the shape on first use.
func (s *Store) UpsertShapePoint(point *models.ShapePoint) {
	shape, ok := s.data.Shapes[point.ShapeID]
	if !ok {
		shape = &models.Shape{ID: point.ShapeID, Points: map[int]*models.ShapePoint{}}
		s.data.Shapes[point.ShapeID] = shape
	}
	shape.Points[point.Seq] = point
	s.changed = true
}

// UpsertTrip inserts or replaces a trip under its (existing) route. The
// owning agency is resolved by scanning, and denormalized onto the trip.
func (s *Store) UpsertTrip(trip *models.Trip) error {
	agency := s.FindRoute(trip.Route)
	if agency == nil {
		return &ReferenceError{Entity: "route", Ref: trip.Route}
	}
	if trip.Stops == nil {
		trip.Stops = map[int]*models.StopTime{}
	}
	trip.Agency = agency.ID
	agency.Routes[trip.Route].Trips[trip.ID] = trip
	s.changed = true
	return nil
}

// UpsertBaseStop inserts or replaces a stop. A parent station, when given,
// must already be loaded: the feed format does not guarantee parents precede
// children, this store requires it.
func (s *Store) UpsertBaseStop(stop *models.BaseStop) error {
	if stop.Parent != "" {
		if _, ok := s.data.Stops[stop.Parent]; !ok {
			return &ReferenceError{Entity: "parent_station", Ref: stop.Parent}
		}
	}
	s.data.Stops[stop.ID] = stop
	s.changed = true
	return nil
}

// UpsertStopTime attaches a timed stop visit to its (existing) trip.
// The referenced base stop must also exist.
func (s *Store) UpsertStopTime(stopTime *models.StopTime) error {
	if _, ok := s.data.Stops[stopTime.StopID]; !ok {
		return &ReferenceError{Entity: "stop", Ref: stopTime.StopID}
	}
	_, _, trip := s.FindTrip(stopTime.TripID)
	if trip == nil {
		return &ReferenceError{Entity: "trip", Ref: stopTime.TripID}
	}
	trip.Stops[stopTime.Seq] = stopTime
	s.changed = true
	return nil
}

// FindRoute returns the agency owning the route, or nil.
func (s *Store) FindRoute(routeID string) *models.Agency {
	s.mu.RLock()
	agencyID, hit := s.routeCache[routeID]
	s.mu.RUnlock()
	if hit {
		return s.data.Agencies[agencyID]
	}
	for _, agency := range s.data.Agencies {
		if _, ok := agency.Routes[routeID]; ok {
			s.mu.Lock()
			s.routeCache[routeID] = agency.ID
			s.mu.Unlock()
			return agency
		}
	}
	return nil
}

// FindTrip returns the (agency, route, trip) owning the trip id, or nils.
func (s *Store) FindTrip(tripID string) (*models.Agency, *models.Route, *models.Trip) {
	s.mu.RLock()
	ref, hit := s.tripCache[tripID]
	s.mu.RUnlock()
	if hit {
		agency := s.data.Agencies[ref.agency]
		route := agency.Routes[ref.route]
		return agency, route, route.Trips[tripID]
	}
	for _, agency := range s.data.Agencies {
		for _, route := range agency.Routes {
			if trip, ok := route.Trips[tripID]; ok {
				s.mu.Lock()
				s.tripCache[tripID] = tripRef{agency: agency.ID, route: route.ID}
				s.mu.Unlock()
				return agency, route, trip
			}
		}
	}
	return nil, nil, nil
}

// StopName returns (code, name, description) for a stop id.
func (s *Store) StopName(stopID string) (code, name, description string, ok bool) {
	stop, found := s.data.Stops[stopID]
	if !found {
		return "", "", "", false
	}
	return stop.Code, stop.Name, stop.Description, true
}

// StopNameTranslator turns a stop id into its display name, failing on
// unknown ids.
func (s *Store) StopNameTranslator(stopID string) (string, error) {
	_, name, _, ok := s.StopName(stopID)
	if !ok || name == "" {
		return "", fmt.Errorf("invalid stop code found: %s", stopID)
	}
	return name, nil
}

// ResolveStop resolves a stop by exact id, or by a case-insensitive
// substring of the stop name that matches exactly one stop. Zero matches and
// multiple matches are errors; the ambiguous error lists every candidate.
func (s *Store) ResolveStop(nameOrID string) (string, error) {
	query := strings.TrimSpace(nameOrID)
	if query == "" {
		return "", &NotFoundError{Query: nameOrID}
	}
	if _, ok := s.data.Stops[query]; ok {
		return query, nil
	}
	s.mu.RLock()
	cached, hit := s.nameCache[query]
	s.mu.RUnlock()
	if hit {
		return cached, nil
	}
	fragment := strings.ToLower(query)
	var matches []string
	for stopID, stop := range s.data.Stops {
		if strings.Contains(strings.ToLower(stop.Name), fragment) {
			matches = append(matches, stopID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Query: query}
	case 1:
		s.mu.Lock()
		s.nameCache[query] = matches[0]
		s.mu.Unlock()
		return matches[0], nil
	default:
		sort.Strings(matches)
		candidates := make([]string, len(matches))
		for i, id := range matches {
			candidates[i] = id + "/" + s.data.Stops[id].Name
		}
		return "", &AmbiguousError{Query: query, Candidates: candidates}
	}
}

// ServicesForDay returns the set of service ids active on a calendar day.
func (s *Store) ServicesForDay(day time.Time) map[int]bool {
	services := map[int]bool{}
	for serviceID, service := range s.data.Calendar {
		if service.ActiveOn(day) {
			services[serviceID] = true
		}
	}
	return services
}

// FindAgencyRoute locates a route by agency name, route type and short name,
// optionally also matching the long name. Returns (agency, nil) when the
// agency exists but the route does not.
func (s *Store) FindAgencyRoute(
	agencyName string, routeType models.RouteType, shortName, longName string,
) (*models.Agency, *models.Route) {
	agencyName = strings.TrimSpace(agencyName)
	shortName = strings.TrimSpace(shortName)
	longName = strings.TrimSpace(longName)
	var agency *models.Agency
	for _, a := range s.data.Agencies {
		if strings.EqualFold(a.Name, agencyName) {
			agency = a
			break
		}
	}
	if agency == nil {
		return nil, nil
	}
	for _, route := range agency.Routes {
		if route.Type != routeType || route.ShortName != shortName {
			continue
		}
		if longName == "" || route.LongName == longName {
			return agency, route
		}
	}
	return agency, nil
}
