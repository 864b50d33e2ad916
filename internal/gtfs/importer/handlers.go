package importer

import (
	"fmt"
	"time"

	"github.com/tfitracker-data/internal/gtfs/schema"
	"github.com/tfitracker-data/pkg/gtfs/models"
)

type rowHandler func(location tableLocation, rowIndex int, row schema.Row) error

func (i *Importer) handler(table *schema.Table) rowHandler {
	switch table {
	case schema.FeedInfo:
		return i.handleFeedInfo
	case schema.Agency:
		return i.handleAgency
	case schema.Calendar:
		return i.handleCalendar
	case schema.CalendarDates:
		return i.handleCalendarDates
	case schema.Routes:
		return i.handleRoutes
	case schema.Shapes:
		return i.handleShapes
	case schema.Trips:
		return i.handleTrips
	case schema.Stops:
		return i.handleStops
	case schema.StopTimes:
		return i.handleStopTimes
	default:
		return func(location tableLocation, rowIndex int, _ schema.Row) error {
			return &RowError{
				File: location.file, Row: rowIndex,
				Err: fmt.Errorf("no handler for table %s", table.Name),
			}
		}
	}
}

// feed_info.txt carries the version info for the whole ZIP and must have
// exactly one row.
func (i *Importer) handleFeedInfo(location tableLocation, rowIndex int, row schema.Row) error {
	if rowIndex != 0 {
		return &RowError{
			File: location.file, Row: rowIndex,
			Err: fmt.Errorf("feed_info table is only supported to have 1 row"),
		}
	}
	start, err := models.ParseGTFSDate(row.Str("feed_start_date"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	end, err := models.ParseGTFSDate(row.Str("feed_end_date"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	validity, err := models.NewDaysRange(start, end)
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	return i.registry.ApplyFeedInfo(location.operator, location.link, &models.FileMetadata{
		FirstSeen: time.Now(),
		Publisher: row.Str("feed_publisher_name"),
		URL:       row.Str("feed_publisher_url"),
		Language:  row.Str("feed_lang"),
		Version:   row.Str("feed_version"),
		Email:     row.Str("feed_contact_email"),
		Validity:  validity,
	})
}

func (i *Importer) handleAgency(location tableLocation, rowIndex int, row schema.Row) error {
	i.store.UpsertAgency(&models.Agency{
		ID:       row.Int("agency_id"),
		Name:     row.Str("agency_name"),
		URL:      row.Str("agency_url"),
		Timezone: row.Str("agency_timezone"),
	})
	return nil
}

func (i *Importer) handleCalendar(location tableLocation, rowIndex int, row schema.Row) error {
	start, err := models.ParseGTFSDate(row.Str("start_date"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	end, err := models.ParseGTFSDate(row.Str("end_date"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	days, err := models.NewDaysRange(start, end)
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	i.store.UpsertCalendar(&models.CalendarService{
		ID: row.Int("service_id"),
		Week: [7]bool{
			row.Bool("monday"),
			row.Bool("tuesday"),
			row.Bool("wednesday"),
			row.Bool("thursday"),
			row.Bool("friday"),
			row.Bool("saturday"),
			row.Bool("sunday"),
		},
		Days: days,
	})
	return nil
}

func (i *Importer) handleCalendarDates(location tableLocation, rowIndex int, row schema.Row) error {
	day, err := models.ParseGTFSDate(row.Str("date"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	// exception_type '1' adds service, '2' removes it
	if err := i.store.AddCalendarException(
		row.Int("service_id"), day, row.Str("exception_type") == "1"); err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	return nil
}

func (i *Importer) handleRoutes(location tableLocation, rowIndex int, row schema.Row) error {
	routeType, err := models.ParseRouteType(row.Int("route_type"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	if err := i.store.UpsertRoute(&models.Route{
		ID:          row.Str("route_id"),
		Agency:      row.Int("agency_id"),
		ShortName:   row.Str("route_short_name"),
		LongName:    row.Str("route_long_name"),
		Type:        routeType,
		Description: row.Str("route_desc"),
		URL:         row.Str("route_url"),
		Color:       row.Str("route_color"),
		TextColor:   row.Str("route_text_color"),
	}); err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	return nil
}

func (i *Importer) handleShapes(location tableLocation, rowIndex int, row schema.Row) error {
	point, err := models.NewPoint(row.Float("shape_pt_lat"), row.Float("shape_pt_lon"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	i.store.UpsertShapePoint(&models.ShapePoint{
		ShapeID:  row.Str("shape_id"),
		Seq:      row.Int("shape_pt_sequence"),
		Point:    point,
		Distance: row.Float("shape_dist_traveled"),
	})
	return nil
}

func (i *Importer) handleTrips(location tableLocation, rowIndex int, row schema.Row) error {
	if err := i.store.UpsertTrip(&models.Trip{
		ID:        row.Str("trip_id"),
		Route:     row.Str("route_id"),
		Service:   row.Int("service_id"),
		Direction: row.Bool("direction_id"),
		Shape:     row.Str("shape_id"),
		Block:     row.Str("block_id"),
		Headsign:  row.Str("trip_headsign"),
		ShortName: row.Str("trip_short_name"),
	}); err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	return nil
}

func (i *Importer) handleStops(location tableLocation, rowIndex int, row schema.Row) error {
	point, err := models.NewPoint(row.Float("stop_lat"), row.Float("stop_lon"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	locationType := models.LocationStop
	if row.Has("location_type") {
		if locationType, err = models.ParseLocationType(row.Int("location_type")); err != nil {
			return &RowError{File: location.file, Row: rowIndex, Err: err}
		}
	}
	if err := i.store.UpsertBaseStop(&models.BaseStop{
		ID:          row.Str("stop_id"),
		Parent:      row.Str("parent_station"),
		Code:        row.Str("stop_code"),
		Name:        row.Str("stop_name"),
		Point:       point,
		Zone:        row.Str("zone_id"),
		Description: row.Str("stop_desc"),
		URL:         row.Str("stop_url"),
		Location:    locationType,
	}); err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	return nil
}

func (i *Importer) handleStopTimes(location tableLocation, rowIndex int, row schema.Row) error {
	arrival, err := models.ParseHMS(row.Str("arrival_time"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	departure, err := models.ParseHMS(row.Str("departure_time"))
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	times, err := models.NewTimeRange(arrival, departure)
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	pickup := models.StopPointRegular
	if row.Has("pickup_type") {
		if pickup, err = models.ParseStopPointType(row.Int("pickup_type")); err != nil {
			return &RowError{File: location.file, Row: rowIndex, Err: err}
		}
	}
	// drop_off_type wins over the legacy dropoff_type spelling
	dropoff := models.StopPointRegular
	switch {
	case row.Has("drop_off_type"):
		dropoff, err = models.ParseStopPointType(row.Int("drop_off_type"))
	case row.Has("dropoff_type"):
		dropoff, err = models.ParseStopPointType(row.Int("dropoff_type"))
	}
	if err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	if err := i.store.UpsertStopTime(&models.StopTime{
		TripID:    row.Str("trip_id"),
		Seq:       row.Int("stop_sequence"),
		StopID:    row.Str("stop_id"),
		Times:     times,
		Timepoint: row.Bool("timepoint"),
		Headsign:  row.Str("stop_headsign"),
		Pickup:    pickup,
		Dropoff:   dropoff,
	}); err != nil {
		return &RowError{File: location.file, Row: rowIndex, Err: err}
	}
	return nil
}
