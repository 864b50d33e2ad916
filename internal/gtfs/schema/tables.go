package schema

// Static table declarations for every supported GTFS file, plus the fixed
// load order that keeps foreign keys resolvable.

var FeedInfo = &Table{
	Name: "feed_info.txt",
	Fields: []Field{
		{Name: "feed_publisher_name", Kind: String, Required: true},
		{Name: "feed_publisher_url", Kind: String, Required: true},
		{Name: "feed_lang", Kind: String, Required: true},
		{Name: "feed_start_date", Kind: String, Required: true},
		{Name: "feed_end_date", Kind: String, Required: true},
		{Name: "feed_version", Kind: String, Required: true},
		{Name: "feed_contact_email", Kind: String},
	},
}

var Agency = &Table{
	Name: "agency.txt",
	Fields: []Field{
		{Name: "agency_id", Kind: Int, Required: true},
		{Name: "agency_name", Kind: String, Required: true},
		{Name: "agency_url", Kind: String, Required: true},
		{Name: "agency_timezone", Kind: String, Required: true},
	},
}

var Calendar = &Table{
	Name: "calendar.txt",
	Fields: []Field{
		{Name: "service_id", Kind: Int, Required: true},
		{Name: "monday", Kind: Bool, Required: true},
		{Name: "tuesday", Kind: Bool, Required: true},
		{Name: "wednesday", Kind: Bool, Required: true},
		{Name: "thursday", Kind: Bool, Required: true},
		{Name: "friday", Kind: Bool, Required: true},
		{Name: "saturday", Kind: Bool, Required: true},
		{Name: "sunday", Kind: Bool, Required: true},
		{Name: "start_date", Kind: String, Required: true},
		{Name: "end_date", Kind: String, Required: true},
	},
}

var CalendarDates = &Table{
	Name: "calendar_dates.txt",
	Fields: []Field{
		{Name: "service_id", Kind: Int, Required: true},
		{Name: "date", Kind: String, Required: true},
		// '1' adds service, '2' removes it; kept as a string, not a bool
		{Name: "exception_type", Kind: String, Required: true},
	},
}

var Routes = &Table{
	Name: "routes.txt",
	Fields: []Field{
		{Name: "route_id", Kind: String, Required: true},
		{Name: "agency_id", Kind: Int, Required: true},
		{Name: "route_short_name", Kind: String, Required: true},
		{Name: "route_long_name", Kind: String, Required: true},
		{Name: "route_type", Kind: Int, Required: true},
		{Name: "route_desc", Kind: String},
		{Name: "route_url", Kind: String},
		{Name: "route_color", Kind: String},
		{Name: "route_text_color", Kind: String},
	},
}

var Shapes = &Table{
	Name: "shapes.txt",
	Fields: []Field{
		{Name: "shape_id", Kind: String, Required: true},
		{Name: "shape_pt_sequence", Kind: Int, Required: true},
		{Name: "shape_pt_lat", Kind: Float, Required: true},
		{Name: "shape_pt_lon", Kind: Float, Required: true},
		{Name: "shape_dist_traveled", Kind: Float, Required: true},
	},
}

var Trips = &Table{
	Name: "trips.txt",
	Fields: []Field{
		{Name: "trip_id", Kind: String, Required: true},
		{Name: "route_id", Kind: String, Required: true},
		{Name: "service_id", Kind: Int, Required: true},
		{Name: "direction_id", Kind: Bool, Required: true},
		{Name: "shape_id", Kind: String},
		{Name: "trip_headsign", Kind: String},
		{Name: "block_id", Kind: String},
		{Name: "trip_short_name", Kind: String},
	},
}

var Stops = &Table{
	Name: "stops.txt",
	Fields: []Field{
		{Name: "stop_id", Kind: String, Required: true},
		{Name: "parent_station", Kind: String},
		{Name: "stop_code", Kind: String, Required: true},
		{Name: "stop_name", Kind: String, Required: true},
		{Name: "stop_lat", Kind: Float, Required: true},
		{Name: "stop_lon", Kind: Float, Required: true},
		{Name: "zone_id", Kind: String},
		{Name: "stop_desc", Kind: String},
		{Name: "stop_url", Kind: String},
		{Name: "location_type", Kind: Int},
	},
}

var StopTimes = &Table{
	Name: "stop_times.txt",
	Fields: []Field{
		{Name: "trip_id", Kind: String, Required: true},
		{Name: "stop_sequence", Kind: Int, Required: true},
		{Name: "stop_id", Kind: String, Required: true},
		{Name: "arrival_time", Kind: String, Required: true},
		{Name: "departure_time", Kind: String, Required: true},
		{Name: "timepoint", Kind: Bool, Required: true},
		{Name: "stop_headsign", Kind: String},
		{Name: "pickup_type", Kind: Int},
		{Name: "drop_off_type", Kind: Int},
		// legacy spelling, still emitted by some feeds
		{Name: "dropoff_type", Kind: Int},
	},
}

// LoadOrder is the fixed processing order for files inside a feed ZIP.
// Later tables hold foreign keys into earlier ones.
var LoadOrder = []*Table{
	FeedInfo,
	Agency,
	Calendar,
	CalendarDates,
	Routes,
	Shapes,
	Trips,
	Stops,
	StopTimes,
}

// RequiredFiles must be present in every feed ZIP.
var RequiredFiles = map[string]bool{
	FeedInfo.Name: true,
}

// ByName resolves a file name to its table spec.
func ByName(name string) (*Table, bool) {
	for _, t := range LoadOrder {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
