package gtfs

import "strconv"

// GTFS table file names (without the .txt suffix).
const (
	TableAgency        = "agency"
	TableRoutes        = "routes"
	TableStops         = "stops"
	TableTrips         = "trips"
	TableStopTimes     = "stop_times"
	TableCalendar      = "calendar"
	TableCalendarDates = "calendar_dates"
	TableFareRules     = "fare_rules"
	TableShapes        = "shapes"
)

// RequiredTables lists the tables a feed must provide to be processable.
var RequiredTables = []string{TableAgency, TableRoutes, TableStops, TableTrips, TableStopTimes}

// Agency is one row of agency.txt. Field values are kept as the raw CSV
// strings; typed access happens at the call site so malformed values survive
// loading and can be reported by validation.
type Agency struct {
	Row      int
	ID       string
	Name     string
	URL      string
	Timezone string
	Lang     string
	Phone    string
}

// Route is one row of routes.txt.
type Route struct {
	Row       int
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Desc      string
	Type      string
	Color     string
}

// TypeCode parses the GTFS route_type enum value.
func (r Route) TypeCode() (int, error) {
	return strconv.Atoi(r.Type)
}

// Stop is one row of stops.txt.
type Stop struct {
	Row           int
	ID            string
	Code          string
	Name          string
	Desc          string
	Lat           string
	Lon           string
	ZoneID        string
	LocationType  string
	ParentStation string
}

// LatLon parses the stop coordinates.
func (s Stop) LatLon() (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(s.Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err = strconv.ParseFloat(s.Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// Trip is one row of trips.txt.
type Trip struct {
	Row         int
	RouteID     string
	ServiceID   string
	ID          string
	Headsign    string
	DirectionID string
	BlockID     string
	ShapeID     string
}

// StopTime is one row of stop_times.txt.
type StopTime struct {
	Row           int
	TripID        string
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  string
	PickupType    string
	DropOffType   string
}

// Seq parses the stop_sequence value.
func (st StopTime) Seq() (int, error) {
	return strconv.Atoi(st.StopSequence)
}

// Service is one row of calendar.txt.
type Service struct {
	Row       int
	ID        string
	Weekdays  [7]string // monday..sunday flags as written
	StartDate string    // YYYYMMDD
	EndDate   string    // YYYYMMDD
}

// ServiceException is one row of calendar_dates.txt.
type ServiceException struct {
	Row           int
	ServiceID     string
	Date          string
	ExceptionType string
}

// FareRule is one row of fare_rules.txt.
type FareRule struct {
	Row           int
	FareID        string
	RouteID       string
	OriginID      string
	DestinationID string
}

// ShapePoint is one row of shapes.txt.
type ShapePoint struct {
	Row      int
	ShapeID  string
	Lat      string
	Lon      string
	Sequence string
}

// LatLon parses the shape point coordinates.
func (sp ShapePoint) LatLon() (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(sp.Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err = strconv.ParseFloat(sp.Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// Seq parses the shape_pt_sequence value.
func (sp ShapePoint) Seq() (int, error) {
	return strconv.Atoi(sp.Sequence)
}

// Feed is an immutable in-memory GTFS dataset. Table slices preserve the row
// order of the source files.
type Feed struct {
	Agencies      []Agency
	Routes        []Route
	Stops         []Stop
	Trips         []Trip
	StopTimes     []StopTime
	Calendar      []Service
	CalendarDates []ServiceException
	FareRules     []FareRule
	Shapes        []ShapePoint

	present map[string]bool
	columns map[string][]string
}

// Present reports whether the named table was provided by the feed source,
// even if it held no data rows.
func (f *Feed) Present(table string) bool {
	return f.present[table]
}

// HasColumn reports whether the named table declared the given column header.
func (f *Feed) HasColumn(table, column string) bool {
	for _, c := range f.columns[table] {
		if c == column {
			return true
		}
	}
	return false
}

// Columns returns the header of the named table in file order.
func (f *Feed) Columns(table string) []string {
	return f.columns[table]
}
