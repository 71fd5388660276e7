package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"time"
)

// FilterByBoundingBox returns a new feed containing only the stops inside the
// inclusive box and everything still reachable from them: stop_times at kept
// stops, trips with at least one remaining stop_time, and the routes,
// services, shapes, fares and agencies those trips reference. Stops with
// unparseable coordinates are dropped.
func (f *Feed) FilterByBoundingBox(minLat, minLon, maxLat, maxLon float64) *Feed {
	keepStop := map[string]bool{}
	for _, s := range f.Stops {
		lat, lon, err := s.LatLon()
		if err != nil {
			continue
		}
		if lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon {
			keepStop[s.ID] = true
		}
	}

	keepTrip := map[string]bool{}
	for _, st := range f.StopTimes {
		if keepStop[st.StopID] {
			keepTrip[st.TripID] = true
		}
	}

	out := f.restrictToTrips(keepTrip)
	stops := out.Stops[:0]
	for _, s := range out.Stops {
		if keepStop[s.ID] {
			stops = append(stops, s)
		}
	}
	out.Stops = stops
	stopTimes := out.StopTimes[:0]
	for _, st := range out.StopTimes {
		if keepStop[st.StopID] {
			stopTimes = append(stopTimes, st)
		}
	}
	out.StopTimes = stopTimes

	log.Printf("bounding box filter kept %d of %d stops, %d of %d trips",
		len(out.Stops), len(f.Stops), len(out.Trips), len(f.Trips))
	return out
}

// FilterByDates returns a new feed restricted to services active somewhere in
// the inclusive date window. Dates are YYYYMMDD. A calendar service is active
// when its range overlaps the window; a calendar_dates addition inside the
// window also activates its service.
func (f *Feed) FilterByDates(start, end string) (*Feed, error) {
	startT, err := time.Parse("20060102", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endT, err := time.Parse("20060102", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if endT.Before(startT) {
		return nil, fmt.Errorf("date window ends (%s) before it starts (%s)", end, start)
	}

	active := map[string]bool{}
	for _, svc := range f.Calendar {
		svcStart, errS := time.Parse("20060102", svc.StartDate)
		svcEnd, errE := time.Parse("20060102", svc.EndDate)
		if errS != nil || errE != nil {
			continue
		}
		if !svcEnd.Before(startT) && !svcStart.After(endT) {
			active[svc.ID] = true
		}
	}
	for _, ex := range f.CalendarDates {
		if ex.ExceptionType != "1" {
			continue
		}
		d, err := time.Parse("20060102", ex.Date)
		if err != nil {
			continue
		}
		if !d.Before(startT) && !d.After(endT) {
			active[ex.ServiceID] = true
		}
	}

	keepTrip := map[string]bool{}
	for _, t := range f.Trips {
		if active[t.ServiceID] {
			keepTrip[t.ID] = true
		}
	}

	out := f.restrictToTrips(keepTrip)
	log.Printf("date filter %s..%s kept %d of %d services, %d of %d trips",
		start, end, len(active), len(f.Calendar), len(out.Trips), len(f.Trips))
	return out, nil
}

// restrictToTrips rebuilds the feed around the given trip set, cascading the
// cut through every referencing table. Row numbers and table presence carry
// over from the source feed.
func (f *Feed) restrictToTrips(keepTrip map[string]bool) *Feed {
	out := newFeed()
	for t, p := range f.present {
		out.present[t] = p
	}
	for t, cols := range f.columns {
		out.columns[t] = cols
	}

	keepRoute := map[string]bool{}
	keepService := map[string]bool{}
	keepShape := map[string]bool{}
	for _, t := range f.Trips {
		if !keepTrip[t.ID] {
			continue
		}
		out.Trips = append(out.Trips, t)
		keepRoute[t.RouteID] = true
		keepService[t.ServiceID] = true
		if t.ShapeID != "" {
			keepShape[t.ShapeID] = true
		}
	}

	keepStop := map[string]bool{}
	for _, st := range f.StopTimes {
		if keepTrip[st.TripID] {
			out.StopTimes = append(out.StopTimes, st)
			keepStop[st.StopID] = true
		}
	}
	for _, s := range f.Stops {
		if keepStop[s.ID] {
			out.Stops = append(out.Stops, s)
		}
	}

	keepAgency := map[string]bool{}
	for _, r := range f.Routes {
		if keepRoute[r.ID] {
			out.Routes = append(out.Routes, r)
			keepAgency[r.AgencyID] = true
		}
	}
	for _, a := range f.Agencies {
		// Routes without an agency_id bind to the sole agency.
		if keepAgency[a.ID] || keepAgency[""] {
			out.Agencies = append(out.Agencies, a)
		}
	}

	for _, svc := range f.Calendar {
		if keepService[svc.ID] {
			out.Calendar = append(out.Calendar, svc)
		}
	}
	for _, ex := range f.CalendarDates {
		if keepService[ex.ServiceID] {
			out.CalendarDates = append(out.CalendarDates, ex)
		}
	}
	for _, sp := range f.Shapes {
		if keepShape[sp.ShapeID] {
			out.Shapes = append(out.Shapes, sp)
		}
	}
	for _, fr := range f.FareRules {
		if fr.RouteID == "" || keepRoute[fr.RouteID] {
			out.FareRules = append(out.FareRules, fr)
		}
	}
	return out
}

// WriteZip writes the feed out as a GTFS zip archive. Only tables the source
// provided are written, with a canonical column set per table.
func (f *Feed) WriteZip(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for _, table := range knownTables {
		if !f.present[table] {
			continue
		}
		if err := f.writeTable(zw, table); err != nil {
			return fmt.Errorf("write %s.txt: %w", table, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	log.Printf("wrote GTFS feed to %s", path)
	return nil
}

func (f *Feed) writeTable(zw *zip.Writer, table string) error {
	entry, err := zw.Create(table + ".txt")
	if err != nil {
		return err
	}
	w := csv.NewWriter(entry)

	switch table {
	case TableAgency:
		w.Write([]string{"agency_id", "agency_name", "agency_url", "agency_timezone", "agency_lang", "agency_phone"})
		for _, a := range f.Agencies {
			w.Write([]string{a.ID, a.Name, a.URL, a.Timezone, a.Lang, a.Phone})
		}
	case TableRoutes:
		w.Write([]string{"route_id", "agency_id", "route_short_name", "route_long_name", "route_desc", "route_type", "route_color"})
		for _, r := range f.Routes {
			w.Write([]string{r.ID, r.AgencyID, r.ShortName, r.LongName, r.Desc, r.Type, r.Color})
		}
	case TableStops:
		w.Write([]string{"stop_id", "stop_code", "stop_name", "stop_desc", "stop_lat", "stop_lon", "zone_id", "location_type", "parent_station"})
		for _, s := range f.Stops {
			w.Write([]string{s.ID, s.Code, s.Name, s.Desc, s.Lat, s.Lon, s.ZoneID, s.LocationType, s.ParentStation})
		}
	case TableTrips:
		w.Write([]string{"route_id", "service_id", "trip_id", "trip_headsign", "direction_id", "block_id", "shape_id"})
		for _, t := range f.Trips {
			w.Write([]string{t.RouteID, t.ServiceID, t.ID, t.Headsign, t.DirectionID, t.BlockID, t.ShapeID})
		}
	case TableStopTimes:
		w.Write([]string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence", "pickup_type", "drop_off_type"})
		for _, st := range f.StopTimes {
			w.Write([]string{st.TripID, st.ArrivalTime, st.DepartureTime, st.StopID, st.StopSequence, st.PickupType, st.DropOffType})
		}
	case TableCalendar:
		w.Write([]string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "start_date", "end_date"})
		for _, svc := range f.Calendar {
			rec := append([]string{svc.ID}, svc.Weekdays[:]...)
			w.Write(append(rec, svc.StartDate, svc.EndDate))
		}
	case TableCalendarDates:
		w.Write([]string{"service_id", "date", "exception_type"})
		for _, ex := range f.CalendarDates {
			w.Write([]string{ex.ServiceID, ex.Date, ex.ExceptionType})
		}
	case TableFareRules:
		w.Write([]string{"fare_id", "route_id", "origin_id", "destination_id"})
		for _, fr := range f.FareRules {
			w.Write([]string{fr.FareID, fr.RouteID, fr.OriginID, fr.DestinationID})
		}
	case TableShapes:
		w.Write([]string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"})
		for _, sp := range f.Shapes {
			w.Write([]string{sp.ShapeID, sp.Lat, sp.Lon, sp.Sequence})
		}
	}

	w.Flush()
	return w.Error()
}
