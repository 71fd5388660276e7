package validation

import (
	"fmt"
	"time"

	"github.com/databus-cr/databus-go/gtfs"
	"github.com/databus-cr/databus-go/internal"
)

// Rule identifiers. Fixed so reports stay comparable across runs and releases.
const (
	RuleEmptyTable      = "empty_required_table"
	RuleRequiredFields  = "required_fields"
	RuleFieldTypes      = "field_types"
	RuleCoordinateRange = "coordinate_range"
	RuleForeignKeys     = "foreign_keys"
	RuleDuplicateIDs    = "duplicate_ids"
	RuleTripStopTimes   = "trip_has_stop_times"
	RuleStopSequence    = "stop_sequence_order"
	RuleServiceDates    = "service_dates"
	RuleRouteNames      = "route_names"
	RuleMissingShapes   = "missing_shapes"
	RuleAgencyID        = "agency_id_recommended"
)

// Rule is one independent compliance check. Check must treat the feed as
// read-only and must not depend on any other rule having run.
type Rule struct {
	ID          string
	Description string
	Severity    Severity
	Check       func(f *gtfs.Feed) []Issue
}

// requiredColumns lists the columns each required table must declare.
var requiredColumns = map[string][]string{
	gtfs.TableAgency:    {"agency_name", "agency_url", "agency_timezone"},
	gtfs.TableRoutes:    {"route_id", "route_type"},
	gtfs.TableStops:     {"stop_id", "stop_name", "stop_lat", "stop_lon"},
	gtfs.TableTrips:     {"route_id", "service_id", "trip_id"},
	gtfs.TableStopTimes: {"trip_id", "stop_id", "stop_sequence"},
}

// StandardRules returns the full standard rule set. The returned slice is
// ordered by rule id so the catalog itself is deterministic.
func StandardRules() []Rule {
	return []Rule{
		{
			ID:          RuleAgencyID,
			Description: "agency_id should be set when a feed has multiple agencies",
			Severity:    SeverityWarning,
			Check:       checkAgencyID,
		},
		{
			ID:          RuleCoordinateRange,
			Description: "stop coordinates must be within valid ranges",
			Severity:    SeverityError,
			Check:       checkCoordinateRange,
		},
		{
			ID:          RuleDuplicateIDs,
			Description: "route, stop and trip identifiers must be unique",
			Severity:    SeverityError,
			Check:       checkDuplicateIDs,
		},
		{
			ID:          RuleEmptyTable,
			Description: "required tables must contain at least one row",
			Severity:    SeverityError,
			Check:       checkEmptyTables,
		},
		{
			ID:          RuleFieldTypes,
			Description: "typed fields must hold well-formed values",
			Severity:    SeverityError,
			Check:       checkFieldTypes,
		},
		{
			ID:          RuleForeignKeys,
			Description: "cross-table references must resolve",
			Severity:    SeverityError,
			Check:       checkForeignKeys,
		},
		{
			ID:          RuleMissingShapes,
			Description: "feeds should provide shapes.txt",
			Severity:    SeverityWarning,
			Check:       checkMissingShapes,
		},
		{
			ID:          RuleRequiredFields,
			Description: "required columns must be declared in each table",
			Severity:    SeverityError,
			Check:       checkRequiredFields,
		},
		{
			ID:          RuleRouteNames,
			Description: "routes should have a short or long name",
			Severity:    SeverityWarning,
			Check:       checkRouteNames,
		},
		{
			ID:          RuleServiceDates,
			Description: "calendar date ranges must be coherent",
			Severity:    SeverityWarning,
			Check:       checkServiceDates,
		},
		{
			ID:          RuleStopSequence,
			Description: "stop_sequence must strictly increase within a trip",
			Severity:    SeverityError,
			Check:       checkStopSequence,
		},
		{
			ID:          RuleTripStopTimes,
			Description: "every trip must have stop times",
			Severity:    SeverityError,
			Check:       checkTripStopTimes,
		},
	}
}

func checkEmptyTables(f *gtfs.Feed) []Issue {
	var issues []Issue
	for _, table := range gtfs.RequiredTables {
		if f.Present(table) && tableRowCount(f, table) == 0 {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("required table %s.txt has no rows", table),
				Table:   table,
			})
		}
	}
	return issues
}

func tableRowCount(f *gtfs.Feed, table string) int {
	switch table {
	case gtfs.TableAgency:
		return len(f.Agencies)
	case gtfs.TableRoutes:
		return len(f.Routes)
	case gtfs.TableStops:
		return len(f.Stops)
	case gtfs.TableTrips:
		return len(f.Trips)
	case gtfs.TableStopTimes:
		return len(f.StopTimes)
	}
	return 0
}

func checkRequiredFields(f *gtfs.Feed) []Issue {
	var issues []Issue
	for _, table := range gtfs.RequiredTables {
		if !f.Present(table) || tableRowCount(f, table) == 0 {
			continue
		}
		for _, col := range requiredColumns[table] {
			if !f.HasColumn(table, col) {
				issues = append(issues, Issue{
					Message: fmt.Sprintf("required column %s missing in %s.txt", col, table),
					Table:   table,
				})
			}
		}
	}
	return issues
}

func checkFieldTypes(f *gtfs.Feed) []Issue {
	var issues []Issue
	for _, s := range f.Stops {
		if _, _, err := s.LatLon(); err != nil {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("stop %s has non-numeric coordinates", s.ID),
				Table:   gtfs.TableStops,
				Row:     s.Row,
			})
		}
	}
	for _, r := range f.Routes {
		if _, err := r.TypeCode(); err != nil {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("route %s has non-numeric route_type %q", r.ID, r.Type),
				Table:   gtfs.TableRoutes,
				Row:     r.Row,
			})
		}
	}
	for _, st := range f.StopTimes {
		if st.ArrivalTime != "" {
			if _, err := internal.ParseGTFSTime(st.ArrivalTime); err != nil {
				issues = append(issues, Issue{
					Message: fmt.Sprintf("trip %s has malformed arrival_time %q", st.TripID, st.ArrivalTime),
					Table:   gtfs.TableStopTimes,
					Row:     st.Row,
				})
			}
		}
		if st.DepartureTime != "" {
			if _, err := internal.ParseGTFSTime(st.DepartureTime); err != nil {
				issues = append(issues, Issue{
					Message: fmt.Sprintf("trip %s has malformed departure_time %q", st.TripID, st.DepartureTime),
					Table:   gtfs.TableStopTimes,
					Row:     st.Row,
				})
			}
		}
	}
	return issues
}

func checkCoordinateRange(f *gtfs.Feed) []Issue {
	var issues []Issue
	for _, s := range f.Stops {
		lat, lon, err := s.LatLon()
		if err != nil {
			continue // reported by field_types
		}
		if lat < -90 || lat > 90 {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("stop %s has latitude %s outside [-90, 90]", s.ID, s.Lat),
				Table:   gtfs.TableStops,
				Row:     s.Row,
			})
		}
		if lon < -180 || lon > 180 {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("stop %s has longitude %s outside [-180, 180]", s.ID, s.Lon),
				Table:   gtfs.TableStops,
				Row:     s.Row,
			})
		}
	}
	return issues
}

func checkForeignKeys(f *gtfs.Feed) []Issue {
	var issues []Issue

	routeIDs := map[string]bool{}
	for _, r := range f.Routes {
		routeIDs[r.ID] = true
	}
	serviceIDs := map[string]bool{}
	for _, s := range f.Calendar {
		serviceIDs[s.ID] = true
	}
	for _, e := range f.CalendarDates {
		serviceIDs[e.ServiceID] = true
	}
	tripIDs := map[string]bool{}
	for _, t := range f.Trips {
		tripIDs[t.ID] = true
	}
	stopIDs := map[string]bool{}
	for _, s := range f.Stops {
		stopIDs[s.ID] = true
	}

	hasService := f.Present(gtfs.TableCalendar) || f.Present(gtfs.TableCalendarDates)
	for _, t := range f.Trips {
		if !routeIDs[t.RouteID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("trip %s references unknown route %q", t.ID, t.RouteID),
				Table:   gtfs.TableTrips,
				Row:     t.Row,
			})
		}
		if hasService && !serviceIDs[t.ServiceID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("trip %s references unknown service %q", t.ID, t.ServiceID),
				Table:   gtfs.TableTrips,
				Row:     t.Row,
			})
		}
	}
	for _, st := range f.StopTimes {
		if !tripIDs[st.TripID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("stop_time references unknown trip %q", st.TripID),
				Table:   gtfs.TableStopTimes,
				Row:     st.Row,
			})
		}
		if !stopIDs[st.StopID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("stop_time for trip %s references unknown stop %q", st.TripID, st.StopID),
				Table:   gtfs.TableStopTimes,
				Row:     st.Row,
			})
		}
	}
	return issues
}

func checkDuplicateIDs(f *gtfs.Feed) []Issue {
	var issues []Issue

	seen := map[string]bool{}
	for _, r := range f.Routes {
		if seen[r.ID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("duplicate route_id %q", r.ID),
				Table:   gtfs.TableRoutes,
				Row:     r.Row,
			})
		}
		seen[r.ID] = true
	}
	seen = map[string]bool{}
	for _, s := range f.Stops {
		if seen[s.ID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("duplicate stop_id %q", s.ID),
				Table:   gtfs.TableStops,
				Row:     s.Row,
			})
		}
		seen[s.ID] = true
	}
	seen = map[string]bool{}
	for _, t := range f.Trips {
		if seen[t.ID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("duplicate trip_id %q", t.ID),
				Table:   gtfs.TableTrips,
				Row:     t.Row,
			})
		}
		seen[t.ID] = true
	}
	return issues
}

func checkTripStopTimes(f *gtfs.Feed) []Issue {
	served := map[string]bool{}
	for _, st := range f.StopTimes {
		served[st.TripID] = true
	}
	var issues []Issue
	for _, t := range f.Trips {
		if !served[t.ID] {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("trip %s has no stop times", t.ID),
				Table:   gtfs.TableTrips,
				Row:     t.Row,
			})
		}
	}
	return issues
}

func checkStopSequence(f *gtfs.Feed) []Issue {
	var issues []Issue
	// stop_times rows keep file order; track the last sequence per trip.
	lastSeq := map[string]int{}
	for _, st := range f.StopTimes {
		seq, err := st.Seq()
		if err != nil {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("trip %s has non-numeric stop_sequence %q", st.TripID, st.StopSequence),
				Table:   gtfs.TableStopTimes,
				Row:     st.Row,
			})
			continue
		}
		if prev, ok := lastSeq[st.TripID]; ok && seq <= prev {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("trip %s stop_sequence %d does not increase after %d", st.TripID, seq, prev),
				Table:   gtfs.TableStopTimes,
				Row:     st.Row,
			})
		}
		lastSeq[st.TripID] = seq
	}
	return issues
}

// maxServiceSpanDays bounds a plausible service period (2 years).
const maxServiceSpanDays = 730

func checkServiceDates(f *gtfs.Feed) []Issue {
	var issues []Issue
	for _, svc := range f.Calendar {
		start, errStart := time.Parse("20060102", svc.StartDate)
		end, errEnd := time.Parse("20060102", svc.EndDate)
		if errStart != nil || errEnd != nil {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("service %s has unparseable date range %q..%q", svc.ID, svc.StartDate, svc.EndDate),
				Table:   gtfs.TableCalendar,
				Row:     svc.Row,
			})
			continue
		}
		if end.Before(start) {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("service %s ends %s before it starts %s", svc.ID, svc.EndDate, svc.StartDate),
				Table:   gtfs.TableCalendar,
				Row:     svc.Row,
			})
			continue
		}
		if end.Sub(start) > maxServiceSpanDays*24*time.Hour {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("service %s spans more than %d days", svc.ID, maxServiceSpanDays),
				Table:   gtfs.TableCalendar,
				Row:     svc.Row,
			})
		}
	}
	return issues
}

func checkRouteNames(f *gtfs.Feed) []Issue {
	var issues []Issue
	for _, r := range f.Routes {
		if r.ShortName == "" && r.LongName == "" {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("route %s has neither short nor long name", r.ID),
				Table:   gtfs.TableRoutes,
				Row:     r.Row,
			})
		}
	}
	return issues
}

func checkMissingShapes(f *gtfs.Feed) []Issue {
	if f.Present(gtfs.TableShapes) && len(f.Shapes) > 0 {
		return nil
	}
	return []Issue{{
		Message: "feed provides no shapes.txt; route geometry checks are unavailable",
		Table:   gtfs.TableShapes,
	}}
}

func checkAgencyID(f *gtfs.Feed) []Issue {
	if len(f.Agencies) < 2 {
		return nil
	}
	var issues []Issue
	for _, a := range f.Agencies {
		if a.ID == "" {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("agency %q has no agency_id in a multi-agency feed", a.Name),
				Table:   gtfs.TableAgency,
				Row:     a.Row,
			})
		}
	}
	return issues
}
