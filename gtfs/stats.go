package gtfs

import (
	"fmt"
	"sort"
	"time"

	"github.com/databus-cr/databus-go/internal"
)

// FeedStats summarizes the contents of a loaded feed.
type FeedStats struct {
	Agencies      int            `json:"agencies"`
	Routes        int            `json:"routes"`
	Stops         int            `json:"stops"`
	Trips         int            `json:"trips"`
	StopTimes     int            `json:"stop_times"`
	Shapes        int            `json:"shapes"`
	Calendar      int            `json:"calendar"`
	CalendarDates int            `json:"calendar_dates"`
	RoutesByType  map[string]int `json:"routes_by_type,omitempty"`
	ServiceStart  string         `json:"service_start,omitempty"` // YYYY-MM-DD
	ServiceEnd    string         `json:"service_end,omitempty"`   // YYYY-MM-DD
}

// Stats computes summary statistics for the feed.
func (f *Feed) Stats() FeedStats {
	s := FeedStats{
		Agencies:      len(f.Agencies),
		Routes:        len(f.Routes),
		Stops:         len(f.Stops),
		Trips:         len(f.Trips),
		StopTimes:     len(f.StopTimes),
		Shapes:        len(f.Shapes),
		Calendar:      len(f.Calendar),
		CalendarDates: len(f.CalendarDates),
	}
	if len(f.Routes) > 0 {
		s.RoutesByType = map[string]int{}
		for _, r := range f.Routes {
			s.RoutesByType[r.Type]++
		}
	}
	var start, end time.Time
	for _, svc := range f.Calendar {
		if t, err := time.Parse("20060102", svc.StartDate); err == nil {
			if start.IsZero() || t.Before(start) {
				start = t
			}
		}
		if t, err := time.Parse("20060102", svc.EndDate); err == nil {
			if end.IsZero() || t.After(end) {
				end = t
			}
		}
	}
	if !start.IsZero() {
		s.ServiceStart = start.Format("2006-01-02")
	}
	if !end.IsZero() {
		s.ServiceEnd = end.Format("2006-01-02")
	}
	return s
}

// RouteStats summarizes one route.
type RouteStats struct {
	RouteID        string `json:"route_id"`
	ShortName      string `json:"route_short_name,omitempty"`
	LongName       string `json:"route_long_name,omitempty"`
	RouteType      string `json:"route_type"`
	TotalTrips     int    `json:"total_trips"`
	UniqueStops    int    `json:"unique_stops"`
	Directions     int    `json:"directions"`
	TotalStopTimes int    `json:"total_stop_times"`
}

// RouteStats computes summary statistics for one route.
func (f *Feed) RouteStats(routeID string) (RouteStats, error) {
	var route *Route
	for i := range f.Routes {
		if f.Routes[i].ID == routeID {
			route = &f.Routes[i]
			break
		}
	}
	if route == nil {
		return RouteStats{}, fmt.Errorf("route %s not found", routeID)
	}

	tripIDs := map[string]bool{}
	directions := map[string]bool{}
	for _, t := range f.Trips {
		if t.RouteID == routeID {
			tripIDs[t.ID] = true
			directions[t.DirectionID] = true
		}
	}
	stops := map[string]bool{}
	stopTimes := 0
	for _, st := range f.StopTimes {
		if tripIDs[st.TripID] {
			stops[st.StopID] = true
			stopTimes++
		}
	}
	return RouteStats{
		RouteID:        routeID,
		ShortName:      route.ShortName,
		LongName:       route.LongName,
		RouteType:      route.Type,
		TotalTrips:     len(tripIDs),
		UniqueStops:    len(stops),
		Directions:     len(directions),
		TotalStopTimes: stopTimes,
	}, nil
}

// RouteFrequency holds headway metrics for one route.
type RouteFrequency struct {
	RouteID           string  `json:"route_id"`
	TotalTrips        int     `json:"total_trips"`
	AvgHeadwayMinutes float64 `json:"avg_headway_minutes"`
	MinHeadwayMinutes float64 `json:"min_headway_minutes"`
	MaxHeadwayMinutes float64 `json:"max_headway_minutes"`
}

// Frequency computes trip start headways per route from scheduled stop times.
// Trips with no parseable start time are skipped.
func (f *Feed) Frequency() []RouteFrequency {
	tripRoute := map[string]string{}
	for _, t := range f.Trips {
		tripRoute[t.ID] = t.RouteID
	}

	// earliest departure per trip
	tripStart := map[string]int{}
	for _, st := range f.StopTimes {
		sec, err := internal.ParseGTFSTime(st.DepartureTime)
		if err != nil {
			continue
		}
		if cur, ok := tripStart[st.TripID]; !ok || sec < cur {
			tripStart[st.TripID] = sec
		}
	}

	startsByRoute := map[string][]int{}
	for trip, sec := range tripStart {
		route, ok := tripRoute[trip]
		if !ok {
			continue
		}
		startsByRoute[route] = append(startsByRoute[route], sec)
	}

	routes := make([]string, 0, len(startsByRoute))
	for r := range startsByRoute {
		routes = append(routes, r)
	}
	sort.Strings(routes)

	out := make([]RouteFrequency, 0, len(routes))
	for _, r := range routes {
		starts := startsByRoute[r]
		sort.Ints(starts)
		freq := RouteFrequency{RouteID: r, TotalTrips: len(starts)}
		if len(starts) > 1 {
			var sum float64
			minH, maxH := -1.0, 0.0
			for i := 1; i < len(starts); i++ {
				h := float64(starts[i]-starts[i-1]) / 60
				sum += h
				if minH < 0 || h < minH {
					minH = h
				}
				if h > maxH {
					maxH = h
				}
			}
			freq.AvgHeadwayMinutes = sum / float64(len(starts)-1)
			freq.MinHeadwayMinutes = minH
			freq.MaxHeadwayMinutes = maxH
		}
		out = append(out, freq)
	}
	return out
}

// Coverage summarizes the spatial extent of a feed's stops.
type Coverage struct {
	StopCount     int     `json:"stop_count"`
	MinLat        float64 `json:"min_lat"`
	MaxLat        float64 `json:"max_lat"`
	MinLon        float64 `json:"min_lon"`
	MaxLon        float64 `json:"max_lon"`
	DiagonalKM    float64 `json:"diagonal_km"`
	StopsPerSqKM  float64 `json:"stops_per_sq_km"`
	ApproxAreaKM2 float64 `json:"approx_area_km2"`
}

// StopCoverage computes the stop bounding box and an approximate stop density.
// Stops with unparseable coordinates are ignored.
func (f *Feed) StopCoverage() Coverage {
	var c Coverage
	first := true
	for _, s := range f.Stops {
		lat, lon, err := s.LatLon()
		if err != nil {
			continue
		}
		c.StopCount++
		if first {
			c.MinLat, c.MaxLat = lat, lat
			c.MinLon, c.MaxLon = lon, lon
			first = false
			continue
		}
		if lat < c.MinLat {
			c.MinLat = lat
		}
		if lat > c.MaxLat {
			c.MaxLat = lat
		}
		if lon < c.MinLon {
			c.MinLon = lon
		}
		if lon > c.MaxLon {
			c.MaxLon = lon
		}
	}
	if c.StopCount == 0 {
		return c
	}
	c.DiagonalKM = internal.HaversineKM(c.MinLat, c.MinLon, c.MaxLat, c.MaxLon)
	width := internal.HaversineKM(c.MinLat, c.MinLon, c.MinLat, c.MaxLon)
	height := internal.HaversineKM(c.MinLat, c.MinLon, c.MaxLat, c.MinLon)
	c.ApproxAreaKM2 = width * height
	if c.ApproxAreaKM2 > 0 {
		c.StopsPerSqKM = float64(c.StopCount) / c.ApproxAreaKM2
	}
	return c
}
