package gtfs

import (
	"path/filepath"
	"testing"
)

// filterFiles builds a two-route fixture: R1 runs between downtown stops,
// R2 runs to a stop far outside the city.
func filterFiles() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\nDB,Databus,http://databus.cr,America/Costa_Rica\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,DB,1,Central,3\n" +
			"R2,DB,2,Rural,3\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"ST1,Parque Central,9.9333,-84.0833\n" +
			"ST2,Catedral,9.9340,-84.0800\n" +
			"ST3,Montana,10.5000,-85.0000\n",
		"trips.txt": "route_id,service_id,trip_id,shape_id\n" +
			"R1,S1,T1,SH1\n" +
			"R2,S2,T2,\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:00:00,08:00:00,ST1,1\n" +
			"T1,08:05:00,08:05:00,ST2,2\n" +
			"T2,09:00:00,09:00:00,ST3,1\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"S1,1,1,1,1,1,0,0,20250101,20251231\n" +
			"S2,0,0,0,0,0,1,1,20240101,20240630\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\n" +
			"SH1,9.9333,-84.0833,1\n" +
			"SH1,9.9340,-84.0800,2\n",
	}
}

func TestFilterByBoundingBox(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, filterFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	// Downtown box: ST1 and ST2 inside, ST3 outside.
	out := feed.FilterByBoundingBox(9.90, -84.10, 9.95, -84.05)

	if len(out.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(out.Stops))
	}
	if len(out.Trips) != 1 || out.Trips[0].ID != "T1" {
		t.Fatalf("expected only trip T1, got %v", out.Trips)
	}
	if len(out.Routes) != 1 || out.Routes[0].ID != "R1" {
		t.Errorf("expected only route R1, got %v", out.Routes)
	}
	if len(out.StopTimes) != 2 {
		t.Errorf("expected 2 stop_times, got %d", len(out.StopTimes))
	}
	if len(out.Calendar) != 1 || out.Calendar[0].ID != "S1" {
		t.Errorf("expected only service S1, got %v", out.Calendar)
	}
	if len(out.Shapes) != 2 {
		t.Errorf("expected SH1 points kept, got %d", len(out.Shapes))
	}
	if len(out.Agencies) != 1 {
		t.Errorf("expected agency kept, got %d", len(out.Agencies))
	}
	if !out.Present(TableCalendar) {
		t.Error("table presence should carry over")
	}
}

func TestFilterByBoundingBox_EmptyResult(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, filterFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	out := feed.FilterByBoundingBox(0, 0, 1, 1)
	if len(out.Stops) != 0 || len(out.Trips) != 0 || len(out.Routes) != 0 {
		t.Errorf("expected empty feed, got %d stops %d trips %d routes",
			len(out.Stops), len(out.Trips), len(out.Routes))
	}
}

func TestFilterByDates(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, filterFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	// Window overlaps S1 only; S2 ended mid-2024.
	out, err := feed.FilterByDates("20250601", "20250630")
	if err != nil {
		t.Fatalf("FilterByDates: %v", err)
	}

	if len(out.Calendar) != 1 || out.Calendar[0].ID != "S1" {
		t.Fatalf("expected only service S1, got %v", out.Calendar)
	}
	if len(out.Trips) != 1 || out.Trips[0].ID != "T1" {
		t.Errorf("expected only trip T1, got %v", out.Trips)
	}
	if len(out.Stops) != 2 {
		t.Errorf("expected ST1+ST2 kept, got %d", len(out.Stops))
	}
}

func TestFilterByDates_AddedException(t *testing.T) {
	files := filterFiles()
	files["calendar_dates.txt"] = "service_id,date,exception_type\nS2,20250615,1\n"
	feed, err := LoadFromBytes(buildFeedZip(t, files))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	out, err := feed.FilterByDates("20250601", "20250630")
	if err != nil {
		t.Fatalf("FilterByDates: %v", err)
	}

	// S2 is outside its calendar range but added for a day in the window.
	if len(out.Trips) != 2 {
		t.Fatalf("expected both trips kept, got %d", len(out.Trips))
	}
	if len(out.CalendarDates) != 1 {
		t.Errorf("expected the exception kept, got %d", len(out.CalendarDates))
	}
}

func TestFilterByDates_InvalidWindow(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, filterFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	tests := []struct {
		name       string
		start, end string
	}{
		{"bad start", "2025-01-01", "20250630"},
		{"bad end", "20250101", "junk"},
		{"inverted", "20250630", "20250101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := feed.FilterByDates(tt.start, tt.end); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWriteZip_RoundTrip(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, filterFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	filtered := feed.FilterByBoundingBox(9.90, -84.10, 9.95, -84.05)
	path := filepath.Join(t.TempDir(), "filtered.zip")
	if err := filtered.WriteZip(path); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded.Stops) != len(filtered.Stops) {
		t.Errorf("stops: wrote %d, reloaded %d", len(filtered.Stops), len(reloaded.Stops))
	}
	if len(reloaded.Trips) != len(filtered.Trips) {
		t.Errorf("trips: wrote %d, reloaded %d", len(filtered.Trips), len(reloaded.Trips))
	}
	if len(reloaded.StopTimes) != len(filtered.StopTimes) {
		t.Errorf("stop_times: wrote %d, reloaded %d", len(filtered.StopTimes), len(reloaded.StopTimes))
	}
	if reloaded.Stops[0].Name != "Parque Central" {
		t.Errorf("stop name = %q", reloaded.Stops[0].Name)
	}
	if !reloaded.Present(TableShapes) {
		t.Error("shapes table should survive the round trip")
	}
}
