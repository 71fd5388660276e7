package gtfs

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// buildFeedZip builds an in-memory GTFS zip from file name -> CSV content.
func buildFeedZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func minimalFiles() map[string]string {
	return map[string]string{
		"agency.txt":     "agency_id,agency_name,agency_url,agency_timezone\nDB,Databus,http://databus.cr,America/Costa_Rica\n",
		"routes.txt":     "route_id,agency_id,route_short_name,route_long_name,route_type\nR1,DB,1,Central,3\n",
		"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon\nST1,Parque Central,9.9333,-84.0833\nST2,Catedral,9.9340,-84.0800\n",
		"trips.txt":      "route_id,service_id,trip_id\nR1,S1,T1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\nT1,08:00:00,08:00:00,ST1,1\nT1,08:05:00,08:05:00,ST2,2\n",
	}
}

func TestLoadFromBytes_MinimalFeed(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, minimalFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	if len(feed.Agencies) != 1 {
		t.Errorf("expected 1 agency, got %d", len(feed.Agencies))
	}
	if len(feed.Stops) != 2 {
		t.Errorf("expected 2 stops, got %d", len(feed.Stops))
	}
	if len(feed.StopTimes) != 2 {
		t.Errorf("expected 2 stop_times, got %d", len(feed.StopTimes))
	}

	if got := feed.Agencies[0].Timezone; got != "America/Costa_Rica" {
		t.Errorf("agency timezone = %q", got)
	}
	if got := feed.Routes[0].LongName; got != "Central" {
		t.Errorf("route long name = %q", got)
	}
	if got := feed.Trips[0].ServiceID; got != "S1" {
		t.Errorf("trip service = %q", got)
	}
}

func TestLoadFromBytes_TablePresence(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, minimalFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	tests := []struct {
		table string
		want  bool
	}{
		{TableAgency, true},
		{TableRoutes, true},
		{TableStops, true},
		{TableTrips, true},
		{TableStopTimes, true},
		{TableCalendar, false},
		{TableShapes, false},
	}
	for _, tt := range tests {
		if got := feed.Present(tt.table); got != tt.want {
			t.Errorf("Present(%s) = %v, want %v", tt.table, got, tt.want)
		}
	}
}

func TestLoadFromBytes_Columns(t *testing.T) {
	feed, err := LoadFromBytes(buildFeedZip(t, minimalFiles()))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	if !feed.HasColumn(TableStops, "stop_lat") {
		t.Error("stops should declare stop_lat")
	}
	if feed.HasColumn(TableStops, "wheelchair_boarding") {
		t.Error("stops should not declare wheelchair_boarding")
	}
	if cols := feed.Columns(TableTrips); len(cols) != 3 {
		t.Errorf("trips columns = %v", cols)
	}
}

func TestLoadFromBytes_RowOrderPreserved(t *testing.T) {
	files := minimalFiles()
	files["stops.txt"] = "stop_id,stop_name,stop_lat,stop_lon\nB,Second,1,1\nA,First,2,2\nC,Third,3,3\n"
	feed, err := LoadFromBytes(buildFeedZip(t, files))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	ids := []string{}
	for _, s := range feed.Stops {
		ids = append(ids, s.ID)
	}
	want := []string{"B", "A", "C"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("stop order = %v, want %v", ids, want)
		}
	}
	if feed.Stops[0].Row != 1 || feed.Stops[2].Row != 3 {
		t.Errorf("row numbers = %d, %d", feed.Stops[0].Row, feed.Stops[2].Row)
	}
}

func TestLoadFromBytes_BOMHeader(t *testing.T) {
	files := minimalFiles()
	files["agency.txt"] = "\uFEFFagency_id,agency_name,agency_url,agency_timezone\nDB,Databus,http://databus.cr,America/Costa_Rica\n"
	feed, err := LoadFromBytes(buildFeedZip(t, files))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if !feed.HasColumn(TableAgency, "agency_id") {
		t.Error("BOM should be stripped from the first header cell")
	}
}

func TestLoadFromBytes_ShortRows(t *testing.T) {
	files := minimalFiles()
	files["routes.txt"] = "route_id,agency_id,route_short_name,route_long_name,route_type\nR1,DB\n"
	feed, err := LoadFromBytes(buildFeedZip(t, files))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if got := feed.Routes[0].Type; got != "" {
		t.Errorf("missing cell should load as empty string, got %q", got)
	}
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	for name, content := range minimalFiles() {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	feed, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir): %v", err)
	}
	if len(feed.Routes) != 1 || len(feed.Stops) != 2 {
		t.Errorf("unexpected counts: %d routes, %d stops", len(feed.Routes), len(feed.Stops))
	}
	if feed.Present(TableCalendar) {
		t.Error("calendar should not be present")
	}
}

func TestLoad_ZipFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.zip")
	if err := os.WriteFile(path, buildFeedZip(t, minimalFiles()), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	feed, err := Load(path)
	if err != nil {
		t.Fatalf("Load(zip): %v", err)
	}
	if len(feed.Trips) != 1 {
		t.Errorf("expected 1 trip, got %d", len(feed.Trips))
	}
}

func TestLoad_MissingPath(t *testing.T) {
	if _, err := Load("/nonexistent/feed.zip"); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestStop_LatLon(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		wantErr bool
	}{
		{"valid", "9.9333", "-84.0833", false},
		{"non-numeric lat", "abc", "-84.0833", true},
		{"empty lon", "9.9333", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stop{Lat: tt.lat, Lon: tt.lon}
			_, _, err := s.LatLon()
			if (err != nil) != tt.wantErr {
				t.Errorf("LatLon() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
