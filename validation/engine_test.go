package validation

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/databus-cr/databus-go/gtfs"
)

// pristineFiles is a complete, fully compliant fixture: every required table,
// a calendar, shapes, named routes, a single agency. Validates to a clean
// score of 100.
func pristineFiles() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"DB,Databus,http://databus.cr,America/Costa_Rica\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,DB,1,Central,3\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"ST1,Parque Central,9.9333,-84.0833\n" +
			"ST2,Catedral,9.9340,-84.0800\n",
		"trips.txt": "route_id,service_id,trip_id\n" +
			"R1,S1,T1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:00:00,08:00:00,ST1,1\n" +
			"T1,08:05:00,08:05:00,ST2,2\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"S1,1,1,1,1,1,0,0,20250101,20251231\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\n" +
			"SH1,9.9333,-84.0833,1\n" +
			"SH1,9.9340,-84.0800,2\n",
	}
}

// loadFixture builds a zip from files and loads it into a Feed.
func loadFixture(t *testing.T, files map[string]string) *gtfs.Feed {
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
	feed, err := gtfs.LoadFromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return feed
}

func TestValidate_PristineFeedScores100(t *testing.T) {
	report, err := NewEngine().Validate(loadFixture(t, pristineFiles()))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Status != StatusPass {
		t.Errorf("status = %s, want pass", report.Status)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
	if len(report.Errors) != 0 || len(report.Warnings) != 0 {
		t.Errorf("expected no issues, got %d errors %d warnings", len(report.Errors), len(report.Warnings))
	}
}

func TestValidate_Deterministic(t *testing.T) {
	// a feed with a mix of issues so the sort actually has work to do
	files := pristineFiles()
	delete(files, "shapes.txt")
	files["trips.txt"] = "route_id,service_id,trip_id\nR1,S1,T1\nRX,S1,T2\nRY,SZ,T3\n"

	var serialized [][]byte
	for i := 0; i < 2; i++ {
		report, err := NewEngine().Validate(loadFixture(t, files))
		if err != nil {
			t.Fatalf("Validate run %d: %v", i, err)
		}
		out, err := report.JSON()
		if err != nil {
			t.Fatalf("JSON run %d: %v", i, err)
		}
		serialized = append(serialized, out)
	}
	if !bytes.Equal(serialized[0], serialized[1]) {
		t.Error("validating the same feed twice produced different serialized reports")
	}
}

func TestValidate_BrokenForeignKeyFails(t *testing.T) {
	files := pristineFiles()
	files["trips.txt"] = "route_id,service_id,trip_id\nRX,S1,T1\n"

	report, err := NewEngine().Validate(loadFixture(t, files))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Status != StatusFail {
		t.Errorf("status = %s, want fail", report.Status)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(report.Errors), report.Errors)
	}
	if report.Errors[0].Rule != RuleForeignKeys {
		t.Errorf("rule = %s, want %s", report.Errors[0].Rule, RuleForeignKeys)
	}
	if report.Score >= 60 {
		t.Errorf("score = %d, must stay below the pass threshold", report.Score)
	}
}

func TestValidate_MissingShapesIsOneWarning(t *testing.T) {
	files := pristineFiles()
	delete(files, "shapes.txt")

	report, err := NewEngine().Validate(loadFixture(t, files))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Status != StatusPass {
		t.Errorf("status = %s, want pass", report.Status)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %v", len(report.Warnings), report.Warnings)
	}
	if report.Warnings[0].Rule != RuleMissingShapes {
		t.Errorf("rule = %s", report.Warnings[0].Rule)
	}
	if report.Score != 97 {
		t.Errorf("score = %d, want 97 (one warning deducts 3)", report.Score)
	}
}

func TestValidate_ScoreMonotone(t *testing.T) {
	clean := pristineFiles()

	oneWarning := pristineFiles()
	delete(oneWarning, "shapes.txt")

	twoWarnings := pristineFiles()
	delete(twoWarnings, "shapes.txt")
	twoWarnings["routes.txt"] = "route_id,agency_id,route_short_name,route_long_name,route_type\nR1,DB,,,3\n"

	scores := []int{}
	for _, files := range []map[string]string{clean, oneWarning, twoWarnings} {
		report, err := NewEngine().Validate(loadFixture(t, files))
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		scores = append(scores, report.Score)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			t.Errorf("score increased with more issues: %v", scores)
		}
	}
}

func TestValidate_ScoreFloorZero(t *testing.T) {
	files := pristineFiles()
	st := "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n"
	for i := 0; i < 10; i++ {
		st += "TX,08:00:00,08:00:00,SX,1\n"
	}
	files["stop_times.txt"] = st

	report, err := NewEngine().Validate(loadFixture(t, files))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Score != 0 {
		t.Errorf("score = %d, want floor of 0", report.Score)
	}
	if report.Status != StatusFail {
		t.Errorf("status = %s, want fail", report.Status)
	}
}

func TestValidate_MissingRequiredTableIsFatal(t *testing.T) {
	files := pristineFiles()
	delete(files, "stops.txt")

	report, err := NewEngine().Validate(loadFixture(t, files))
	if report != nil {
		t.Fatal("no report may be returned on a fatal error")
	}
	var missing *MissingTableError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingTableError, got %v", err)
	}
	if missing.Table != gtfs.TableStops {
		t.Errorf("missing table = %s, want stops", missing.Table)
	}
}

func TestValidate_NilFeed(t *testing.T) {
	if _, err := NewEngine().Validate(nil); err == nil {
		t.Fatal("expected error for nil feed")
	}
}

func TestValidate_CustomRule(t *testing.T) {
	engine := NewEngine()
	engine.AddRule(Rule{
		ID:          "always_warn",
		Description: "test rule",
		Severity:    SeverityWarning,
		Check: func(f *gtfs.Feed) []Issue {
			return []Issue{{Message: "custom check fired"}}
		},
	})

	report, err := engine.Validate(loadFixture(t, pristineFiles()))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Rule != "always_warn" {
		t.Fatalf("custom rule not reflected: %+v", report.Warnings)
	}
	if report.Warnings[0].Severity != SeverityWarning {
		t.Error("engine should stamp severity onto issues")
	}
}

func TestValidate_PassThreshold(t *testing.T) {
	files := pristineFiles()
	files["trips.txt"] = "route_id,service_id,trip_id\nRX,S1,T1\n"

	engine := NewEngine()
	engine.SetPassThreshold(90)
	report, err := engine.Validate(loadFixture(t, files))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Score >= 90 {
		t.Errorf("score = %d, must stay below threshold 90", report.Score)
	}
}

func TestReport_JSONRoundTrip(t *testing.T) {
	files := pristineFiles()
	delete(files, "shapes.txt")
	report, err := NewEngine().Validate(loadFixture(t, files))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := report.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	parsed, err := ParseReport(out)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if parsed.Status != report.Status || parsed.Score != report.Score {
		t.Errorf("round trip mismatch: %+v vs %+v", parsed, report)
	}
	if len(parsed.Warnings) != len(report.Warnings) {
		t.Errorf("warnings lost in round trip")
	}
}
