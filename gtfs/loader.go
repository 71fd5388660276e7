package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var knownTables = []string{
	TableAgency, TableRoutes, TableStops, TableTrips, TableStopTimes,
	TableCalendar, TableCalendarDates, TableFareRules, TableShapes,
}

// Load reads a GTFS dataset from path, which may be a zip archive or a
// directory of .txt tables.
func Load(path string) (*Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	if info.IsDir() {
		return loadFromDir(path)
	}
	return loadFromZipFile(path)
}

// LoadFromBytes reads a GTFS dataset from an in-memory zip archive.
func LoadFromBytes(data []byte) (*Feed, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read feed zip: %w", err)
	}
	return loadFromZipReader(zr)
}

func loadFromZipFile(path string) (*Feed, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open feed zip %s: %w", path, err)
	}
	defer zr.Close()
	return loadFromZipReader(&zr.Reader)
}

func loadFromZipReader(zr *zip.Reader) (*Feed, error) {
	f := newFeed()
	for _, zf := range zr.File {
		table, ok := tableForFileName(zf.Name)
		if !ok {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", zf.Name, err)
		}
		err = f.consumeCSV(table, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", zf.Name, err)
		}
	}
	f.logSummary()
	return f, nil
}

func loadFromDir(dir string) (*Feed, error) {
	f := newFeed()
	for _, table := range knownTables {
		path := filepath.Join(dir, table+".txt")
		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		err = f.consumeCSV(table, file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	f.logSummary()
	return f, nil
}

func newFeed() *Feed {
	return &Feed{
		present: map[string]bool{},
		columns: map[string][]string{},
	}
}

func tableForFileName(name string) (string, bool) {
	base := strings.ToLower(filepath.Base(name))
	for _, t := range knownTables {
		if base == t+".txt" {
			return t, true
		}
	}
	return "", false
}

func (f *Feed) logSummary() {
	log.Printf("loaded GTFS feed: %d agencies, %d routes, %d stops, %d trips, %d stop_times",
		len(f.Agencies), len(f.Routes), len(f.Stops), len(f.Trips), len(f.StopTimes))
}

func (f *Feed) consumeCSV(table string, r io.Reader) error {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	f.present[table] = true
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\uFEFF")
	}
	for i := range head {
		head[i] = strings.TrimSpace(head[i])
	}
	f.columns[table] = head

	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(h, col) {
				return i
			}
		}
		return -1
	}
	get := func(row []string, i int) string {
		if i >= 0 && i < len(row) {
			return row[i]
		}
		return ""
	}

	switch table {
	case TableAgency:
		id := idx("agency_id")
		name := idx("agency_name")
		url := idx("agency_url")
		tz := idx("agency_timezone")
		lang := idx("agency_lang")
		phone := idx("agency_phone")
		for n, row := range rec[1:] {
			f.Agencies = append(f.Agencies, Agency{
				Row:      n + 1,
				ID:       get(row, id),
				Name:     get(row, name),
				URL:      get(row, url),
				Timezone: get(row, tz),
				Lang:     get(row, lang),
				Phone:    get(row, phone),
			})
		}
	case TableRoutes:
		id := idx("route_id")
		ag := idx("agency_id")
		sn := idx("route_short_name")
		ln := idx("route_long_name")
		desc := idx("route_desc")
		typ := idx("route_type")
		color := idx("route_color")
		for n, row := range rec[1:] {
			f.Routes = append(f.Routes, Route{
				Row:       n + 1,
				ID:        get(row, id),
				AgencyID:  get(row, ag),
				ShortName: get(row, sn),
				LongName:  get(row, ln),
				Desc:      get(row, desc),
				Type:      get(row, typ),
				Color:     get(row, color),
			})
		}
	case TableStops:
		id := idx("stop_id")
		code := idx("stop_code")
		name := idx("stop_name")
		desc := idx("stop_desc")
		lat := idx("stop_lat")
		lon := idx("stop_lon")
		zone := idx("zone_id")
		loc := idx("location_type")
		parent := idx("parent_station")
		for n, row := range rec[1:] {
			f.Stops = append(f.Stops, Stop{
				Row:           n + 1,
				ID:            get(row, id),
				Code:          get(row, code),
				Name:          get(row, name),
				Desc:          get(row, desc),
				Lat:           get(row, lat),
				Lon:           get(row, lon),
				ZoneID:        get(row, zone),
				LocationType:  get(row, loc),
				ParentStation: get(row, parent),
			})
		}
	case TableTrips:
		route := idx("route_id")
		service := idx("service_id")
		id := idx("trip_id")
		hs := idx("trip_headsign")
		dir := idx("direction_id")
		blk := idx("block_id")
		sh := idx("shape_id")
		for n, row := range rec[1:] {
			f.Trips = append(f.Trips, Trip{
				Row:         n + 1,
				RouteID:     get(row, route),
				ServiceID:   get(row, service),
				ID:          get(row, id),
				Headsign:    get(row, hs),
				DirectionID: get(row, dir),
				BlockID:     get(row, blk),
				ShapeID:     get(row, sh),
			})
		}
	case TableStopTimes:
		trip := idx("trip_id")
		arr := idx("arrival_time")
		dep := idx("departure_time")
		stop := idx("stop_id")
		seq := idx("stop_sequence")
		pickup := idx("pickup_type")
		dropOff := idx("drop_off_type")
		for n, row := range rec[1:] {
			f.StopTimes = append(f.StopTimes, StopTime{
				Row:           n + 1,
				TripID:        get(row, trip),
				ArrivalTime:   get(row, arr),
				DepartureTime: get(row, dep),
				StopID:        get(row, stop),
				StopSequence:  get(row, seq),
				PickupType:    get(row, pickup),
				DropOffType:   get(row, dropOff),
			})
		}
	case TableCalendar:
		id := idx("service_id")
		days := [7]int{idx("monday"), idx("tuesday"), idx("wednesday"),
			idx("thursday"), idx("friday"), idx("saturday"), idx("sunday")}
		start := idx("start_date")
		end := idx("end_date")
		for n, row := range rec[1:] {
			svc := Service{
				Row:       n + 1,
				ID:        get(row, id),
				StartDate: get(row, start),
				EndDate:   get(row, end),
			}
			for d, col := range days {
				svc.Weekdays[d] = get(row, col)
			}
			f.Calendar = append(f.Calendar, svc)
		}
	case TableCalendarDates:
		id := idx("service_id")
		date := idx("date")
		exc := idx("exception_type")
		for n, row := range rec[1:] {
			f.CalendarDates = append(f.CalendarDates, ServiceException{
				Row:           n + 1,
				ServiceID:     get(row, id),
				Date:          get(row, date),
				ExceptionType: get(row, exc),
			})
		}
	case TableFareRules:
		fare := idx("fare_id")
		route := idx("route_id")
		origin := idx("origin_id")
		dest := idx("destination_id")
		for n, row := range rec[1:] {
			f.FareRules = append(f.FareRules, FareRule{
				Row:           n + 1,
				FareID:        get(row, fare),
				RouteID:       get(row, route),
				OriginID:      get(row, origin),
				DestinationID: get(row, dest),
			})
		}
	case TableShapes:
		id := idx("shape_id")
		lat := idx("shape_pt_lat")
		lon := idx("shape_pt_lon")
		seq := idx("shape_pt_sequence")
		for n, row := range rec[1:] {
			f.Shapes = append(f.Shapes, ShapePoint{
				Row:      n + 1,
				ShapeID:  get(row, id),
				Lat:      get(row, lat),
				Lon:      get(row, lon),
				Sequence: get(row, seq),
			})
		}
	}
	return nil
}
