package gtfs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string            `json:"type"`
	Geometry   geoJSONGeometry   `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

type geoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// StopsGeoJSON renders the feed's stops as a GeoJSON FeatureCollection of
// Point features in file order. Stops with unparseable coordinates are
// skipped; validation reports those separately.
func (f *Feed) StopsGeoJSON() ([]byte, error) {
	fc := geoJSONFeatureCollection{Type: "FeatureCollection", Features: []geoJSONFeature{}}
	for _, s := range f.Stops {
		lat, lon, err := s.LatLon()
		if err != nil {
			continue
		}
		props := map[string]string{
			"stop_id":   s.ID,
			"stop_name": s.Name,
		}
		if s.Code != "" {
			props["stop_code"] = s.Code
		}
		fc.Features = append(fc.Features, geoJSONFeature{
			Type:       "Feature",
			Geometry:   geoJSONGeometry{Type: "Point", Coordinates: [2]float64{lon, lat}},
			Properties: props,
		})
	}
	return json.MarshalIndent(fc, "", " ")
}

// ShapesGeoJSON renders the feed's shapes as a GeoJSON FeatureCollection with
// one LineString per shape_id, points ordered by shape_pt_sequence. Shape ids
// appear in order of first occurrence in the file.
func (f *Feed) ShapesGeoJSON() ([]byte, error) {
	type pt struct {
		seq      int
		row      int
		lon, lat float64
	}
	points := map[string][]pt{}
	order := []string{}
	for _, sp := range f.Shapes {
		lat, lon, err := sp.LatLon()
		if err != nil {
			continue
		}
		if _, seen := points[sp.ShapeID]; !seen {
			order = append(order, sp.ShapeID)
		}
		seq, err := sp.Seq()
		if err != nil {
			seq = sp.Row
		}
		points[sp.ShapeID] = append(points[sp.ShapeID], pt{seq: seq, row: sp.Row, lon: lon, lat: lat})
	}

	fc := geoJSONFeatureCollection{Type: "FeatureCollection", Features: []geoJSONFeature{}}
	for _, id := range order {
		pts := points[id]
		sort.Slice(pts, func(i, j int) bool {
			if pts[i].seq != pts[j].seq {
				return pts[i].seq < pts[j].seq
			}
			return pts[i].row < pts[j].row
		})
		coords := make([][2]float64, len(pts))
		for i, p := range pts {
			coords[i] = [2]float64{p.lon, p.lat}
		}
		fc.Features = append(fc.Features, geoJSONFeature{
			Type:       "Feature",
			Geometry:   geoJSONGeometry{Type: "LineString", Coordinates: coords},
			Properties: map[string]string{"shape_id": id},
		})
	}
	return json.MarshalIndent(fc, "", " ")
}

// ExportGeoJSON writes stops.geojson and, when the feed has shape data,
// shapes.geojson into dir. It returns a map of layer name to the written
// file path.
func (f *Feed) ExportGeoJSON(dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", dir, err)
	}

	files := map[string]string{}

	stops, err := f.StopsGeoJSON()
	if err != nil {
		return nil, fmt.Errorf("render stops layer: %w", err)
	}
	stopsPath := filepath.Join(dir, "stops.geojson")
	if err := os.WriteFile(stopsPath, stops, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", stopsPath, err)
	}
	files["stops"] = stopsPath
	log.Printf("exported %d stops to %s", len(f.Stops), stopsPath)

	if len(f.Shapes) > 0 {
		shapes, err := f.ShapesGeoJSON()
		if err != nil {
			return nil, fmt.Errorf("render shapes layer: %w", err)
		}
		shapesPath := filepath.Join(dir, "shapes.geojson")
		if err := os.WriteFile(shapesPath, shapes, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", shapesPath, err)
		}
		files["shapes"] = shapesPath
		log.Printf("exported shapes to %s", shapesPath)
	}

	return files, nil
}
