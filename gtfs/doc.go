/*
Package gtfs provides GTFS static data loading and the in-memory Feed model.

This package is data-source agnostic: it accepts a zip archive, a directory of
.txt tables, or raw zip bytes, and builds an immutable in-memory Feed. It does
NOT handle HTTP downloads; fetch the archive yourself (see the api package)
and hand the bytes to LoadFromBytes.

# Basic Usage

Load from a local path (zip or directory):

	feed, err := gtfs.Load("costa_rica_gtfs.zip")
	if err != nil {
	    log.Fatal(err)
	}
	stats := feed.Stats()
	fmt.Printf("%d routes, %d stops\n", stats.Routes, stats.Stops)

Load from raw bytes:

	data := fetchGTFSFromYourSource()
	feed, err := gtfs.LoadFromBytes(data)

# Field Representation

Table fields keep the raw CSV string values. Typed accessors (Stop.LatLon,
Route.TypeCode, StopTime.Seq) parse on demand, so a malformed value survives
loading and can be reported row-by-row by the validation package instead of
being silently coerced or dropped.

# Statistics

Stats, RouteStats, Frequency and StopCoverage provide the feed-level and
route-level summaries exposed by the databus CLI.
*/
package gtfs
