/*
Package validation checks GTFS feeds for specification compliance and
produces a scored, deterministic report.

# Overview

The engine runs a fixed, enumerable set of independent rules over an
in-memory gtfs.Feed. Each rule is a pure read over the feed and yields zero
or more issues; rules have no data dependencies on each other, so the engine
runs them concurrently and merges the results under a total order
(rule id, table, row, message). Validating the same feed twice always
produces byte-identical serialized reports.

# Usage

	feed, err := gtfs.Load("feed.zip")
	if err != nil {
	    log.Fatal(err)
	}
	engine := validation.NewEngine()
	report, err := engine.Validate(feed)
	if err != nil {
	    // a required table is missing entirely; no report exists
	    log.Fatal(err)
	}
	fmt.Printf("status=%s score=%d\n", report.Status, report.Score)

# Scoring

Every error deducts 10 points and every warning 3 points from 100, floored
at 0. A feed with zero issues scores exactly 100. Any error additionally
caps the score below the pass threshold (60 by default), so status is "fail"
exactly when at least one error was found.

# Fatal vs. recoverable

A required table (agency, routes, stops, trips, stop_times) that is entirely
absent aborts validation with *MissingTableError; callers never receive a
partial report. Row-level problems, broken references and logical
inconsistencies are recoverable: each becomes one issue and the run
continues.

# Custom rules

Rules are plain values; register extra checks with Engine.AddRule. A custom
rule must stay order-insensitive and must not mutate the feed.
*/
package validation
