// Package api is an HTTP client for the Databús transit-data API.
//
// The client covers feed discovery (Feeds, Feed), feed contents (Agencies,
// Routes, Stops, Trips) and archive download (DownloadFeed). Requests carry
// a Bearer token when an API key is configured and retry a bounded number of
// times on 429 and 5xx responses.
//
// The client never participates in validation; download a feed, load it with
// the gtfs package and validate the result locally.
package api
