package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/databus-cr/databus-go/config"
)

const userAgent = "databus-go-sdk/0.1.0"

// Client is an HTTP client for the Databús transit-data API.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
}

// NewClient creates a client from configuration. Zero values fall back to
// the package defaults.
func NewClient(cfg config.APIConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = config.DefaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// get performs a GET with auth headers and bounded retries on 429 and 5xx.
func (c *Client) get(path string, params url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
		}
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to fetch %s: %w", u, err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *Client) getJSON(path string, params url.Values, out any) error {
	resp, err := c.get(path, params)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Feeds lists the available GTFS feeds, optionally filtered by ISO country
// code.
func (c *Client) Feeds(country string) ([]FeedInfo, error) {
	params := url.Values{}
	if country != "" {
		params.Set("country", country)
	}
	var out feedsResponse
	if err := c.getJSON("/feeds", params, &out); err != nil {
		return nil, err
	}
	return out.Feeds, nil
}

// Feed fetches one feed's metadata by id.
func (c *Client) Feed(feedID string) (*FeedInfo, error) {
	var out FeedInfo
	if err := c.getJSON("/feeds/"+url.PathEscape(feedID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Agencies lists the agencies of a feed.
func (c *Client) Agencies(feedID string) ([]Agency, error) {
	var out agenciesResponse
	if err := c.getJSON("/feeds/"+url.PathEscape(feedID)+"/agencies", nil, &out); err != nil {
		return nil, err
	}
	return out.Agencies, nil
}

// RouteFilter narrows a Routes query. Zero values mean no filter.
type RouteFilter struct {
	AgencyID  string
	RouteType int
	HasType   bool
}

// Routes lists the routes of a feed.
func (c *Client) Routes(feedID string, filter RouteFilter) ([]Route, error) {
	params := url.Values{}
	if filter.AgencyID != "" {
		params.Set("agency_id", filter.AgencyID)
	}
	if filter.HasType {
		params.Set("route_type", strconv.Itoa(filter.RouteType))
	}
	var out routesResponse
	if err := c.getJSON("/feeds/"+url.PathEscape(feedID)+"/routes", params, &out); err != nil {
		return nil, err
	}
	return out.Routes, nil
}

// Stops lists the stops of a feed, optionally filtered by route.
func (c *Client) Stops(feedID, routeID string) ([]Stop, error) {
	params := url.Values{}
	if routeID != "" {
		params.Set("route_id", routeID)
	}
	var out stopsResponse
	if err := c.getJSON("/feeds/"+url.PathEscape(feedID)+"/stops", params, &out); err != nil {
		return nil, err
	}
	return out.Stops, nil
}

// Trips lists the trips of a feed, optionally filtered by route or service.
func (c *Client) Trips(feedID, routeID, serviceID string) ([]Trip, error) {
	params := url.Values{}
	if routeID != "" {
		params.Set("route_id", routeID)
	}
	if serviceID != "" {
		params.Set("service_id", serviceID)
	}
	var out tripsResponse
	if err := c.getJSON("/feeds/"+url.PathEscape(feedID)+"/trips", params, &out); err != nil {
		return nil, err
	}
	return out.Trips, nil
}

// DownloadFeed streams a feed's GTFS zip to w and returns the byte count.
func (c *Client) DownloadFeed(feedID string, w io.Writer) (int64, error) {
	resp, err := c.get("/feeds/"+url.PathEscape(feedID)+"/download", nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download feed %s: %w", feedID, err)
	}
	return n, nil
}
