package api

// FeedInfo describes one GTFS feed registered in the Databús system.
type FeedInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region,omitempty"`
	City        string `json:"city,omitempty"`
	Operator    string `json:"operator,omitempty"`
	URL         string `json:"url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	Version     string `json:"version,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Agency is a transit agency record served by the API.
type Agency struct {
	AgencyID       string `json:"agency_id,omitempty"`
	AgencyName     string `json:"agency_name"`
	AgencyURL      string `json:"agency_url"`
	AgencyTimezone string `json:"agency_timezone"`
	AgencyLang     string `json:"agency_lang,omitempty"`
	AgencyPhone    string `json:"agency_phone,omitempty"`
}

// Route is a transit route record served by the API.
type Route struct {
	RouteID        string `json:"route_id"`
	AgencyID       string `json:"agency_id,omitempty"`
	RouteShortName string `json:"route_short_name,omitempty"`
	RouteLongName  string `json:"route_long_name,omitempty"`
	RouteDesc      string `json:"route_desc,omitempty"`
	RouteType      int    `json:"route_type"`
	RouteColor     string `json:"route_color,omitempty"`
}

// Stop is a transit stop record served by the API.
type Stop struct {
	StopID        string  `json:"stop_id"`
	StopCode      string  `json:"stop_code,omitempty"`
	StopName      string  `json:"stop_name"`
	StopLat       float64 `json:"stop_lat"`
	StopLon       float64 `json:"stop_lon"`
	ZoneID        string  `json:"zone_id,omitempty"`
	LocationType  int     `json:"location_type,omitempty"`
	ParentStation string  `json:"parent_station,omitempty"`
}

// Trip is a transit trip record served by the API.
type Trip struct {
	RouteID      string `json:"route_id"`
	ServiceID    string `json:"service_id"`
	TripID       string `json:"trip_id"`
	TripHeadsign string `json:"trip_headsign,omitempty"`
	DirectionID  int    `json:"direction_id,omitempty"`
	BlockID      string `json:"block_id,omitempty"`
	ShapeID      string `json:"shape_id,omitempty"`
}

type feedsResponse struct {
	Feeds []FeedInfo `json:"feeds"`
}

type agenciesResponse struct {
	Agencies []Agency `json:"agencies"`
}

type routesResponse struct {
	Routes []Route `json:"routes"`
}

type stopsResponse struct {
	Stops []Stop `json:"stops"`
}

type tripsResponse struct {
	Trips []Trip `json:"trips"`
}
