package nominatim

// searchResult is one element of the /search response with format=json.
// Coordinates are encoded as strings.
type searchResult struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class,omitempty"`
	Type        string `json:"type,omitempty"`
}

// errorResponse is the body Nominatim returns for rejected requests.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
