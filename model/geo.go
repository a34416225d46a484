package model

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type GeoFeature struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Centroid *LatLng `json:"centroid,omitempty"`
	Geohash  string  `json:"geohash,omitempty"`
}

type UnmatchedRegion struct {
	Name       string `json:"name"`
	Suggestion string `json:"suggestion,omitempty"`
}

// JoinStats summarizes what the geographic join kept and dropped.
type JoinStats struct {
	RowsIn      int               `json:"rows_in"`
	RowsJoined  int               `json:"rows_joined"`
	RowsDropped int               `json:"rows_dropped"`
	Candidates  int               `json:"candidates"`
	Unmatched   []UnmatchedRegion `json:"unmatched,omitempty"`
}
