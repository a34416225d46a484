package model

// RawRecord is one positional row of the SIDRA payload before the header
// row is promoted to column names.
type RawRecord []string

type DiseaseRecord struct {
	DiseaseType      string `json:"disease_type"`
	TerritorialLevel string `json:"territorial_level"`
	Value            int    `json:"value"`
	Year             string `json:"year"`
	RegionName       string `json:"region_name"`
	DiseaseCode      string `json:"disease_code"`
}

type JoinedRecord struct {
	DiseaseType string `json:"disease_type"`
	Value       int    `json:"value"`
	Year        string `json:"year"`
	StateName   string `json:"state_name"`
	GeoID       string `json:"geo_id"`
}

type DiseaseTotal struct {
	DiseaseType string `json:"disease_type"`
	Value       int    `json:"value"`
}

type StateTotal struct {
	GeoID     string `json:"geo_id"`
	StateName string `json:"state_name"`
	Value     int    `json:"value"`
}
