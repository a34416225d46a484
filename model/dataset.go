package model

import "sort"

// Dataset is the immutable result of the startup pipeline. Consumers only
// read from it; none of the helpers below modify the underlying tables.
type Dataset struct {
	Diseases []DiseaseRecord `json:"diseases"`
	Joined   []JoinedRecord  `json:"joined"`
	Features []GeoFeature    `json:"features"`
	Stats    JoinStats       `json:"stats"`
}

// ByRegion returns the normalized rows whose region_name equals name, in
// table order.
func (d *Dataset) ByRegion(name string) []DiseaseRecord {
	var out []DiseaseRecord
	for _, rec := range d.Diseases {
		if rec.RegionName == name {
			out = append(out, rec)
		}
	}
	return out
}

// ByDisease returns the joined rows for one disease type, in table order.
func (d *Dataset) ByDisease(diseaseType string) []JoinedRecord {
	var out []JoinedRecord
	for _, rec := range d.Joined {
		if rec.DiseaseType == diseaseType {
			out = append(out, rec)
		}
	}
	return out
}

// DiseaseTypes lists the distinct disease types of the joined table in
// order of first appearance.
func (d *Dataset) DiseaseTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range d.Joined {
		if seen[rec.DiseaseType] {
			continue
		}
		seen[rec.DiseaseType] = true
		out = append(out, rec.DiseaseType)
	}
	return out
}

// StateNames lists the reference features' names in boundary-document order.
func (d *Dataset) StateNames() []string {
	out := make([]string, 0, len(d.Features))
	for _, f := range d.Features {
		out = append(out, f.Name)
	}
	return out
}

func (d *Dataset) Feature(name string) (GeoFeature, bool) {
	for _, f := range d.Features {
		if f.Name == name {
			return f, true
		}
	}
	return GeoFeature{}, false
}

// TotalsByDisease sums value per disease type for one region of the
// normalized table.
func (d *Dataset) TotalsByDisease(region string) []DiseaseTotal {
	index := make(map[string]int)
	var out []DiseaseTotal
	for _, rec := range d.ByRegion(region) {
		i, ok := index[rec.DiseaseType]
		if !ok {
			i = len(out)
			index[rec.DiseaseType] = i
			out = append(out, DiseaseTotal{DiseaseType: rec.DiseaseType})
		}
		out[i].Value += rec.Value
	}
	return out
}

// TotalsByState sums value per state for one disease type of the joined
// table. States are listed in boundary-document order; states with no rows
// for the disease are omitted.
func (d *Dataset) TotalsByState(diseaseType string) []StateTotal {
	sums := make(map[string]int)
	present := make(map[string]bool)
	for _, rec := range d.ByDisease(diseaseType) {
		sums[rec.GeoID] += rec.Value
		present[rec.GeoID] = true
	}
	var out []StateTotal
	for _, f := range d.Features {
		if !present[f.ID] {
			continue
		}
		out = append(out, StateTotal{GeoID: f.ID, StateName: f.Name, Value: sums[f.ID]})
	}
	return out
}

// RankedStates is TotalsByState ordered from the highest total down; ties
// keep boundary order.
func (d *Dataset) RankedStates(diseaseType string) []StateTotal {
	out := d.TotalsByState(diseaseType)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}

// ValueRange returns the smallest and largest per-state total over every
// disease type of the joined table. It is the shared color range of the
// choropleth, so switching diseases keeps the scale fixed. It is taken over
// the summed totals the map colors, not over single rows, so it differs from
// the per-row min and max of value.
func (d *Dataset) ValueRange() (lo int, hi int, ok bool) {
	for _, diseaseType := range d.DiseaseTypes() {
		for _, total := range d.TotalsByState(diseaseType) {
			if !ok {
				lo, hi, ok = total.Value, total.Value, true
				continue
			}
			lo = min(lo, total.Value)
			hi = max(hi, total.Value)
		}
	}
	return lo, hi, ok
}
