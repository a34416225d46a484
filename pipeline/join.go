package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"saneamento-dashboard/geo"
	"saneamento-dashboard/model"
)

// MacroRegions are the country and macro-region names SIDRA reports next to
// the states. They never take part in building the reference table.
var MacroRegions = []string{"Brasil", "Norte", "Nordeste", "Sudeste", "Sul", "Centro-Oeste"}

func isMacroRegion(name string) bool {
	key := geo.MatchKey(name)
	for _, region := range MacroRegions {
		if key == region {
			return true
		}
	}
	return false
}

// JoinResult holds the joined table and the reference features it used.
type JoinResult struct {
	Records  []model.JoinedRecord
	Features []model.GeoFeature
	Stats    model.JoinStats
}

// CandidateNames returns the distinct region names of the table, in order of
// first appearance, without the macro regions.
func CandidateNames(records []model.DiseaseRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		if rec.RegionName == "" || isMacroRegion(rec.RegionName) {
			continue
		}
		key := geo.MatchKey(rec.RegionName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec.RegionName)
	}
	return out
}

// ReferenceFeatures keeps, in boundary order, the features whose name is a
// candidate. A name matched by more than one feature keeps the first.
func ReferenceFeatures(candidates []string, boundary *geo.Boundary, logger *zap.Logger) ([]model.GeoFeature, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wanted := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		wanted[geo.MatchKey(name)] = true
	}

	taken := make(map[string]bool)
	var out []model.GeoFeature
	for _, f := range boundary.Features {
		key := geo.MatchKey(f.Name)
		if !wanted[key] || taken[key] {
			continue
		}
		if f.ID == "" {
			return nil, formatErrorf("boundary", "feature %q has no id", f.Name)
		}
		taken[key] = true

		feature := model.GeoFeature{ID: f.ID, Name: f.Name}
		if c, err := f.Centroid(); err == nil {
			feature.Centroid = &c
			feature.Geohash = geo.Geohash(c)
		} else {
			logger.Debug("feature has no centroid", zap.String("feature", f.Name), zap.Error(err))
		}
		out = append(out, feature)
	}
	return out, nil
}

// Join attaches a geo_id to every record whose region_name names a
// reference feature and drops the rest. Dropped rows are expected (macro
// regions, a few spelling differences) and are logged, not returned as
// errors.
func Join(records []model.DiseaseRecord, boundary *geo.Boundary, logger *zap.Logger) (JoinResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if boundary == nil {
		return JoinResult{}, formatErrorf("boundary", "no boundary document")
	}

	candidates := CandidateNames(records)
	features, err := ReferenceFeatures(candidates, boundary, logger)
	if err != nil {
		return JoinResult{}, err
	}

	byName := make(map[string]model.GeoFeature, len(features))
	for _, f := range features {
		byName[geo.MatchKey(f.Name)] = f
	}

	joined := make([]model.JoinedRecord, 0, len(records))
	for i, rec := range records {
		f, ok := byName[geo.MatchKey(rec.RegionName)]
		if !ok {
			continue
		}
		value, err := CoerceValue(rec.Value)
		if err != nil {
			return JoinResult{}, fmt.Errorf("joined row %d: %w", i, err)
		}
		joined = append(joined, model.JoinedRecord{
			DiseaseType: rec.DiseaseType,
			Value:       value,
			Year:        rec.Year,
			StateName:   f.Name,
			GeoID:       f.ID,
		})
	}

	stats := model.JoinStats{
		RowsIn:      len(records),
		RowsJoined:  len(joined),
		RowsDropped: len(records) - len(joined),
		Candidates:  len(candidates),
	}
	for _, name := range candidates {
		if _, ok := byName[geo.MatchKey(name)]; ok {
			continue
		}
		miss := model.UnmatchedRegion{Name: name}
		if suggestion, ok := boundary.Nearest(name); ok {
			miss.Suggestion = suggestion
		}
		stats.Unmatched = append(stats.Unmatched, miss)
		logger.Warn("region has no boundary feature",
			zap.String("region", name),
			zap.String("closest_feature", miss.Suggestion),
		)
	}

	logger.Info("geographic join done",
		zap.Int("rows_in", stats.RowsIn),
		zap.Int("rows_joined", stats.RowsJoined),
		zap.Int("rows_dropped", stats.RowsDropped),
		zap.Int("features", len(features)),
	)
	return JoinResult{Records: joined, Features: features, Stats: stats}, nil
}
