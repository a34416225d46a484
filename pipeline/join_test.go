package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"saneamento-dashboard/geo"
	"saneamento-dashboard/model"
)

const square = `{"type":"Polygon","coordinates":[[[-70,-8],[-68,-8],[-68,-10],[-70,-10],[-70,-8]]]}`

func testBoundary() *geo.Boundary {
	return &geo.Boundary{Features: []geo.Feature{
		{ID: "AC", Name: "Acre", Geometry: json.RawMessage(square)},
		{ID: "PA", Name: "Pará"},
		{ID: "SUL", Name: "Sul"},
		{ID: "SP", Name: "São Paulo"},
		{ID: "AC2", Name: "Acre"},
	}}
}

func TestJoin_Scenario(t *testing.T) {
	records, err := Normalize(mustDecode(t, scenarioPayload))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	result, err := Join(records, testBoundary(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := []model.JoinedRecord{{DiseaseType: "Cólera", Value: 0, Year: "2010", StateName: "Acre", GeoID: "AC"}}
	if diff := cmp.Diff(want, result.Records); diff != "" {
		t.Fatalf("unexpected joined records (-want +got):\n%s", diff)
	}
	if len(result.Features) != 1 || result.Features[0].ID != "AC" {
		t.Fatalf("expected only the Acre feature, got %+v", result.Features)
	}
	if result.Features[0].Centroid == nil || result.Features[0].Geohash == "" {
		t.Fatalf("expected centroid and geohash, got %+v", result.Features[0])
	}
}

func TestJoin_MacroRegionsNeverJoin(t *testing.T) {
	records := []model.DiseaseRecord{
		{DiseaseType: "Dengue", Value: 3, Year: "2010", RegionName: "Sul"},
		{DiseaseType: "Dengue", Value: 4, Year: "2010", RegionName: "Brasil"},
		{DiseaseType: "Dengue", Value: 5, Year: "2010", RegionName: "Pará"},
	}

	result, err := Join(records, testBoundary(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, rec := range result.Records {
		if rec.StateName == "Sul" || rec.StateName == "Brasil" {
			t.Fatalf("macro region joined: %+v", rec)
		}
	}
	if len(result.Records) != 1 || result.Records[0].GeoID != "PA" {
		t.Fatalf("expected only Pará, got %+v", result.Records)
	}
	if result.Stats.RowsDropped != 2 {
		t.Fatalf("expected 2 dropped rows, got %d", result.Stats.RowsDropped)
	}
}

func TestJoin_CountMatchesMatchedRecords(t *testing.T) {
	records := []model.DiseaseRecord{
		{DiseaseType: "Cólera", Value: 1, RegionName: "Acre"},
		{DiseaseType: "Cólera", Value: 2, RegionName: "Pará"},
		{DiseaseType: "Cólera", Value: 3, RegionName: "Norte"},
		{DiseaseType: "Dengue", Value: 4, RegionName: "Acre"},
		{DiseaseType: "Dengue", Value: 5, RegionName: "Roraima"},
		{DiseaseType: "Dengue", Value: 6, RegionName: "Sao Paulo"},
		{DiseaseType: "Malária", Value: 7, RegionName: "São Paulo"},
	}
	boundary := testBoundary()

	result, err := Join(records, boundary, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	names := make(map[string]bool)
	for _, f := range boundary.Features {
		names[f.Name] = true
	}
	expected := 0
	for _, rec := range records {
		if names[rec.RegionName] && !isMacroRegion(rec.RegionName) {
			expected++
		}
	}
	if len(result.Records) != expected {
		t.Fatalf("expected %d joined records, got %d", expected, len(result.Records))
	}
	for _, rec := range result.Records {
		if rec.GeoID == "" {
			t.Fatalf("joined record without geo_id: %+v", rec)
		}
	}
	if result.Stats.RowsIn != len(records) || result.Stats.RowsJoined+result.Stats.RowsDropped != len(records) {
		t.Fatalf("inconsistent stats: %+v", result.Stats)
	}
}

func TestJoin_DuplicateFeatureNameKeepsFirst(t *testing.T) {
	records := []model.DiseaseRecord{{DiseaseType: "Dengue", Value: 1, RegionName: "Acre"}}

	result, err := Join(records, testBoundary(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].GeoID != "AC" {
		t.Fatalf("expected one record joined to AC, got %+v", result.Records)
	}
}

func TestJoin_MatchesDecomposedAccents(t *testing.T) {
	records := []model.DiseaseRecord{{DiseaseType: "Dengue", Value: 9, RegionName: "Para\u0301"}}

	result, err := Join(records, testBoundary(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 joined record, got %d", len(result.Records))
	}
	if got := result.Records[0].StateName; got != "Pará" {
		t.Fatalf("expected the feature's own name, got %q", got)
	}
}

func TestJoin_ReportsUnmatchedRegions(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	records := []model.DiseaseRecord{
		{DiseaseType: "Dengue", Value: 1, RegionName: "Sao Paulo"},
		{DiseaseType: "Dengue", Value: 2, RegionName: "Acre"},
	}

	result, err := Join(records, testBoundary(), zap.New(core))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := []model.UnmatchedRegion{{Name: "Sao Paulo", Suggestion: "São Paulo"}}
	if diff := cmp.Diff(want, result.Stats.Unmatched); diff != "" {
		t.Fatalf("unexpected unmatched regions (-want +got):\n%s", diff)
	}
	if logs.FilterField(zap.String("region", "Sao Paulo")).Len() != 1 {
		t.Fatalf("expected a warning for Sao Paulo, got %v", logs.All())
	}
}

func TestJoin_RejectsFeatureWithoutID(t *testing.T) {
	boundary := &geo.Boundary{Features: []geo.Feature{{Name: "Acre"}}}
	records := []model.DiseaseRecord{{DiseaseType: "Dengue", Value: 1, RegionName: "Acre"}}

	_, err := Join(records, boundary, nil)
	if !IsDataFormat(err) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
}

func TestJoin_RejectsNilBoundary(t *testing.T) {
	_, err := Join(nil, nil, nil)
	if !IsDataFormat(err) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
}

func TestJoin_RejectsNegativeValue(t *testing.T) {
	records := []model.DiseaseRecord{{DiseaseType: "Dengue", Value: -1, RegionName: "Acre"}}

	_, err := Join(records, testBoundary(), nil)
	if !IsDataFormat(err) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
}

func TestCandidateNames(t *testing.T) {
	records := []model.DiseaseRecord{
		{RegionName: "Acre"},
		{RegionName: "Norte"},
		{RegionName: ""},
		{RegionName: "Pará"},
		{RegionName: "Acre"},
		{RegionName: "Para\u0301"},
		{RegionName: "Centro-Oeste"},
	}

	want := []string{"Acre", "Pará"}
	if diff := cmp.Diff(want, CandidateNames(records)); diff != "" {
		t.Fatalf("unexpected candidates (-want +got):\n%s", diff)
	}
}

func TestReferenceFeatures_BoundaryOrder(t *testing.T) {
	got, err := ReferenceFeatures([]string{"São Paulo", "Acre"}, testBoundary(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	var ids []string
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"AC", "SP"}, ids); diff != "" {
		t.Fatalf("unexpected features (-want +got):\n%s", diff)
	}
	if got[1].Centroid != nil {
		t.Fatalf("expected no centroid for a feature without geometry, got %+v", got[1].Centroid)
	}
}
