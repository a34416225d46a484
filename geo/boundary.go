package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidBoundary is wrapped by every decoding failure of a boundary
// document.
var ErrInvalidBoundary = errors.New("invalid boundary document")

// Boundary is a decoded GeoJSON FeatureCollection. Geometry is kept raw.
type Boundary struct {
	Features []Feature
}

type Feature struct {
	ID       string
	Name     string
	Geometry json.RawMessage
}

type rawFeature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id"`
	Properties struct {
		Name *string `json:"name"`
	} `json:"properties"`
	Geometry json.RawMessage `json:"geometry"`
}

type rawCollection struct {
	Type     string        `json:"type"`
	Features *[]rawFeature `json:"features"`
}

// LoadBoundary reads and decodes the boundary document at path.
func LoadBoundary(path string) (*Boundary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoundary, err)
	}
	defer f.Close()
	return ParseBoundary(f)
}

// ParseBoundary decodes a FeatureCollection. Every feature must carry a
// properties.name; the id may be a string or a number and may be missing
// for features that never take part in a join.
func ParseBoundary(r io.Reader) (*Boundary, error) {
	var doc rawCollection
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidBoundary, err)
	}
	if doc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type is %q, want FeatureCollection", ErrInvalidBoundary, doc.Type)
	}
	if doc.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrInvalidBoundary)
	}

	b := &Boundary{Features: make([]Feature, 0, len(*doc.Features))}
	for i, raw := range *doc.Features {
		if raw.Properties.Name == nil {
			return nil, fmt.Errorf("%w: feature %d has no properties.name", ErrInvalidBoundary, i)
		}
		id, err := featureID(raw.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %w", ErrInvalidBoundary, i, err)
		}
		b.Features = append(b.Features, Feature{
			ID:       id,
			Name:     *raw.Properties.Name,
			Geometry: raw.Geometry,
		})
	}
	return b, nil
}

func featureID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("id must be a string or a number, got %s", string(raw))
}

// MatchKey is the form names are compared in: trimmed and NFC-normalized so
// precomposed and combining accents compare equal.
func MatchKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Nearest returns the feature name closest to name by edit distance over
// match keys. The second result is false for an empty boundary.
func (b *Boundary) Nearest(name string) (string, bool) {
	key := MatchKey(name)
	best := ""
	bestDistance := -1
	for _, f := range b.Features {
		d := levenshtein.ComputeDistance(key, MatchKey(f.Name))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = f.Name, d
		}
	}
	return best, bestDistance >= 0
}
