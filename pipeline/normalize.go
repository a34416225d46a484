package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"saneamento-dashboard/model"
)

const (
	// RespiratoryLabel is SIDRA's label for respiratory-system disease; the
	// dashboard shows it as RespiratoryShort with a footnote.
	RespiratoryLabel = "Doença do aparelho respiratório"
	RespiratoryShort = "DAR*"
	RespiratoryNote  = "* DAR - Doenças do Aparelho Respiratório"

	valuePlaceholder = "-"
)

var aggregateLabels = map[string]bool{
	"Total":                     true,
	"Total geral de municípios": true,
}

// IsAggregate reports whether a disease_type is a rollup row rather than a
// leaf observation.
func IsAggregate(diseaseType string) bool {
	return aggregateLabels[diseaseType]
}

// Normalize promotes rows[0] to the header, validates it against
// DiseaseSchema and returns the cleaned table: respiratory label shortened,
// aggregate rows removed, stable-sorted by disease_type, projected to the
// six declared columns, value coerced to an integer.
func Normalize(rows []model.RawRecord) ([]model.DiseaseRecord, error) {
	if len(rows) == 0 {
		return nil, formatErrorf("payload", "no header row")
	}
	binding, err := DiseaseSchema.Bind(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]model.DiseaseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != binding.Width() {
			return nil, formatErrorf("payload", "row %d has %d columns, header has %d", i+1, len(row), binding.Width())
		}

		diseaseType := binding.Cell(row, ColumnDiseaseType)
		if diseaseType == RespiratoryLabel {
			diseaseType = RespiratoryShort
		}
		if IsAggregate(diseaseType) {
			continue
		}

		value, err := CoerceValue(binding.Cell(row, ColumnValue))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		records = append(records, model.DiseaseRecord{
			DiseaseType:      diseaseType,
			TerritorialLevel: binding.Cell(row, ColumnTerritorialLevel),
			Value:            value,
			Year:             binding.Cell(row, ColumnYear),
			RegionName:       binding.Cell(row, ColumnRegionName),
			DiseaseCode:      binding.Cell(row, ColumnDiseaseCode),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DiseaseType < records[j].DiseaseType
	})
	return records, nil
}

// CoerceValue turns a value cell into a case count. The placeholder "-"
// means zero; otherwise the cell must be an integer literal, optionally
// prefixed with "+". Negative literals are rejected because a case count is
// never below zero. Integers pass through unchanged, so applying it twice is
// harmless.
func CoerceValue(v any) (int, error) {
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, formatErrorf("value", "negative count %d", x)
		}
		return x, nil
	case int64:
		if x < 0 || x > math.MaxInt {
			return 0, formatErrorf("value", "count %d out of range", x)
		}
		return int(x), nil
	case json.Number:
		return CoerceValue(x.String())
	case string:
		return coerceValueText(x)
	default:
		return 0, formatErrorf("value", "unsupported value type %T", v)
	}
}

func coerceValueText(text string) (int, error) {
	s := strings.TrimSpace(text)
	if s == valuePlaceholder {
		return 0, nil
	}
	digits := strings.TrimPrefix(s, "+")
	if digits == "" {
		return 0, formatErrorf("value", "empty value")
	}
	if strings.HasPrefix(digits, "-") {
		return 0, formatErrorf("value", "negative count %q", text)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, formatErrorf("value", "%q is not an integer", text)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &DataFormatError{Source: "value", Detail: fmt.Sprintf("%q is out of range", text), Err: err}
	}
	return n, nil
}
