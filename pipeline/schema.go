package pipeline

import "strings"

type Column int

const (
	ColumnDiseaseType Column = iota
	ColumnTerritorialLevel
	ColumnValue
	ColumnYear
	ColumnRegionName
	ColumnDiseaseCode
	columnCount
)

// Field declares one column of the source table by the label SIDRA puts in
// the header row.
type Field struct {
	Column   Column
	Name     string
	Label    string
	Required bool
}

type Schema []Field

// DiseaseSchema is the header contract of SIDRA table 354.
var DiseaseSchema = Schema{
	{Column: ColumnDiseaseType, Name: "disease_type", Label: "Tipo de doença", Required: true},
	{Column: ColumnTerritorialLevel, Name: "territorial_level", Label: "Nível Territorial"},
	{Column: ColumnValue, Name: "value", Label: "Valor", Required: true},
	{Column: ColumnYear, Name: "year", Label: "Ano", Required: true},
	{Column: ColumnRegionName, Name: "region_name", Label: "Brasil, Grande Região e UF", Required: true},
	{Column: ColumnDiseaseCode, Name: "disease_code", Label: "Tipo de doença (Código)"},
}

// Binding maps each declared column to its position in a header row, or -1
// when an optional column is absent.
type Binding struct {
	index [columnCount]int
	width int
}

// Bind validates header against the schema.
func (s Schema) Bind(header []string) (Binding, error) {
	b := Binding{width: len(header)}
	for i := range b.index {
		b.index[i] = -1
	}

	positions := make(map[string]int, len(header))
	for i, label := range header {
		label = strings.TrimSpace(label)
		if label == "" {
			return Binding{}, formatErrorf("payload", "header column %d is empty", i)
		}
		if prev, ok := positions[label]; ok {
			return Binding{}, formatErrorf("payload", "header label %q repeated at columns %d and %d", label, prev, i)
		}
		positions[label] = i
	}

	var missing []string
	for _, field := range s {
		pos, ok := positions[field.Label]
		if !ok {
			if field.Required {
				missing = append(missing, field.Label)
			}
			continue
		}
		b.index[field.Column] = pos
	}
	if len(missing) > 0 {
		return Binding{}, formatErrorf("payload", "header is missing required columns %q", missing)
	}
	return b, nil
}

func (b Binding) Width() int {
	return b.width
}

// Cell returns the row's value for column, or "" when the column is absent.
func (b Binding) Cell(row []string, column Column) string {
	pos := b.index[column]
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}
