package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"saneamento-dashboard/model"
)

type rowShape int

const (
	shapeUnknown rowShape = iota
	shapeArray
	shapeObject
)

// DecodePayload reads a SIDRA response into positional rows. The response is
// a JSON array whose elements are either arrays of scalars or objects; for
// objects the header object's key order fixes the column order and every
// later row is laid out by key. Row 0 stays in the result as the header.
func DecodePayload(data []byte) ([]model.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &DataFormatError{Source: "payload", Detail: "not valid JSON", Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, formatErrorf("payload", "top level is not an array")
	}

	var (
		rows  []model.RawRecord
		shape rowShape
		keys  []string
	)
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, &DataFormatError{Source: "payload", Detail: fmt.Sprintf("row %d", i), Err: err}
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			return nil, formatErrorf("payload", "row %d is a scalar, not a row", i)
		}

		var (
			row       model.RawRecord
			nonString int
		)
		switch delim {
		case '[':
			if shape == shapeObject {
				return nil, formatErrorf("payload", "row %d is an array but earlier rows are objects", i)
			}
			shape = shapeArray
			row, nonString, err = decodeArrayRow(dec, i)
		case '{':
			if shape == shapeArray {
				return nil, formatErrorf("payload", "row %d is an object but earlier rows are arrays", i)
			}
			shape = shapeObject
			var rowKeys []string
			var values map[string]string
			rowKeys, values, nonString, err = decodeObjectRow(dec, i)
			if err == nil {
				if keys == nil {
					keys = rowKeys
				}
				row, err = layoutObjectRow(keys, values, i)
			}
		default:
			err = formatErrorf("payload", "row %d starts with %q", i, delim)
		}
		if err != nil {
			return nil, err
		}
		if i == 0 && nonString >= 0 {
			return nil, formatErrorf("payload", "header column %d is not a string", nonString)
		}
		rows = append(rows, row)
	}

	if _, err := dec.Token(); err != nil {
		return nil, &DataFormatError{Source: "payload", Detail: "unterminated array", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, formatErrorf("payload", "trailing data after the top-level array")
	}
	return rows, nil
}

// decodeArrayRow also returns the position of the first cell that was not a
// JSON string, or -1.
func decodeArrayRow(dec *json.Decoder, i int) (model.RawRecord, int, error) {
	var row model.RawRecord
	nonString := -1
	for dec.More() {
		cell, isString, err := decodeCell(dec, i)
		if err != nil {
			return nil, -1, err
		}
		if !isString && nonString < 0 {
			nonString = len(row)
		}
		row = append(row, cell)
	}
	if _, err := dec.Token(); err != nil {
		return nil, -1, &DataFormatError{Source: "payload", Detail: fmt.Sprintf("row %d", i), Err: err}
	}
	return row, nonString, nil
}

func decodeObjectRow(dec *json.Decoder, i int) ([]string, map[string]string, int, error) {
	var keys []string
	values := make(map[string]string)
	nonString := -1
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, -1, &DataFormatError{Source: "payload", Detail: fmt.Sprintf("row %d", i), Err: err}
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, -1, formatErrorf("payload", "row %d has a non-string key", i)
		}
		if _, dup := values[key]; dup {
			return nil, nil, -1, formatErrorf("payload", "row %d repeats key %q", i, key)
		}
		cell, isString, err := decodeCell(dec, i)
		if err != nil {
			return nil, nil, -1, err
		}
		if !isString && nonString < 0 {
			nonString = len(keys)
		}
		keys = append(keys, key)
		values[key] = cell
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, -1, &DataFormatError{Source: "payload", Detail: fmt.Sprintf("row %d", i), Err: err}
	}
	return keys, values, nonString, nil
}

func layoutObjectRow(keys []string, values map[string]string, i int) (model.RawRecord, error) {
	if len(values) != len(keys) {
		return nil, formatErrorf("payload", "row %d has %d columns, header has %d", i, len(values), len(keys))
	}
	row := make(model.RawRecord, len(keys))
	for j, key := range keys {
		cell, ok := values[key]
		if !ok {
			return nil, formatErrorf("payload", "row %d has no value for column %q", i, key)
		}
		row[j] = cell
	}
	return row, nil
}

// decodeCell renders a scalar cell as text and reports whether it was a
// JSON string.
func decodeCell(dec *json.Decoder, i int) (string, bool, error) {
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false, &DataFormatError{Source: "payload", Detail: fmt.Sprintf("row %d", i), Err: err}
	}
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case json.Number:
		return x.String(), false, nil
	case bool:
		return strconv.FormatBool(x), false, nil
	default:
		return "", false, formatErrorf("payload", "row %d has a nested value; the payload is not tabular", i)
	}
}
