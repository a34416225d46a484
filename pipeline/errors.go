package pipeline

import (
	"errors"
	"fmt"
)

// IngestionError is returned when the source payload could not be fetched.
type IngestionError struct {
	URL string
	Err error
}

func (e *IngestionError) Error() string {
	if e == nil {
		return "ingestion error"
	}
	return fmt.Sprintf("ingestion failed for %s: %v", e.URL, e.Err)
}

func (e *IngestionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DataFormatError is returned when the payload or the boundary document does
// not have the expected shape, or a value cannot be coerced.
type DataFormatError struct {
	Source string
	Detail string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e == nil {
		return "data format error"
	}
	msg := fmt.Sprintf("data format error in %s: %s", e.Source, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsIngestion reports whether err is or wraps an IngestionError.
func IsIngestion(err error) bool {
	var target *IngestionError
	return errors.As(err, &target)
}

// IsDataFormat reports whether err is or wraps a DataFormatError.
func IsDataFormat(err error) bool {
	var target *DataFormatError
	return errors.As(err, &target)
}

func formatErrorf(source string, format string, args ...any) *DataFormatError {
	return &DataFormatError{Source: source, Detail: fmt.Sprintf(format, args...)}
}
