package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"saneamento-dashboard/geo"
	"saneamento-dashboard/model"
)

// Fetcher retrieves the raw SIDRA response body.
type Fetcher interface {
	FetchTable(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	SourceURL    string
	BoundaryPath string
	Logger       *zap.Logger
}

// Ingest fetches the payload at url and normalizes it.
func Ingest(ctx context.Context, fetcher Fetcher, url string, logger *zap.Logger) ([]model.DiseaseRecord, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	body, err := fetcher.FetchTable(ctx, url)
	if err != nil {
		return nil, &IngestionError{URL: url, Err: err}
	}
	logger.Debug("payload fetched", zap.String("url", url), zap.Int("bytes", len(body)))

	rows, err := DecodePayload(body)
	if err != nil {
		return nil, err
	}
	records, err := Normalize(rows)
	if err != nil {
		return nil, err
	}
	logger.Info("payload normalized",
		zap.Int("raw_rows", max(0, len(rows)-1)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// LoadBoundary reads the boundary document, reporting any failure as a
// DataFormatError.
func LoadBoundary(path string) (*geo.Boundary, error) {
	b, err := geo.LoadBoundary(path)
	if err != nil {
		detail := "cannot use boundary document"
		if errors.Is(err, geo.ErrInvalidBoundary) {
			detail = "invalid boundary document " + path
		}
		return nil, &DataFormatError{Source: "boundary", Detail: detail, Err: err}
	}
	return b, nil
}

// Run executes the whole startup pipeline once. Any error is fatal to the
// caller; nothing is retried.
func Run(ctx context.Context, fetcher Fetcher, opts Options) (*model.Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := Ingest(ctx, fetcher, opts.SourceURL, logger)
	if err != nil {
		return nil, err
	}
	boundary, err := LoadBoundary(opts.BoundaryPath)
	if err != nil {
		return nil, err
	}
	result, err := Join(records, boundary, logger)
	if err != nil {
		return nil, err
	}

	return &model.Dataset{
		Diseases: records,
		Joined:   result.Records,
		Features: result.Features,
		Stats:    result.Stats,
	}, nil
}
