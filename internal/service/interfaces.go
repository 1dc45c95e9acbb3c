package service

import (
	"context"

	"licitaflow/internal/models"
)

const (
	OpIngest = "ingest"
	OpDetail = "fetch detail"
)

// Ingestor submits a document and identifier and returns the created record's
// reference.
type Ingestor interface {
	Ingest(ctx context.Context, in models.SubmissionInput) (models.IngestReceipt, error)
}

// DetailFetcher returns the full record for a reference.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, recordID string) (models.IngestionRecord, error)
}

type Service interface {
	Ingestor
	DetailFetcher
}
