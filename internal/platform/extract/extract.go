// Package extract pulls raw bill line records out of case documents.
// Extraction is best-effort: a document that cannot be parsed is skipped and
// logged, never fatal to the batch.
package extract

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Document is the minimal view of a case document an extractor needs.
type Document struct {
	ID          uuid.UUID
	Name        string
	ContentType string
	Content     []byte
}

// RawBillRecord is a single bill line pulled from a document, before
// normalization. Amount is kept as the raw string so the billing layer can
// decide how to treat malformed values.
type RawBillRecord struct {
	DocumentID    uuid.UUID `json:"document_id,omitempty"`
	ProviderName  string    `json:"provider_name"`
	ServiceType   string    `json:"service_type,omitempty"`
	EncounterType string    `json:"encounter_type,omitempty"`
	ServiceCode   string    `json:"service_code,omitempty"`
	Description   string    `json:"description,omitempty"`
	ServiceDate   time.Time `json:"service_date,omitempty"`
	Amount        string    `json:"amount"`
	PaidAmount    string    `json:"paid_amount,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// Extractor parses one document into bill records.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]RawBillRecord, error)
}

// Config controls batch extraction behavior.
type Config struct {
	// Workers bounds how many documents are processed concurrently.
	Workers int
	// Timeout applies per document.
	Timeout time.Duration
}

// Result reports the outcome of a batch run.
type Result struct {
	Records      []RawBillRecord
	Processed    int
	Failed       int
	FailedDocIDs []uuid.UUID
}

// Runner extracts bill records from document batches using a bounded worker
// pool.
type Runner struct {
	extractor Extractor
	cfg       Config
	logger    zerolog.Logger
}

func NewRunner(extractor Extractor, cfg Config, logger zerolog.Logger) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Runner{extractor: extractor, cfg: cfg, logger: logger}
}

// Run extracts records from all documents. Document order is preserved in the
// combined record list. Failed documents are skipped and tallied.
func (r *Runner) Run(ctx context.Context, docs []Document) Result {
	type docResult struct {
		records []RawBillRecord
		err     error
	}

	results := make([]docResult, len(docs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.cfg.Workers)

	for i, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, d Document) {
			defer wg.Done()
			defer func() { <-sem }()

			docCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()

			records, err := r.extractor.Extract(docCtx, d)
			results[idx] = docResult{records: records, err: err}
		}(i, doc)
	}
	wg.Wait()

	var out Result
	for i, res := range results {
		out.Processed++
		if res.err != nil {
			out.Failed++
			out.FailedDocIDs = append(out.FailedDocIDs, docs[i].ID)
			r.logger.Warn().
				Err(res.err).
				Str("document_id", docs[i].ID.String()).
				Str("document_name", docs[i].Name).
				Msg("document extraction failed, skipping")
			continue
		}
		out.Records = append(out.Records, res.records...)
	}
	return out
}
