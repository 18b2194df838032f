package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
	"github.com/dvloznov/invoice-analytics/internal/logger"
)

// Loader drives one full ingestion run: the destructive reset, then a
// strictly sequential pass over the raw records. Failures while
// normalizing or persisting one record are contained and counted as
// skipped; only a failed reset aborts the run.
type Loader struct {
	store infra.InvoiceStore
	now   func() time.Time
}

// NewLoader creates a loader writing through the given store.
func NewLoader(store infra.InvoiceStore) *Loader {
	return &Loader{
		store: store,
		now:   time.Now,
	}
}

// Run clears the five entity tables and then ingests the records in input
// order. The returned stats cover every record in the batch; they are
// meaningless if the reset fails.
func (l *Loader) Run(ctx context.Context, records []map[string]any) (*RunStats, error) {
	log := logger.FromContext(ctx)

	if err := l.store.ResetAll(ctx); err != nil {
		return nil, fmt.Errorf("Run: resetting store: %w", err)
	}
	log.Info().Msg("Cleared existing data")

	now := l.now()
	resolver := NewResolver(l.store, now)
	normalizer := NewNormalizer(resolver, NewNumberAllocator(), now)

	stats := &RunStats{Total: len(records)}
	for _, record := range records {
		graph, err := normalizer.Normalize(ctx, record)
		if err != nil {
			var skip *SkipError
			if errors.As(err, &skip) {
				log.Warn().
					Str("record_id", recordID(record)).
					Str("reason", skip.Reason).
					Msg("Skipping record")
			} else {
				log.Error().
					Err(err).
					Str("record_id", recordID(record)).
					Msg("Failed to process record")
			}
			stats.Skipped++
			continue
		}

		if _, err := l.store.CreateInvoice(ctx, graph.Invoice); err != nil {
			log.Error().
				Err(err).
				Str("record_id", recordID(record)).
				Msg("Failed to create invoice")
			stats.Skipped++
			continue
		}

		// Children are best-effort: a failed line item or payment create
		// does not undo the invoice, and the record still counts as
		// processed.
		for _, item := range graph.LineItems {
			if err := l.store.CreateLineItem(ctx, item); err != nil {
				log.Warn().
					Err(err).
					Str("invoice_number", graph.Invoice.InvoiceNumber).
					Msg("Failed to create line item")
			}
		}
		if graph.Payment != nil {
			if err := l.store.CreatePayment(ctx, graph.Payment); err != nil {
				log.Warn().
					Err(err).
					Str("invoice_number", graph.Invoice.InvoiceNumber).
					Msg("Failed to create payment")
			}
		}

		stats.Processed++
		log.Info().
			Str("invoice_number", graph.Invoice.InvoiceNumber).
			Msg("Processed invoice")
	}

	stats.VendorsCreated = resolver.VendorCount()
	stats.CustomersCreated = resolver.CustomerCount()
	return stats, nil
}
