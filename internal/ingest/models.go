package ingest

import (
	"fmt"

	bigquerylib "cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
)

// InvoiceGraph is the fully-formed entity graph for one source record:
// one invoice plus its line items and optional payment, referencing
// vendor and customer rows that were already created through the
// identity resolver.
type InvoiceGraph struct {
	Invoice   *infra.InvoiceRow
	LineItems []*infra.LineItemRow
	Payment   *infra.PaymentRow
}

// SkipError marks a record that cannot be normalized. The loader counts
// it as skipped and moves on; it never aborts the run.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return e.Reason
}

// RunStats summarizes one full ingestion run.
type RunStats struct {
	VendorsCreated   int
	CustomersCreated int
	Processed        int
	Skipped          int
	Total            int
}

// Log writes the run summary to the given logger.
func (s *RunStats) Log(log zerolog.Logger) {
	log.Info().
		Int("vendors", s.VendorsCreated).
		Int("customers", s.CustomersCreated).
		Int("processed", s.Processed).
		Int("skipped", s.Skipped).
		Int("total", s.Total).
		Msg("Ingestion run complete")
}

// recordID returns the record's own identifier, used for log lines and as
// the invoice-number fallback. Unlike leaf fields it is not enveloped.
func recordID(record map[string]any) string {
	v, ok := record["_id"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// nullString wraps a string for a nullable column; an empty string maps
// to NULL, matching the "absent field" convention of the source format.
func nullString(s string) bigquerylib.NullString {
	return bigquerylib.NullString{StringVal: s, Valid: s != ""}
}
