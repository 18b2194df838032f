// Package report builds and renders the post-load verification report:
// entity counts, a sample of recent invoices, money aggregates, the
// status breakdown and the busiest vendors.
package report

import (
	"context"
	"fmt"
	"io"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
)

// statusOrder fixes the rendering order of the status breakdown.
var statusOrder = []string{infra.StatusPending, infra.StatusPaid, infra.StatusOverdue}

// Report is a fully materialized verification report.
type Report struct {
	Counts     *infra.EntityCounts
	Samples    []*infra.InvoiceSample
	Totals     *infra.InvoiceTotals
	ByStatus   map[string]int64
	TopVendors []*infra.VendorInvoiceCount
}

// Build runs every aggregation against the store. sampleSize bounds the
// invoice sample and topVendors bounds the vendor ranking.
func Build(ctx context.Context, store infra.ReportStore, sampleSize, topVendors int) (*Report, error) {
	counts, err := store.EntityCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("Build: counting entities: %w", err)
	}

	samples, err := store.SampleInvoices(ctx, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("Build: sampling invoices: %w", err)
	}

	totals, err := store.InvoiceTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("Build: aggregating totals: %w", err)
	}

	byStatus, err := store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("Build: counting by status: %w", err)
	}

	vendors, err := store.TopVendors(ctx, topVendors)
	if err != nil {
		return nil, fmt.Errorf("Build: ranking vendors: %w", err)
	}

	return &Report{
		Counts:     counts,
		Samples:    samples,
		Totals:     totals,
		ByStatus:   byStatus,
		TopVendors: vendors,
	}, nil
}

// Render writes the report in a human-readable layout.
func (r *Report) Render(w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("=== Entity counts ===\n")
	p("  vendors:    %d\n", r.Counts.Vendors)
	p("  customers:  %d\n", r.Counts.Customers)
	p("  invoices:   %d\n", r.Counts.Invoices)
	p("  line items: %d\n", r.Counts.LineItems)
	p("  payments:   %d\n", r.Counts.Payments)

	p("\n=== Sample invoices ===\n")
	if len(r.Samples) == 0 {
		p("  (none)\n")
	}
	for _, s := range r.Samples {
		inv := s.Invoice
		p("  %s  %s -> %s  %.2f %s  due %s\n",
			inv.InvoiceNumber, s.VendorName, s.CustomerName, inv.Total, inv.Status, inv.DueDate)
		for _, item := range s.LineItems {
			p("    - %s  x%g @ %.2f = %.2f\n",
				item.Description, item.Quantity, item.UnitPrice, item.Amount)
		}
	}

	p("\n=== Totals ===\n")
	p("  invoices:  %d\n", r.Totals.Invoices)
	p("  sum total: %.2f (subtotal %.2f, tax %.2f)\n",
		r.Totals.SumTotal, r.Totals.SumSubtotal, r.Totals.SumTax)
	p("  avg total: %.2f\n", r.Totals.AvgTotal)

	p("\n=== Invoices by status ===\n")
	for _, status := range statusOrder {
		p("  %s: %d\n", status, r.ByStatus[status])
	}

	p("\n=== Top vendors ===\n")
	if len(r.TopVendors) == 0 {
		p("  (none)\n")
	}
	for i, v := range r.TopVendors {
		p("  %d. %s (%d invoices)\n", i+1, v.Name, v.Invoices)
	}

	return err
}
