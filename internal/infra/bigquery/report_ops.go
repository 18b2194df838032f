package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// EntityCounts returns the row count of each entity table.
func (r *BigQueryInvoiceRepository) EntityCounts(ctx context.Context) (*EntityCounts, error) {
	counts := &EntityCounts{}
	for _, target := range []struct {
		table string
		dest  *int64
	}{
		{vendorsTable, &counts.Vendors},
		{customersTable, &counts.Customers},
		{invoicesTable, &counts.Invoices},
		{lineItemsTable, &counts.LineItems},
		{paymentsTable, &counts.Payments},
	} {
		n, err := r.countTable(ctx, target.table)
		if err != nil {
			return nil, fmt.Errorf("EntityCounts: counting %s: %w", target.table, err)
		}
		*target.dest = n
	}
	return counts, nil
}

func (r *BigQueryInvoiceRepository) countTable(ctx context.Context, table string) (int64, error) {
	q := r.client.Query(`SELECT COUNT(*) AS n FROM ` + r.tableRef(table))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading query: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("iterating: %w", err)
	}

	return row.N, nil
}

// sampleInvoiceRow is the flat scan target for the sample query; the
// invoice columns are reassembled into an InvoiceRow afterwards.
type sampleInvoiceRow struct {
	InvoiceID     string              `bigquery:"invoice_id"`
	InvoiceNumber string              `bigquery:"invoice_number"`
	VendorID      string              `bigquery:"vendor_id"`
	CustomerID    string              `bigquery:"customer_id"`
	InvoiceDate   civil.Date          `bigquery:"invoice_date"`
	DueDate       civil.Date          `bigquery:"due_date"`
	Subtotal      float64             `bigquery:"subtotal"`
	Tax           float64             `bigquery:"tax"`
	Total         float64             `bigquery:"total"`
	Status        string              `bigquery:"status"`
	Category      string              `bigquery:"category"`
	Description   bigquery.NullString `bigquery:"description"`
	VendorName    string              `bigquery:"vendor_name"`
	CustomerName  string              `bigquery:"customer_name"`
}

// SampleInvoices returns up to limit most recently created invoices with
// their vendor, customer and line items expanded.
func (r *BigQueryInvoiceRepository) SampleInvoices(ctx context.Context, limit int) ([]*InvoiceSample, error) {
	q := r.client.Query(`
		SELECT
			i.invoice_id,
			i.invoice_number,
			i.vendor_id,
			i.customer_id,
			i.invoice_date,
			i.due_date,
			i.subtotal,
			i.tax,
			i.total,
			i.status,
			i.category,
			i.description,
			v.name AS vendor_name,
			c.name AS customer_name
		FROM ` + r.tableRef(invoicesTable) + ` i
		INNER JOIN ` + r.tableRef(vendorsTable) + ` v ON i.vendor_id = v.vendor_id
		INNER JOIN ` + r.tableRef(customersTable) + ` c ON i.customer_id = c.customer_id
		ORDER BY i.created_ts DESC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SampleInvoices: reading query: %w", err)
	}

	var samples []*InvoiceSample
	var invoiceIDs []string
	for {
		var row sampleInvoiceRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SampleInvoices: iterating: %w", err)
		}

		samples = append(samples, &InvoiceSample{
			Invoice: &InvoiceRow{
				InvoiceID:     row.InvoiceID,
				InvoiceNumber: row.InvoiceNumber,
				VendorID:      row.VendorID,
				CustomerID:    row.CustomerID,
				InvoiceDate:   row.InvoiceDate,
				DueDate:       row.DueDate,
				Subtotal:      row.Subtotal,
				Tax:           row.Tax,
				Total:         row.Total,
				Status:        row.Status,
				Category:      row.Category,
				Description:   row.Description,
			},
			VendorName:   row.VendorName,
			CustomerName: row.CustomerName,
		})
		invoiceIDs = append(invoiceIDs, row.InvoiceID)
	}

	if len(samples) == 0 {
		return nil, nil
	}

	items, err := r.lineItemsForInvoices(ctx, invoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("SampleInvoices: %w", err)
	}
	for _, sample := range samples {
		sample.LineItems = items[sample.Invoice.InvoiceID]
	}

	return samples, nil
}

func (r *BigQueryInvoiceRepository) lineItemsForInvoices(ctx context.Context, invoiceIDs []string) (map[string][]*LineItemRow, error) {
	q := r.client.Query(`
		SELECT
			line_item_id,
			invoice_id,
			description,
			quantity,
			unit_price,
			amount,
			category,
			created_ts
		FROM ` + r.tableRef(lineItemsTable) + `
		WHERE invoice_id IN UNNEST(@invoice_ids)
		ORDER BY created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "invoice_ids", Value: invoiceIDs},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("lineItemsForInvoices: reading query: %w", err)
	}

	items := make(map[string][]*LineItemRow)
	for {
		var row LineItemRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lineItemsForInvoices: iterating: %w", err)
		}
		items[row.InvoiceID] = append(items[row.InvoiceID], &row)
	}

	return items, nil
}

// InvoiceTotals returns sum and average aggregates across all invoices.
// IFNULL keeps the aggregates at zero on an empty store instead of NULL.
func (r *BigQueryInvoiceRepository) InvoiceTotals(ctx context.Context) (*InvoiceTotals, error) {
	q := r.client.Query(`
		SELECT
			COUNT(*) AS invoices,
			IFNULL(SUM(total), 0) AS sum_total,
			IFNULL(SUM(subtotal), 0) AS sum_subtotal,
			IFNULL(SUM(tax), 0) AS sum_tax,
			IFNULL(AVG(total), 0) AS avg_total
		FROM ` + r.tableRef(invoicesTable) + `
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("InvoiceTotals: reading query: %w", err)
	}

	var row struct {
		Invoices    int64   `bigquery:"invoices"`
		SumTotal    float64 `bigquery:"sum_total"`
		SumSubtotal float64 `bigquery:"sum_subtotal"`
		SumTax      float64 `bigquery:"sum_tax"`
		AvgTotal    float64 `bigquery:"avg_total"`
	}
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return &InvoiceTotals{}, nil
		}
		return nil, fmt.Errorf("InvoiceTotals: iterating: %w", err)
	}

	return &InvoiceTotals{
		Invoices:    row.Invoices,
		SumTotal:    row.SumTotal,
		SumSubtotal: row.SumSubtotal,
		SumTax:      row.SumTax,
		AvgTotal:    row.AvgTotal,
	}, nil
}

// CountByStatus returns the invoice count grouped by status.
func (r *BigQueryInvoiceRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	q := r.client.Query(`
		SELECT status, COUNT(*) AS n
		FROM ` + r.tableRef(invoicesTable) + `
		GROUP BY status
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("CountByStatus: reading query: %w", err)
	}

	counts := make(map[string]int64)
	for {
		var row struct {
			Status string `bigquery:"status"`
			N      int64  `bigquery:"n"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CountByStatus: iterating: %w", err)
		}
		counts[row.Status] = row.N
	}

	return counts, nil
}

// TopVendors returns up to limit vendors ordered by invoice count, highest
// first. Vendors without invoices still appear, with a zero count.
func (r *BigQueryInvoiceRepository) TopVendors(ctx context.Context, limit int) ([]*VendorInvoiceCount, error) {
	q := r.client.Query(`
		SELECT
			v.name AS name,
			COUNT(i.invoice_id) AS n
		FROM ` + r.tableRef(vendorsTable) + ` v
		LEFT JOIN ` + r.tableRef(invoicesTable) + ` i ON i.vendor_id = v.vendor_id
		GROUP BY v.name
		ORDER BY n DESC, name
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("TopVendors: reading query: %w", err)
	}

	var vendors []*VendorInvoiceCount
	for {
		var row struct {
			Name string `bigquery:"name"`
			N    int64  `bigquery:"n"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("TopVendors: iterating: %w", err)
		}
		vendors = append(vendors, &VendorInvoiceCount{Name: row.Name, Invoices: row.N})
	}

	return vendors, nil
}
