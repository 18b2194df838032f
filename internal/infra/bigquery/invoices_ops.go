package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const invoicesTable = "invoices"

// CreateInvoice inserts an invoice row and returns the generated
// invoice_id. The referenced vendor and customer rows must already exist;
// creation order is how referential integrity is kept, the store itself
// does not check it.
func (r *BigQueryInvoiceRepository) CreateInvoice(ctx context.Context, row *InvoiceRow) (string, error) {
	if row.InvoiceID == "" {
		row.InvoiceID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	q := r.client.Query(`
		INSERT INTO ` + r.tableRef(invoicesTable) + ` (
			invoice_id, invoice_number,
			vendor_id, customer_id,
			invoice_date, due_date,
			subtotal, tax, total,
			status, category, description,
			created_ts
		)
		VALUES (
			@invoice_id, @invoice_number,
			@vendor_id, @customer_id,
			@invoice_date, @due_date,
			@subtotal, @tax, @total,
			@status, @category, @description,
			@created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "invoice_id", Value: row.InvoiceID},
		{Name: "invoice_number", Value: row.InvoiceNumber},
		{Name: "vendor_id", Value: row.VendorID},
		{Name: "customer_id", Value: row.CustomerID},
		{Name: "invoice_date", Value: row.InvoiceDate},
		{Name: "due_date", Value: row.DueDate},
		{Name: "subtotal", Value: row.Subtotal},
		{Name: "tax", Value: row.Tax},
		{Name: "total", Value: row.Total},
		{Name: "status", Value: row.Status},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := r.runDML(ctx, q); err != nil {
		return "", fmt.Errorf("CreateInvoice: %w", err)
	}

	return row.InvoiceID, nil
}
