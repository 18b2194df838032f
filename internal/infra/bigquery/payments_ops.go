package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const paymentsTable = "payments"

// CreatePayment inserts a payment row for an existing invoice.
func (r *BigQueryInvoiceRepository) CreatePayment(ctx context.Context, row *PaymentRow) error {
	if row.PaymentID == "" {
		row.PaymentID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	q := r.client.Query(`
		INSERT INTO ` + r.tableRef(paymentsTable) + ` (
			payment_id, invoice_id,
			payment_date, amount, payment_method, reference,
			notes, created_ts
		)
		VALUES (
			@payment_id, @invoice_id,
			@payment_date, @amount, @payment_method, @reference,
			@notes, @created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "payment_id", Value: row.PaymentID},
		{Name: "invoice_id", Value: row.InvoiceID},
		{Name: "payment_date", Value: row.PaymentDate},
		{Name: "amount", Value: row.Amount},
		{Name: "payment_method", Value: row.PaymentMethod},
		{Name: "reference", Value: row.Reference},
		{Name: "notes", Value: row.Notes},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := r.runDML(ctx, q); err != nil {
		return fmt.Errorf("CreatePayment: %w", err)
	}

	return nil
}
