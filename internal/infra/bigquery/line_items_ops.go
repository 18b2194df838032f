package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const lineItemsTable = "line_items"

// CreateLineItem inserts a line item row for an existing invoice.
func (r *BigQueryInvoiceRepository) CreateLineItem(ctx context.Context, row *LineItemRow) error {
	if row.LineItemID == "" {
		row.LineItemID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	q := r.client.Query(`
		INSERT INTO ` + r.tableRef(lineItemsTable) + ` (
			line_item_id, invoice_id,
			description, quantity, unit_price, amount,
			category, created_ts
		)
		VALUES (
			@line_item_id, @invoice_id,
			@description, @quantity, @unit_price, @amount,
			@category, @created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "line_item_id", Value: row.LineItemID},
		{Name: "invoice_id", Value: row.InvoiceID},
		{Name: "description", Value: row.Description},
		{Name: "quantity", Value: row.Quantity},
		{Name: "unit_price", Value: row.UnitPrice},
		{Name: "amount", Value: row.Amount},
		{Name: "category", Value: row.Category},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := r.runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateLineItem: %w", err)
	}

	return nil
}
