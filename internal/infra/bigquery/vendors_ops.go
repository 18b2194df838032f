package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const vendorsTable = "vendors"

// CreateVendor inserts a vendor row and returns the generated vendor_id.
func (r *BigQueryInvoiceRepository) CreateVendor(ctx context.Context, row *VendorRow) (string, error) {
	if row.VendorID == "" {
		row.VendorID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	q := r.client.Query(`
		INSERT INTO ` + r.tableRef(vendorsTable) + ` (
			vendor_id, name,
			email, phone,
			address, city, country, postal_code,
			tax_id, created_ts
		)
		VALUES (
			@vendor_id, @name,
			@email, @phone,
			@address, @city, @country, @postal_code,
			@tax_id, @created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "vendor_id", Value: row.VendorID},
		{Name: "name", Value: row.Name},
		{Name: "email", Value: row.Email},
		{Name: "phone", Value: row.Phone},
		{Name: "address", Value: row.Address},
		{Name: "city", Value: row.City},
		{Name: "country", Value: row.Country},
		{Name: "postal_code", Value: row.PostalCode},
		{Name: "tax_id", Value: row.TaxID},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := r.runDML(ctx, q); err != nil {
		return "", fmt.Errorf("CreateVendor: %w", err)
	}

	return row.VendorID, nil
}
