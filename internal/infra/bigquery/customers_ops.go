package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const customersTable = "customers"

// CreateCustomer inserts a customer row and returns the generated customer_id.
func (r *BigQueryInvoiceRepository) CreateCustomer(ctx context.Context, row *CustomerRow) (string, error) {
	if row.CustomerID == "" {
		row.CustomerID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	q := r.client.Query(`
		INSERT INTO ` + r.tableRef(customersTable) + ` (
			customer_id, name,
			email, phone,
			address, city, country, postal_code,
			created_ts
		)
		VALUES (
			@customer_id, @name,
			@email, @phone,
			@address, @city, @country, @postal_code,
			@created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "customer_id", Value: row.CustomerID},
		{Name: "name", Value: row.Name},
		{Name: "email", Value: row.Email},
		{Name: "phone", Value: row.Phone},
		{Name: "address", Value: row.Address},
		{Name: "city", Value: row.City},
		{Name: "country", Value: row.Country},
		{Name: "postal_code", Value: row.PostalCode},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := r.runDML(ctx, q); err != nil {
		return "", fmt.Errorf("CreateCustomer: %w", err)
	}

	return row.CustomerID, nil
}
