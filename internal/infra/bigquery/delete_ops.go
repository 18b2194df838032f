package bigquery

import (
	"context"
	"fmt"
)

// resetOrder lists the entity tables child-before-parent so that invoice
// references never dangle while the reset is in flight.
var resetOrder = []string{
	paymentsTable,
	lineItemsTable,
	invoicesTable,
	vendorsTable,
	customersTable,
}

// ResetAll deletes every row from all five entity tables. Deleting from an
// already empty table is a no-op, so a second reset in a row succeeds.
func (r *BigQueryInvoiceRepository) ResetAll(ctx context.Context) error {
	for _, table := range resetOrder {
		if err := r.deleteAllRows(ctx, table); err != nil {
			return fmt.Errorf("ResetAll: clearing %s: %w", table, err)
		}
	}
	return nil
}

func (r *BigQueryInvoiceRepository) deleteAllRows(ctx context.Context, table string) error {
	q := r.client.Query(`DELETE FROM ` + r.tableRef(table) + ` WHERE TRUE`)
	return r.runDML(ctx, q)
}
