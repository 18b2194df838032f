package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Invoice status values. PAID is part of the model but is never produced
// by the ingestion pipeline: the extraction payload carries no
// payment-completion signal.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusOverdue = "OVERDUE"
)

// MethodBankTransfer is the only payment method the ingestion pipeline
// emits; payment rows are derived from extracted bank account details.
const MethodBankTransfer = "BANK_TRANSFER"

// InvoiceStore provides the create and reset operations the ingestion
// pipeline needs against the five entity tables.
type InvoiceStore interface {
	// CreateVendor inserts a vendor row and returns its vendor_id.
	CreateVendor(ctx context.Context, row *VendorRow) (string, error)

	// CreateCustomer inserts a customer row and returns its customer_id.
	CreateCustomer(ctx context.Context, row *CustomerRow) (string, error)

	// CreateInvoice inserts an invoice row and returns its invoice_id.
	// The row must reference vendor and customer rows that already exist.
	CreateInvoice(ctx context.Context, row *InvoiceRow) (string, error)

	// CreateLineItem inserts a line item row for an existing invoice.
	CreateLineItem(ctx context.Context, row *LineItemRow) error

	// CreatePayment inserts a payment row for an existing invoice.
	CreatePayment(ctx context.Context, row *PaymentRow) error

	// ResetAll deletes every row from all five entity tables,
	// child tables before parent tables. Safe to call on empty tables.
	ResetAll(ctx context.Context) error
}

// ReportStore provides the read-only aggregations used for post-load
// verification. All operations tolerate an empty store.
type ReportStore interface {
	// EntityCounts returns the row count of each entity table.
	EntityCounts(ctx context.Context) (*EntityCounts, error)

	// SampleInvoices returns up to limit most recently created invoices
	// with their vendor, customer and line items expanded.
	SampleInvoices(ctx context.Context, limit int) ([]*InvoiceSample, error)

	// InvoiceTotals returns sum and average aggregates across all invoices.
	InvoiceTotals(ctx context.Context) (*InvoiceTotals, error)

	// CountByStatus returns the invoice count grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// TopVendors returns up to limit vendors ordered by invoice count,
	// highest first.
	TopVendors(ctx context.Context, limit int) ([]*VendorInvoiceCount, error)
}

// VendorRow represents a vendor record in BigQuery.
type VendorRow struct {
	VendorID string `bigquery:"vendor_id"` // REQUIRED
	Name     string `bigquery:"name"`      // REQUIRED

	Email      bigquery.NullString `bigquery:"email"`       // NULLABLE
	Phone      bigquery.NullString `bigquery:"phone"`       // NULLABLE
	Address    bigquery.NullString `bigquery:"address"`     // NULLABLE
	City       bigquery.NullString `bigquery:"city"`        // NULLABLE
	Country    bigquery.NullString `bigquery:"country"`     // NULLABLE
	PostalCode bigquery.NullString `bigquery:"postal_code"` // NULLABLE
	TaxID      bigquery.NullString `bigquery:"tax_id"`      // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// CustomerRow represents a customer record in BigQuery.
// Same shape as VendorRow minus the tax identifier.
type CustomerRow struct {
	CustomerID string `bigquery:"customer_id"` // REQUIRED
	Name       string `bigquery:"name"`        // REQUIRED

	Email      bigquery.NullString `bigquery:"email"`       // NULLABLE
	Phone      bigquery.NullString `bigquery:"phone"`       // NULLABLE
	Address    bigquery.NullString `bigquery:"address"`     // NULLABLE
	City       bigquery.NullString `bigquery:"city"`        // NULLABLE
	Country    bigquery.NullString `bigquery:"country"`     // NULLABLE
	PostalCode bigquery.NullString `bigquery:"postal_code"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// InvoiceRow represents an invoice record in BigQuery.
type InvoiceRow struct {
	InvoiceID     string `bigquery:"invoice_id"`     // REQUIRED
	InvoiceNumber string `bigquery:"invoice_number"` // REQUIRED, unique per run

	VendorID   string `bigquery:"vendor_id"`   // REQUIRED
	CustomerID string `bigquery:"customer_id"` // REQUIRED

	InvoiceDate civil.Date `bigquery:"invoice_date"` // REQUIRED
	DueDate     civil.Date `bigquery:"due_date"`     // REQUIRED

	Subtotal float64 `bigquery:"subtotal"` // REQUIRED, non-negative
	Tax      float64 `bigquery:"tax"`      // REQUIRED, non-negative
	Total    float64 `bigquery:"total"`    // REQUIRED, non-negative

	Status   string `bigquery:"status"`   // REQUIRED: PENDING | PAID | OVERDUE
	Category string `bigquery:"category"` // REQUIRED, defaults to "General"

	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// LineItemRow represents a line item record in BigQuery. A line item
// belongs to exactly one invoice.
type LineItemRow struct {
	LineItemID string `bigquery:"line_item_id"` // REQUIRED
	InvoiceID  string `bigquery:"invoice_id"`   // REQUIRED

	Description string  `bigquery:"description"` // REQUIRED, defaults to "Item"
	Quantity    float64 `bigquery:"quantity"`    // REQUIRED, defaults to 1
	UnitPrice   float64 `bigquery:"unit_price"`  // REQUIRED, non-negative
	Amount      float64 `bigquery:"amount"`      // REQUIRED, non-negative

	Category bigquery.NullString `bigquery:"category"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// PaymentRow represents a payment record in BigQuery. At most one payment
// per invoice is produced by the ingestion pipeline.
type PaymentRow struct {
	PaymentID string `bigquery:"payment_id"` // REQUIRED
	InvoiceID string `bigquery:"invoice_id"` // REQUIRED

	PaymentDate   civil.Date `bigquery:"payment_date"`   // REQUIRED
	Amount        float64    `bigquery:"amount"`         // REQUIRED, non-negative
	PaymentMethod string     `bigquery:"payment_method"` // REQUIRED
	Reference     string     `bigquery:"reference"`      // REQUIRED, bank account identifier

	Notes bigquery.NullString `bigquery:"notes"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// EntityCounts holds the row count of each entity table.
type EntityCounts struct {
	Vendors   int64
	Customers int64
	Invoices  int64
	LineItems int64
	Payments  int64
}

// InvoiceTotals holds sum and average aggregates across all invoices.
// All fields are zero when the store is empty.
type InvoiceTotals struct {
	Invoices    int64
	SumTotal    float64
	SumSubtotal float64
	SumTax      float64
	AvgTotal    float64
}

// InvoiceSample is one invoice with its vendor, customer and line items
// expanded for verification output.
type InvoiceSample struct {
	Invoice      *InvoiceRow
	VendorName   string
	CustomerName string
	LineItems    []*LineItemRow
}

// VendorInvoiceCount pairs a vendor name with its invoice count.
type VendorInvoiceCount struct {
	Name     string
	Invoices int64
}
