package ingest

import (
	"context"
	"fmt"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
)

// mockStore is an in-memory InvoiceStore recording every write. Error
// injection is per-operation via the *Err fields.
type mockStore struct {
	vendors   []*infra.VendorRow
	customers []*infra.CustomerRow
	invoices  []*infra.InvoiceRow
	lineItems []*infra.LineItemRow
	payments  []*infra.PaymentRow

	resets int

	resetErr    error
	vendorErr   error
	customerErr error
	invoiceErr  error
	lineItemErr error
	paymentErr  error
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) CreateVendor(ctx context.Context, row *infra.VendorRow) (string, error) {
	if m.vendorErr != nil {
		return "", m.vendorErr
	}
	if row.VendorID == "" {
		row.VendorID = fmt.Sprintf("vendor-%d", len(m.vendors)+1)
	}
	m.vendors = append(m.vendors, row)
	return row.VendorID, nil
}

func (m *mockStore) CreateCustomer(ctx context.Context, row *infra.CustomerRow) (string, error) {
	if m.customerErr != nil {
		return "", m.customerErr
	}
	if row.CustomerID == "" {
		row.CustomerID = fmt.Sprintf("customer-%d", len(m.customers)+1)
	}
	m.customers = append(m.customers, row)
	return row.CustomerID, nil
}

func (m *mockStore) CreateInvoice(ctx context.Context, row *infra.InvoiceRow) (string, error) {
	if m.invoiceErr != nil {
		return "", m.invoiceErr
	}
	m.invoices = append(m.invoices, row)
	return row.InvoiceID, nil
}

func (m *mockStore) CreateLineItem(ctx context.Context, row *infra.LineItemRow) error {
	if m.lineItemErr != nil {
		return m.lineItemErr
	}
	m.lineItems = append(m.lineItems, row)
	return nil
}

func (m *mockStore) CreatePayment(ctx context.Context, row *infra.PaymentRow) error {
	if m.paymentErr != nil {
		return m.paymentErr
	}
	m.payments = append(m.payments, row)
	return nil
}

func (m *mockStore) ResetAll(ctx context.Context) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resets++
	m.payments = nil
	m.lineItems = nil
	m.invoices = nil
	m.vendors = nil
	m.customers = nil
	return nil
}
