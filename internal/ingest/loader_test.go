package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
	"github.com/dvloznov/invoice-analytics/internal/ingest"
)

// MockInvoiceStore records writes and lets individual operations be
// overridden per test.
type MockInvoiceStore struct {
	Vendors   []*infra.VendorRow
	Customers []*infra.CustomerRow
	Invoices  []*infra.InvoiceRow
	LineItems []*infra.LineItemRow
	Payments  []*infra.PaymentRow
	Resets    int

	CreateInvoiceFunc  func(ctx context.Context, row *infra.InvoiceRow) (string, error)
	CreateLineItemFunc func(ctx context.Context, row *infra.LineItemRow) error
	CreatePaymentFunc  func(ctx context.Context, row *infra.PaymentRow) error
	ResetAllFunc       func(ctx context.Context) error
}

func (m *MockInvoiceStore) CreateVendor(ctx context.Context, row *infra.VendorRow) (string, error) {
	row.VendorID = fmt.Sprintf("vendor-%d", len(m.Vendors)+1)
	m.Vendors = append(m.Vendors, row)
	return row.VendorID, nil
}

func (m *MockInvoiceStore) CreateCustomer(ctx context.Context, row *infra.CustomerRow) (string, error) {
	row.CustomerID = fmt.Sprintf("customer-%d", len(m.Customers)+1)
	m.Customers = append(m.Customers, row)
	return row.CustomerID, nil
}

func (m *MockInvoiceStore) CreateInvoice(ctx context.Context, row *infra.InvoiceRow) (string, error) {
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, row)
	}
	m.Invoices = append(m.Invoices, row)
	return row.InvoiceID, nil
}

func (m *MockInvoiceStore) CreateLineItem(ctx context.Context, row *infra.LineItemRow) error {
	if m.CreateLineItemFunc != nil {
		return m.CreateLineItemFunc(ctx, row)
	}
	m.LineItems = append(m.LineItems, row)
	return nil
}

func (m *MockInvoiceStore) CreatePayment(ctx context.Context, row *infra.PaymentRow) error {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, row)
	}
	m.Payments = append(m.Payments, row)
	return nil
}

func (m *MockInvoiceStore) ResetAll(ctx context.Context) error {
	if m.ResetAllFunc != nil {
		return m.ResetAllFunc(ctx)
	}
	m.Resets++
	return nil
}

func testRecord(id, vendor, customer, invoiceID string) map[string]any {
	return map[string]any{
		"_id":  id,
		"name": id + ".pdf",
		"extractedData": map[string]any{
			"llmData": map[string]any{
				"vendor": map[string]any{"value": map[string]any{
					"vendorName": map[string]any{"value": vendor},
				}},
				"customer": map[string]any{"value": map[string]any{
					"customerName": map[string]any{"value": customer},
				}},
				"invoice": map[string]any{"value": map[string]any{
					"invoiceId": map[string]any{"value": invoiceID},
				}},
				"summary": map[string]any{"value": map[string]any{
					"invoiceTotal": map[string]any{"value": 100.0},
				}},
				"payment": map[string]any{"value": map[string]any{
					"bankAccountNumber": map[string]any{"value": "DE44 1234"},
				}},
				"lineItems": map[string]any{"value": map[string]any{
					"items": map[string]any{"value": []any{
						map[string]any{
							"description": map[string]any{"value": "Widget"},
							"quantity":    map[string]any{"value": 2.0},
							"unitPrice":   map[string]any{"value": 50.0},
							"totalPrice":  map[string]any{"value": 100.0},
						},
					}},
				}},
			},
		},
	}
}

func TestLoader_Run(t *testing.T) {
	store := &MockInvoiceStore{}
	loader := ingest.NewLoader(store)

	records := []map[string]any{
		testRecord("rec-1", "Acme Corp", "Globex GmbH", "INV-1"),
		testRecord("rec-2", "Acme Corp", "Initech AG", "INV-1"),
	}

	stats, err := loader.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if store.Resets != 1 {
		t.Errorf("ResetAll called %d times, want 1", store.Resets)
	}
	if stats.Processed != 2 || stats.Skipped != 0 || stats.Total != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.VendorsCreated != 1 {
		t.Errorf("VendorsCreated = %d, shared vendor should be created once", stats.VendorsCreated)
	}
	if stats.CustomersCreated != 2 {
		t.Errorf("CustomersCreated = %d", stats.CustomersCreated)
	}

	if len(store.Invoices) != 2 {
		t.Fatalf("got %d invoices", len(store.Invoices))
	}
	if store.Invoices[0].InvoiceNumber != "INV-1" || store.Invoices[1].InvoiceNumber != "INV-1-1" {
		t.Errorf("invoice numbers = %q, %q, duplicate should be disambiguated",
			store.Invoices[0].InvoiceNumber, store.Invoices[1].InvoiceNumber)
	}
	if len(store.LineItems) != 2 {
		t.Errorf("got %d line items, want 2", len(store.LineItems))
	}
	if len(store.Payments) != 2 {
		t.Errorf("got %d payments, want 2", len(store.Payments))
	}
}

func TestLoader_SkipsBadRecords(t *testing.T) {
	store := &MockInvoiceStore{}
	loader := ingest.NewLoader(store)

	records := []map[string]any{
		{"_id": "broken"}, // no extraction payload
		testRecord("rec-2", "Acme Corp", "Globex GmbH", "INV-2"),
	}

	stats, err := loader.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Processed != 1 || stats.Skipped != 1 || stats.Total != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if len(store.Invoices) != 1 {
		t.Errorf("got %d invoices, want 1", len(store.Invoices))
	}
}

func TestLoader_ResetFailureAborts(t *testing.T) {
	store := &MockInvoiceStore{
		ResetAllFunc: func(ctx context.Context) error {
			return errors.New("permission denied")
		},
	}
	loader := ingest.NewLoader(store)

	_, err := loader.Run(context.Background(), []map[string]any{
		testRecord("rec-1", "Acme Corp", "Globex GmbH", "INV-1"),
	})
	if err == nil {
		t.Fatal("expected error when reset fails")
	}
	if len(store.Invoices) != 0 || len(store.Vendors) != 0 {
		t.Error("no writes may happen after a failed reset")
	}
}

func TestLoader_InvoiceFailureSkipsRecord(t *testing.T) {
	store := &MockInvoiceStore{}
	store.CreateInvoiceFunc = func(ctx context.Context, row *infra.InvoiceRow) (string, error) {
		if row.InvoiceNumber == "INV-1" {
			return "", errors.New("insert failed")
		}
		store.Invoices = append(store.Invoices, row)
		return row.InvoiceID, nil
	}
	loader := ingest.NewLoader(store)

	stats, err := loader.Run(context.Background(), []map[string]any{
		testRecord("rec-1", "Acme Corp", "Globex GmbH", "INV-1"),
		testRecord("rec-2", "Acme Corp", "Globex GmbH", "INV-2"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Processed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(store.Invoices) != 1 || store.Invoices[0].InvoiceNumber != "INV-2" {
		t.Errorf("invoices = %+v", store.Invoices)
	}
	// Children of the failed invoice must not be written.
	if len(store.LineItems) != 1 || len(store.Payments) != 1 {
		t.Errorf("got %d line items and %d payments, want 1 each",
			len(store.LineItems), len(store.Payments))
	}
}

func TestLoader_ChildFailureStillProcessed(t *testing.T) {
	store := &MockInvoiceStore{
		CreateLineItemFunc: func(ctx context.Context, row *infra.LineItemRow) error {
			return errors.New("insert failed")
		},
		CreatePaymentFunc: func(ctx context.Context, row *infra.PaymentRow) error {
			return errors.New("insert failed")
		},
	}
	loader := ingest.NewLoader(store)

	stats, err := loader.Run(context.Background(), []map[string]any{
		testRecord("rec-1", "Acme Corp", "Globex GmbH", "INV-1"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Processed != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, child failures must not fail the record", stats)
	}
	if len(store.Invoices) != 1 {
		t.Errorf("got %d invoices, want 1", len(store.Invoices))
	}
}

func TestLoader_StatusFromDueDate(t *testing.T) {
	store := &MockInvoiceStore{}
	loader := ingest.NewLoader(store)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	overdue := testRecord("rec-1", "Acme Corp", "Globex GmbH", "INV-1")
	setDueDate(overdue, yesterday)
	pending := testRecord("rec-2", "Acme Corp", "Globex GmbH", "INV-2")
	setDueDate(pending, tomorrow)

	if _, err := loader.Run(context.Background(), []map[string]any{overdue, pending}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := store.Invoices[0].Status; got != infra.StatusOverdue {
		t.Errorf("past due date Status = %q, want %q", got, infra.StatusOverdue)
	}
	if got := store.Invoices[1].Status; got != infra.StatusPending {
		t.Errorf("future due date Status = %q, want %q", got, infra.StatusPending)
	}
}

func setDueDate(record map[string]any, date string) {
	llmData := record["extractedData"].(map[string]any)["llmData"].(map[string]any)
	payment := llmData["payment"].(map[string]any)["value"].(map[string]any)
	payment["dueDate"] = map[string]any{"value": date}
}

func TestLoader_EmptyBatch(t *testing.T) {
	store := &MockInvoiceStore{}
	loader := ingest.NewLoader(store)

	stats, err := loader.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if store.Resets != 1 {
		t.Errorf("ResetAll called %d times, the reset happens even for an empty batch", store.Resets)
	}
	if stats.Total != 0 || stats.Processed != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
