package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
)

// Resolver maps entity names to already-created store handles within one
// ingestion run. The first sighting of a name creates the entity from
// that occurrence's data; every later sighting reuses the cached handle
// without touching the store. Matching is exact and case-sensitive on the
// extracted name. The maps are run-scoped state, not shared across runs.
type Resolver struct {
	store     infra.InvoiceStore
	now       time.Time
	vendors   map[string]string
	customers map[string]string
}

// NewResolver creates a resolver with empty caches for one run.
func NewResolver(store infra.InvoiceStore, now time.Time) *Resolver {
	return &Resolver{
		store:     store,
		now:       now,
		vendors:   make(map[string]string),
		customers: make(map[string]string),
	}
}

// ResolveVendor returns the vendor_id for name, creating the vendor from
// data on first sighting. Callers must validate the name upstream;
// passing an empty name is a caller error.
func (r *Resolver) ResolveVendor(ctx context.Context, name string, data map[string]any) (string, error) {
	if id, ok := r.vendors[name]; ok {
		return id, nil
	}

	address, city, country := splitAddress(stringOr(data["vendorAddress"], ""))
	row := &infra.VendorRow{
		Name:      name,
		Phone:     nullString(stringOr(data["vendorPartyNumber"], "")),
		Address:   nullString(address),
		City:      nullString(city),
		Country:   nullString(country),
		TaxID:     nullString(stringOr(data["vendorTaxId"], "")),
		CreatedTS: r.now,
	}

	id, err := r.store.CreateVendor(ctx, row)
	if err != nil {
		return "", fmt.Errorf("ResolveVendor: creating %q: %w", name, err)
	}
	r.vendors[name] = id
	return id, nil
}

// ResolveCustomer returns the customer_id for name, creating the customer
// from data on first sighting.
func (r *Resolver) ResolveCustomer(ctx context.Context, name string, data map[string]any) (string, error) {
	if id, ok := r.customers[name]; ok {
		return id, nil
	}

	address, city, country := splitAddress(stringOr(data["customerAddress"], ""))
	row := &infra.CustomerRow{
		Name:      name,
		Address:   nullString(address),
		City:      nullString(city),
		Country:   nullString(country),
		CreatedTS: r.now,
	}

	id, err := r.store.CreateCustomer(ctx, row)
	if err != nil {
		return "", fmt.Errorf("ResolveCustomer: creating %q: %w", name, err)
	}
	r.customers[name] = id
	return id, nil
}

// VendorCount returns the number of distinct vendors created this run.
func (r *Resolver) VendorCount() int {
	return len(r.vendors)
}

// CustomerCount returns the number of distinct customers created this run.
func (r *Resolver) CustomerCount() int {
	return len(r.customers)
}

// splitAddress maps the first three comma-separated segments of an
// extracted address string onto address/city/country. Extra segments are
// dropped; missing segments leave the trailing slots empty.
func splitAddress(s string) (address, city, country string) {
	if s == "" {
		return "", "", ""
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	address = parts[0]
	if len(parts) > 1 {
		city = parts[1]
	}
	if len(parts) > 2 {
		country = parts[2]
	}
	return address, city, country
}
