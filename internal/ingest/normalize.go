package ingest

import (
	"context"
	"math"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
)

// dateLayouts are tried in order when parsing extracted date strings. The
// extractor mostly emits ISO dates but German-format invoices show up
// with dotted dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006",
}

// Normalizer turns one raw extraction record into an InvoiceGraph.
// Vendor and customer identities are resolved (and created) through the
// injected Resolver, and invoice numbers are finalized through the
// injected NumberAllocator; both are scoped to a single run. The
// reference time anchors date fallbacks and the overdue check.
type Normalizer struct {
	resolver *Resolver
	numbers  *NumberAllocator
	now      time.Time
}

// NewNormalizer creates a normalizer for one run.
func NewNormalizer(resolver *Resolver, numbers *NumberAllocator, now time.Time) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		numbers:  numbers,
		now:      now,
	}
}

// Normalize builds the canonical entity graph for one source record.
// Records without an extraction payload or without both a vendor and a
// customer name yield a *SkipError; every other field degrades to a
// default instead of failing the record.
func (n *Normalizer) Normalize(ctx context.Context, record map[string]any) (*InvoiceGraph, error) {
	extracted, _ := record["extractedData"].(map[string]any)
	var llmData map[string]any
	if extracted != nil {
		llmData, _ = extracted["llmData"].(map[string]any)
	}
	if llmData == nil {
		return nil, &SkipError{Reason: "no extraction data"}
	}

	vendorData := section(llmData["vendor"])
	customerData := section(llmData["customer"])

	vendorName, vendorOK := stringValue(vendorData["vendorName"])
	customerName, customerOK := stringValue(customerData["customerName"])
	if !vendorOK || !customerOK {
		return nil, &SkipError{Reason: "missing vendor or customer"}
	}

	vendorID, err := n.resolver.ResolveVendor(ctx, vendorName, vendorData)
	if err != nil {
		return nil, err
	}
	customerID, err := n.resolver.ResolveCustomer(ctx, customerName, customerData)
	if err != nil {
		return nil, err
	}

	invoiceData := section(llmData["invoice"])
	summaryData := section(llmData["summary"])
	paymentData := section(llmData["payment"])

	candidate, ok := stringValue(invoiceData["invoiceId"])
	if !ok {
		candidate = recordID(record)
	}
	invoiceNumber := n.numbers.Allocate(candidate)

	invoiceDate := n.dateOrNow(stringOr(invoiceData["invoiceDate"], ""))

	// Due date priority: extracted due date, then delivery date, then the
	// run's reference time.
	dueRaw, ok := stringValue(paymentData["dueDate"])
	if !ok {
		dueRaw = stringOr(invoiceData["deliveryDate"], "")
	}
	dueDate := n.dateOrNow(dueRaw)

	// The extraction payload has no payment-completion signal, so an
	// invoice is never PAID here; it starts PENDING or, when its due date
	// has already passed, OVERDUE.
	status := infra.StatusPending
	if dueDate.Before(n.now) {
		status = infra.StatusOverdue
	}

	// Sign information on amounts is discarded; the model stores absolute
	// values only.
	subtotal := math.Abs(floatOr(summaryData["subTotal"], 0))
	tax := math.Abs(floatOr(summaryData["totalTax"], 0))
	total := math.Abs(floatOr(summaryData["invoiceTotal"], 0))

	description, _ := record["name"].(string)

	invoice := &infra.InvoiceRow{
		InvoiceID:     uuid.NewString(),
		InvoiceNumber: invoiceNumber,
		VendorID:      vendorID,
		CustomerID:    customerID,
		InvoiceDate:   civil.DateOf(invoiceDate),
		DueDate:       civil.DateOf(dueDate),
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		Status:        status,
		Category:      stringOr(summaryData["documentType"], "General"),
		Description:   nullString(description),
		CreatedTS:     n.now,
	}

	graph := &InvoiceGraph{Invoice: invoice}

	if itemsSection := section(llmData["lineItems"]); itemsSection != nil {
		if items, ok := envelopeValue(itemsSection["items"]); ok {
			if list, ok := items.([]any); ok {
				for _, entry := range list {
					// Malformed entries still yield a default item row;
					// every accessor treats a nil map as all-missing.
					item, _ := entry.(map[string]any)

					quantity := floatOr(item["quantity"], 0)
					if quantity == 0 {
						quantity = 1
					}

					row := &infra.LineItemRow{
						LineItemID:  uuid.NewString(),
						InvoiceID:   invoice.InvoiceID,
						Description: stringOr(item["description"], "Item"),
						Quantity:    quantity,
						UnitPrice:   math.Abs(floatOr(item["unitPrice"], 0)),
						Amount:      math.Abs(floatOr(item["totalPrice"], 0)),
						CreatedTS:   n.now,
					}
					if tag, ok := stringifyValue(item["Sachkonto"]); ok {
						row.Category = nullString(tag)
					}
					graph.LineItems = append(graph.LineItems, row)
				}
			}
		}
	}

	if bankAccount, ok := stringValue(paymentData["bankAccountNumber"]); ok {
		graph.Payment = &infra.PaymentRow{
			PaymentID:     uuid.NewString(),
			InvoiceID:     invoice.InvoiceID,
			PaymentDate:   civil.DateOf(dueDate),
			Amount:        total,
			PaymentMethod: infra.MethodBankTransfer,
			Reference:     bankAccount,
			CreatedTS:     n.now,
		}
	}

	return graph, nil
}

// dateOrNow parses an extracted date string, falling back to the run's
// reference time when the string is empty or unparseable.
func (n *Normalizer) dateOrNow(s string) time.Time {
	if s == "" {
		return n.now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return n.now
}
