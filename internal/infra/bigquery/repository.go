package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DefaultDatasetID is the dataset the entity tables live in unless
// overridden via the -dataset flag on the command line tools.
const DefaultDatasetID = "invoices"

// BigQueryInvoiceRepository is the concrete implementation of InvoiceStore
// and ReportStore backed by BigQuery. It holds a shared client to avoid
// creating a new connection for each operation.
type BigQueryInvoiceRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryInvoiceRepository creates a repository with a shared BigQuery
// client for the given project and dataset.
func NewBigQueryInvoiceRepository(ctx context.Context, projectID, datasetID string) (*BigQueryInvoiceRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryInvoiceRepository: creating client: %w", err)
	}
	return &BigQueryInvoiceRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryInvoiceRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// tableRef returns the fully qualified `project.dataset.table` reference
// for interpolation into query text.
func (r *BigQueryInvoiceRepository) tableRef(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, table)
}

// runDML runs a data-modification query and waits for the job to finish.
func (r *BigQueryInvoiceRepository) runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
