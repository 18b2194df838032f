package main

import (
	"context"
	"flag"
	"os"
	"time"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
	"github.com/dvloznov/invoice-analytics/internal/logger"
	"github.com/dvloznov/invoice-analytics/internal/report"
)

func main() {
	log := logger.New()

	var (
		projectID  string
		datasetID  string
		sampleSize int
		topVendors int
	)

	flag.StringVar(&projectID, "project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (defaults to GOOGLE_CLOUD_PROJECT)")
	flag.StringVar(&datasetID, "dataset", infra.DefaultDatasetID, "BigQuery dataset ID")
	flag.IntVar(&sampleSize, "sample", 5, "Number of recent invoices to show")
	flag.IntVar(&topVendors, "top", 5, "Number of top vendors to show")
	flag.Parse()

	if projectID == "" {
		log.Fatal().Msg("Error: -project is required (or set GOOGLE_CLOUD_PROJECT)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.NewBigQueryInvoiceRepository(ctx, projectID, datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	rep, err := report.Build(ctx, repo, sampleSize, topVendors)
	if err != nil {
		log.Fatal().Err(err).Msg("Verification failed")
	}

	if err := rep.Render(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Failed to render report")
	}
}
