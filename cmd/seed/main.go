package main

import (
	"context"
	"flag"
	"os"
	"time"

	infra "github.com/dvloznov/invoice-analytics/internal/infra/bigquery"
	"github.com/dvloznov/invoice-analytics/internal/ingest"
	"github.com/dvloznov/invoice-analytics/internal/logger"
	"github.com/dvloznov/invoice-analytics/internal/source"
)

func main() {
	log := logger.New()

	var (
		filePath  string
		gcsURI    string
		projectID string
		datasetID string
	)

	flag.StringVar(&filePath, "file", "", "Path to a local extraction-batch JSON file")
	flag.StringVar(&gcsURI, "gcs-uri", "", "GCS URI of an extraction-batch JSON file (e.g. gs://bucket/batch.json)")
	flag.StringVar(&projectID, "project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (defaults to GOOGLE_CLOUD_PROJECT)")
	flag.StringVar(&datasetID, "dataset", infra.DefaultDatasetID, "BigQuery dataset ID")
	flag.Parse()

	if projectID == "" {
		log.Fatal().Msg("Error: -project is required (or set GOOGLE_CLOUD_PROJECT)")
	}
	if (filePath == "") == (gcsURI == "") {
		log.Fatal().Msg("Usage: seed -project PROJECT (-file /path/to/batch.json | -gcs-uri gs://bucket/batch.json)")
	}

	var src source.RecordSource
	if filePath != "" {
		src = &source.FileSource{Path: filePath}
	} else {
		src = &source.GCSSource{URI: gcsURI}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	records, err := src.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load records")
	}
	log.Info().Int("records", len(records)).Msg("Loaded extraction batch")

	repo, err := infra.NewBigQueryInvoiceRepository(ctx, projectID, datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	stats, err := ingest.NewLoader(repo).Run(ctx, records)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	stats.Log(log)
}
