package database

import (
	"context"

	"yieldista/internal/models"
)

// Store persists analysis records and serves them back to the API.
type Store interface {
	// SaveRecords persists a batch atomically: either every record in the
	// batch is stored or none is.
	SaveRecords(ctx context.Context, records []*models.AnalysisRecord) error

	// GetRecords returns the most recent records, newest first. An empty
	// location matches everything.
	GetRecords(ctx context.Context, location string, limit int) ([]models.AnalysisRecord, error)

	// GetStats aggregates persisted outcomes, optionally filtered by location.
	GetStats(ctx context.Context, location string) (*models.RunStats, error)

	Close() error
}

const defaultRecordLimit = 100
