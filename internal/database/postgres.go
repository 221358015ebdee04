package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"yieldista/internal/models"
)

// PostgresStore is the shared-database alternative to the SQLite store,
// selected when a connection string is configured.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analysis_records (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	property_id TEXT NOT NULL,
	property_url TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	purchase_price BIGINT NOT NULL DEFAULT 0,
	estimated_rent BIGINT NOT NULL DEFAULT 0,
	gross_yield DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_yield DOUBLE PRECISION NOT NULL DEFAULT 0,
	monthly_expenses BIGINT NOT NULL DEFAULT 0,
	monthly_mortgage BIGINT NOT NULL DEFAULT 0,
	recommendation TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL DEFAULT '',
	sample_size BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analysis_records_run_id ON analysis_records(run_id);
CREATE INDEX IF NOT EXISTS idx_analysis_records_location ON analysis_records(location);
`

func NewPostgresStore(ctx context.Context, connString string, logger *logrus.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) SaveRecords(ctx context.Context, records []*models.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO analysis_records (
				run_id, property_id, property_url, location, status,
				purchase_price, estimated_rent, gross_yield, net_yield,
				monthly_expenses, monthly_mortgage, recommendation, risk_level, sample_size
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			r.RunID, r.PropertyID, r.PropertyURL, r.Location, r.Status,
			r.PurchasePrice, r.EstimatedRent, r.GrossYield, r.NetYield,
			r.MonthlyExpenses, r.MonthlyMortgage, r.Recommendation, r.RiskLevel, r.SampleSize,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert record: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.WithField("records", len(records)).Debug("Persisted analysis batch")
	return nil
}

func (s *PostgresStore) GetRecords(ctx context.Context, location string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultRecordLimit
	}

	query := `
		SELECT id, run_id, property_id, property_url, location, status,
		       purchase_price, estimated_rent, gross_yield, net_yield,
		       monthly_expenses, monthly_mortgage, recommendation, risk_level,
		       sample_size, created_at
		FROM analysis_records
		WHERE ($1 = '' OR location = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, location, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var r models.AnalysisRecord
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.PropertyID, &r.PropertyURL, &r.Location, &r.Status,
			&r.PurchasePrice, &r.EstimatedRent, &r.GrossYield, &r.NetYield,
			&r.MonthlyExpenses, &r.MonthlyMortgage, &r.Recommendation, &r.RiskLevel,
			&r.SampleSize, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context, location string) (*models.RunStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'success'),
		       COUNT(*) FILTER (WHERE status = 'no_data'),
		       COUNT(*) FILTER (WHERE status = 'error'),
		       AVG(gross_yield) FILTER (WHERE status = 'success'),
		       AVG(net_yield) FILTER (WHERE status = 'success'),
		       COUNT(*) FILTER (WHERE recommendation = 'excellent'),
		       COUNT(*) FILTER (WHERE status = 'success' AND risk_level = 'high')
		FROM analysis_records
		WHERE ($1 = '' OR location = $1)`

	var agg statsAggregate
	err := s.pool.QueryRow(ctx, query, location).Scan(
		&agg.Total, &agg.Success, &agg.NoData, &agg.Errors,
		&agg.AvgGross, &agg.AvgNet, &agg.Excellent, &agg.HighRisk,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	return agg.toStats(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
