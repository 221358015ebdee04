package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"yieldista/internal/models"
)

// SQLiteStore is the default single-file store.
type SQLiteStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&models.AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate analysis records: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) SaveRecords(ctx context.Context, records []*models.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis records: %w", err)
	}

	s.logger.WithField("records", len(records)).Debug("Persisted analysis batch")
	return nil
}

func (s *SQLiteStore) GetRecords(ctx context.Context, location string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultRecordLimit
	}

	query := s.db.WithContext(ctx).
		Model(&models.AnalysisRecord{}).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if location != "" {
		query = query.Where("location = ?", location)
	}

	var records []models.AnalysisRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query analysis records: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) GetStats(ctx context.Context, location string) (*models.RunStats, error) {
	query := s.db.WithContext(ctx).
		Model(&models.AnalysisRecord{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) AS success,
			COALESCE(SUM(CASE WHEN status = 'no_data' THEN 1 ELSE 0 END), 0) AS no_data,
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0) AS errors,
			AVG(CASE WHEN status = 'success' THEN gross_yield END) AS avg_gross,
			AVG(CASE WHEN status = 'success' THEN net_yield END) AS avg_net,
			COALESCE(SUM(CASE WHEN recommendation = 'excellent' THEN 1 ELSE 0 END), 0) AS excellent,
			COALESCE(SUM(CASE WHEN status = 'success' AND risk_level = 'high' THEN 1 ELSE 0 END), 0) AS high_risk`)
	if location != "" {
		query = query.Where("location = ?", location)
	}

	var agg statsAggregate
	if err := query.Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate analysis stats: %w", err)
	}
	return agg.toStats(), nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// statsAggregate is the raw aggregation row shared by both store backends.
type statsAggregate struct {
	Total     int
	Success   int
	NoData    int
	Errors    int
	AvgGross  sql.NullFloat64
	AvgNet    sql.NullFloat64
	Excellent int
	HighRisk  int
}

func (a statsAggregate) toStats() *models.RunStats {
	stats := &models.RunStats{
		TotalAnalyzed: a.Total,
		TotalSuccess:  a.Success,
		TotalNoData:   a.NoData,
		TotalErrors:   a.Errors,
	}
	if a.AvgGross.Valid {
		stats.AvgGrossYield = roundStat(a.AvgGross.Float64)
	}
	if a.AvgNet.Valid {
		stats.AvgNetYield = roundStat(a.AvgNet.Float64)
	}
	if a.Success > 0 {
		stats.ExcellentShare = roundStat(float64(a.Excellent) / float64(a.Success))
		stats.HighRiskShare = roundStat(float64(a.HighRisk) / float64(a.Success))
	}
	return stats
}

func roundStat(v float64) float64 {
	return math.Round(v*100) / 100
}
