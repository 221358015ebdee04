package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/database"
	"yieldista/internal/models"
	"yieldista/internal/queue"
)

// BatchPersister drains analysis-record batches from the queue into the
// store, retrying failed batches a bounded number of times.
type BatchPersister struct {
	store  database.Store
	logger *logrus.Logger
	config *config.Config
	queue  *queue.RecordQueue
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBatchPersister(store database.Store, q *queue.RecordQueue, cfg *config.Config, logger *logrus.Logger) *BatchPersister {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchPersister{
		store:  store,
		queue:  q,
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the persister to the queue.
func (p *BatchPersister) Start() {
	p.queue.Subscribe(func(batch []*models.AnalysisRecord) error {
		return p.persistBatch(batch)
	})
}

// Stop cancels any in-flight retry waits.
func (p *BatchPersister) Stop() {
	p.cancel()
}

// persistBatch saves a single batch with retry logic. Each attempt is
// all-or-nothing; a batch is abandoned once the retry budget runs out.
func (p *BatchPersister) persistBatch(batch []*models.AnalysisRecord) error {
	retryDelay := time.Duration(p.config.BatchPersistence.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= p.config.BatchPersistence.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch persistence, attempt %d of %d", attempt, p.config.BatchPersistence.MaxRetries)
			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		err = p.store.SaveRecords(p.ctx, batch)
		if err == nil {
			p.logger.Infof("Successfully persisted batch of %d records", len(batch))
			return nil
		}

		p.logger.Errorf("Batch persistence failed: %v", err)
	}

	return fmt.Errorf("failed to persist batch after %d attempts: %w", p.config.BatchPersistence.MaxRetries, err)
}
