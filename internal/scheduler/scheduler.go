package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/cache"
)

// AnalyzeFunc runs one analysis pass over a saved search-page URL.
type AnalyzeFunc func(ctx context.Context, url string) error

// Scheduler drives the recurring jobs: the cache sweep and, when configured,
// periodic re-analysis of saved searches. Jobs never overlap; a tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	cache    *cache.MarketCache
	analyze  AnalyzeFunc
	logger   *logrus.Logger
	jobMutex sync.Mutex
}

func NewScheduler(cfg *config.Config, marketCache *cache.MarketCache, analyze AnalyzeFunc, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		cache:   marketCache,
		analyze: analyze,
		logger:  logger,
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if spec := s.cfg.Cache.SweepCron; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.sweepCache); err != nil {
			return err
		}
		s.logger.WithField("cron", spec).Info("Scheduled cache sweep")
	}

	if spec := s.cfg.Scheduler.AnalyzeCron; spec != "" && len(s.cfg.Scheduler.SearchURLs) > 0 {
		if _, err := s.cron.AddFunc(spec, s.runSavedSearches); err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"cron":     spec,
			"searches": len(s.cfg.Scheduler.SearchURLs),
		}).Info("Scheduled saved-search analysis")
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) sweepCache() {
	removed := s.cache.SweepExpired()
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Swept expired market summaries")
	}
}

// runSavedSearches analyzes each configured search URL sequentially.
func (s *Scheduler) runSavedSearches() {
	if !s.jobMutex.TryLock() {
		s.logger.Debug("Previous saved-search run still in progress, skipping tick")
		return
	}
	defer s.jobMutex.Unlock()

	for _, url := range s.cfg.Scheduler.SearchURLs {
		log := s.logger.WithField("url", url)
		log.Info("Starting saved-search analysis")

		if err := s.analyze(context.Background(), url); err != nil {
			log.WithError(err).Error("Saved-search analysis failed")
			continue
		}
		log.Info("Saved-search analysis completed")
	}
}
