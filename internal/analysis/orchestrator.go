package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"yieldista/internal/cache"
	"yieldista/internal/market"
	"yieldista/internal/models"
	"yieldista/internal/profitability"
	"yieldista/internal/search"
)

// Sink receives per-property outcomes as they are produced.
type Sink interface {
	Emit(outcome models.Outcome)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(outcome models.Outcome)

func (f SinkFunc) Emit(outcome models.Outcome) { f(outcome) }

// Gate paces comparable fetches. The fixed-delay gate spaces batches a
// constant interval apart; an external implementation may instead block
// until the presentation layer signals a property is visible.
type Gate interface {
	Wait(ctx context.Context) error
}

type fixedDelayGate struct {
	delay time.Duration
}

func (g fixedDelayGate) Wait(ctx context.Context) error {
	if g.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.delay):
		return nil
	}
}

// FixedDelayGate returns a Gate that waits a constant interval.
func FixedDelayGate(delay time.Duration) Gate {
	return fixedDelayGate{delay: delay}
}

// Report summarizes one analysis pass.
type Report struct {
	RunID     string `json:"run_id"`
	Analyzed  int    `json:"analyzed"`
	Succeeded int    `json:"succeeded"`
	NoData    int    `json:"no_data"`
	Errors    int    `json:"errors"`
}

// Orchestrator drives the full pipeline for one search page: group the sale
// properties into comparable batches, fetch each batch's rental market, and
// emit a profitability outcome per property. Batches sharing a cache bucket
// cost one fetch, and fetches are paced to avoid hammering the portal.
type Orchestrator struct {
	generator  *search.Generator
	market     *market.Analyzer
	calculator *profitability.Calculator
	gate       Gate
	logger     *logrus.Logger
}

func NewOrchestrator(gen *search.Generator, m *market.Analyzer, calc *profitability.Calculator, gate Gate, logger *logrus.Logger) *Orchestrator {
	if gate == nil {
		gate = FixedDelayGate(time.Second)
	}
	return &Orchestrator{
		generator:  gen,
		market:     m,
		calculator: calc,
		gate:       gate,
		logger:     logger,
	}
}

type batch struct {
	comparableURL string
	members       []models.Property
}

// Run analyzes every property of a sale search page and emits one outcome
// per property to the sink. Non-sale contexts produce nothing. A failure on
// one batch never aborts the rest; cancellation drops pending outcomes.
func (o *Orchestrator) Run(ctx context.Context, sctx models.SearchContext, properties []models.Property, sink Sink) Report {
	report := Report{RunID: uuid.NewString()}

	if !sctx.IsTargetSite || sctx.TransactionType != models.TransactionSale {
		o.logger.WithFields(logrus.Fields{
			"run_id":           report.RunID,
			"transaction_type": sctx.TransactionType,
		}).Debug("Skipping analysis pass, not a sale search")
		return report
	}

	log := o.logger.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"location": sctx.Location,
	})
	log.WithField("properties", len(properties)).Info("Starting analysis pass")

	batches := o.groupIntoBatches(sctx, properties)
	log.WithField("batches", len(batches)).Debug("Grouped properties into comparable batches")

	for i, b := range batches {
		if i > 0 {
			if err := o.gate.Wait(ctx); err != nil {
				log.WithError(err).Info("Analysis pass cancelled, dropping pending outcomes")
				return report
			}
		}
		if ctx.Err() != nil {
			return report
		}

		o.processBatch(ctx, b, sctx.Location, sink, &report)
	}

	log.WithFields(logrus.Fields{
		"succeeded": report.Succeeded,
		"no_data":   report.NoData,
		"errors":    report.Errors,
	}).Info("Analysis pass completed")
	return report
}

// groupIntoBatches buckets properties by comparable cache key, preserving
// document order of first appearance. The first member of each batch is the
// reference for the batch's comparable URL.
func (o *Orchestrator) groupIntoBatches(sctx models.SearchContext, properties []models.Property) []batch {
	index := make(map[string]int)
	var batches []batch

	for _, p := range properties {
		comparableURL := o.generator.ComparableURL(sctx.TransactionType.Opposite(), sctx.Location, &p)
		key := cache.BuildKey(comparableURL, &p)

		if i, ok := index[key]; ok {
			batches[i].members = append(batches[i].members, p)
			continue
		}
		index[key] = len(batches)
		batches = append(batches, batch{comparableURL: comparableURL, members: []models.Property{p}})
	}

	return batches
}

func (o *Orchestrator) processBatch(ctx context.Context, b batch, location string, sink Sink, report *Report) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"url":   b.comparableURL,
				"panic": r,
			}).Error("Recovered panic while processing batch")
			for _, p := range b.members {
				o.emit(sink, report, models.Outcome{
					Location: location,
					Property: &p,
					Status:   models.OutcomeError,
					Err:      "internal error during analysis",
				})
			}
		}
	}()

	ref := &b.members[0]
	summary, err := o.market.FetchSummary(ctx, b.comparableURL, ref)

	for i := range b.members {
		property := b.members[i]
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			o.logger.WithError(err).WithField("property_id", property.ID).
				Warn("Comparable market unavailable")
			o.emit(sink, report, models.Outcome{
				Location: location,
				Property: &property,
				Status:   models.OutcomeError,
				Err:      err.Error(),
			})

		case summary == nil:
			o.emit(sink, report, models.Outcome{
				Location: location,
				Property: &property,
				Status:   models.OutcomeNoData,
			})

		case property.Price <= 0:
			o.logger.WithField("property_id", property.ID).
				Warn("Skipping property without a valid price")
			o.emit(sink, report, models.Outcome{
				Location: location,
				Property: &property,
				Status:   models.OutcomeError,
				Err:      "property has no valid price",
			})

		default:
			result := o.calculator.Compute(&property, summary)
			o.emit(sink, report, models.Outcome{
				Location: location,
				Property: &property,
				Status:   models.OutcomeSuccess,
				Result:   &result,
				Market:   summary,
			})
		}
	}
}

func (o *Orchestrator) emit(sink Sink, report *Report, outcome models.Outcome) {
	outcome.RunID = report.RunID
	report.Analyzed++
	switch outcome.Status {
	case models.OutcomeSuccess:
		report.Succeeded++
	case models.OutcomeNoData:
		report.NoData++
	case models.OutcomeError:
		report.Errors++
	}
	sink.Emit(outcome)
}
