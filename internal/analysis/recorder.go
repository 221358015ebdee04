package analysis

import (
	"sync"

	"github.com/sirupsen/logrus"

	"yieldista/internal/models"
	"yieldista/internal/queue"
)

// Recorder is a Sink that flattens outcomes into analysis records and pushes
// them to the persistence queue in batches. Flush must be called after the
// last outcome of a pass to push any partial batch.
type Recorder struct {
	queue        *queue.RecordQueue
	maxBatchSize int
	logger       *logrus.Logger

	mu  sync.Mutex
	buf []*models.AnalysisRecord
}

func NewRecorder(q *queue.RecordQueue, maxBatchSize int, logger *logrus.Logger) *Recorder {
	if maxBatchSize <= 0 {
		maxBatchSize = 1
	}
	return &Recorder{
		queue:        q,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

func (r *Recorder) Emit(outcome models.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf = append(r.buf, models.NewAnalysisRecord(outcome))
	if len(r.buf) >= r.maxBatchSize {
		r.flushLocked()
	}
}

// Flush pushes the buffered partial batch, if any.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *Recorder) flushLocked() {
	if len(r.buf) == 0 {
		return
	}
	batch := r.buf
	r.buf = nil

	if err := r.queue.Push(batch); err != nil {
		// Dropping the batch is preferable to blocking the analysis pass.
		r.logger.WithError(err).WithField("records", len(batch)).
			Error("Failed to enqueue analysis records, dropping batch")
	}
}

// Tee fans one outcome out to multiple sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(outcome models.Outcome) {
		for _, s := range sinks {
			s.Emit(outcome)
		}
	})
}
