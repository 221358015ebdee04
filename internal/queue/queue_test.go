package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"yieldista/internal/models"
)

func TestNewRecordQueue(t *testing.T) {
	logger := logrus.New()
	q := NewRecordQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestRecordQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewRecordQueue(2, logger)

	// Test successful push
	records := []*models.AnalysisRecord{{PropertyID: "1"}}
	err := q.Push(records)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	for i := 0; i < 2; i++ {
		records := []*models.AnalysisRecord{{PropertyID: "x"}}
		_ = q.Push(records)
	}
	err = q.Push(records)
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	q.Close()
	err = q.Push(records)
	assert.Equal(t, ErrQueueClosed, err)
}

func TestRecordQueue_Subscribe(t *testing.T) {
	logger := logrus.New()
	q := NewRecordQueue(10, logger)

	var processed []*models.AnalysisRecord
	var mu sync.Mutex

	// Add handler
	q.Subscribe(func(records []*models.AnalysisRecord) error {
		mu.Lock()
		processed = append(processed, records...)
		mu.Unlock()
		return nil
	})

	// Start queue
	q.Start()

	// Push items
	testRecords := []*models.AnalysisRecord{{PropertyID: "1"}, {PropertyID: "2"}}
	err := q.Push(testRecords)
	assert.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Verify processing
	mu.Lock()
	assert.Equal(t, 2, len(processed))
	assert.Equal(t, "1", processed[0].PropertyID)
	assert.Equal(t, "2", processed[1].PropertyID)
	mu.Unlock()
}

func TestRecordQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewRecordQueue(10, logger)

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestRecordQueue_ProcessBatch(t *testing.T) {
	logger := logrus.New()
	q := NewRecordQueue(10, logger)

	var wg sync.WaitGroup
	processedBatches := 0
	var mu sync.Mutex

	// Add multiple handlers
	for i := 0; i < 3; i++ {
		wg.Add(1)
		q.Subscribe(func(records []*models.AnalysisRecord) error {
			mu.Lock()
			processedBatches++
			mu.Unlock()
			wg.Done()
			return nil
		})
	}

	// Start queue
	q.Start()

	// Push a batch
	testRecords := []*models.AnalysisRecord{{PropertyID: "1"}}
	err := q.Push(testRecords)
	assert.NoError(t, err)

	// Wait for all handlers
	wg.Wait()

	// Verify all handlers processed the batch
	mu.Lock()
	assert.Equal(t, 3, processedBatches)
	mu.Unlock()
}
