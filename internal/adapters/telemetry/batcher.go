// Package telemetry provides the tracing adapters of the build engine.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the buffer size that triggers a flush.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the interval after which buffered output is flushed.
	DefaultTimeLimit = 50 * time.Millisecond
)

var errBatcherClosed = errors.New("batch processor is closed")

// BatchProcessor buffers writes until a size or time limit is reached.
// Only complete lines are handed to the flush callback, except on Close.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewBatchProcessor returns a running BatchProcessor. Close stops it.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		ticker:    time.NewTicker(timeLimit),
		stopCh:    make(chan struct{}),
	}
	go bp.run()
	return bp
}

// Write buffers p and flushes when the size limit is exceeded.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, errBatcherClosed
	}

	n, _ := bp.buffer.Write(p)
	if bp.buffer.Len() >= bp.sizeLimit {
		bp.flushLocked(true)
		bp.ticker.Reset(bp.timeLimit)
	}
	return n, nil
}

// Flush hands every complete buffered line to the callback.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.flushLocked(false)
}

// Close stops the background flusher and flushes everything that is left.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true
	close(bp.stopCh)
	bp.flushLocked(true)
	return nil
}

func (bp *BatchProcessor) run() {
	for {
		select {
		case <-bp.ticker.C:
			bp.Flush()
		case <-bp.stopCh:
			bp.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held. Unless all is set, a trailing
// partial line stays buffered.
func (bp *BatchProcessor) flushLocked(all bool) {
	data := bp.buffer.Bytes()
	if !all {
		i := bytes.LastIndexByte(data, '\n')
		if i < 0 {
			return
		}
		data = data[:i+1]
	}
	if len(data) == 0 {
		return
	}

	out := bytes.Clone(data)
	bp.buffer.Next(len(data))
	if bp.onFlush != nil {
		bp.onFlush(out)
	}
}
