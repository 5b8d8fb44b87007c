package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchState is the lifecycle of a PendingBatch.
type BatchState string

const (
	// BatchEmpty means no edits are pending.
	BatchEmpty BatchState = "empty"
	// BatchAccumulating means edits are pending and the debounce timer is
	// running.
	BatchAccumulating BatchState = "accumulating"
	// BatchFlushing means the pending edits are being applied.
	BatchFlushing BatchState = "flushing"
)

// BatchFlushFunc applies one row's accumulated patch. The patch is
// idempotent, so a retry after a transport failure converges to the same
// end state.
type BatchFlushFunc func(ctx context.Context, rowID uuid.UUID, patch map[string]any) error

// BatchResult reports a flush outcome per row. Application is per-row, not
// transactional: rows in Applied are committed even when others failed, and
// the caller reverts only the Failed rows in its local view before
// refreshing from the server.
type BatchResult struct {
	Applied []uuid.UUID
	Failed  map[uuid.UUID]error
}

// PendingBatch accumulates field edits per row and flushes them as one pass
// after a debounce window. An edit arriving before the window elapses
// supersedes the pending timer and extends the batch; only the latest
// superseding batch is ever sent. One PendingBatch belongs to one editing
// session, never shared as a global.
type PendingBatch struct {
	mu       sync.Mutex
	state    BatchState
	pending  map[uuid.UUID]map[string]any
	timer    *time.Timer
	debounce time.Duration
	flush    BatchFlushFunc
	logger   *zap.Logger
}

// NewPendingBatch creates an empty batch that flushes through fn after
// debounce of inactivity.
func NewPendingBatch(debounce time.Duration, fn BatchFlushFunc, logger *zap.Logger) *PendingBatch {
	return &PendingBatch{
		state:    BatchEmpty,
		pending:  make(map[uuid.UUID]map[string]any),
		debounce: debounce,
		flush:    fn,
		logger:   logger,
	}
}

// State returns the current batch state.
func (b *PendingBatch) State() BatchState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// PendingRows returns how many rows have accumulated edits.
func (b *PendingBatch) PendingRows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Add records a field edit for a row. A later Add of the same field wins.
// Each Add restarts the debounce window, superseding the previously armed
// flush.
func (b *PendingBatch) Add(rowID uuid.UUID, field string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	patch, ok := b.pending[rowID]
	if !ok {
		patch = make(map[string]any)
		b.pending[rowID] = patch
	}
	patch[field] = value

	if b.state != BatchFlushing {
		b.state = BatchAccumulating
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, func() {
		b.Flush(context.Background())
	})
}

// Cancel drops all pending edits and disarms the timer.
func (b *PendingBatch) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = make(map[uuid.UUID]map[string]any)
	b.state = BatchEmpty
}

// Flush applies every pending row immediately, row by row. Edits arriving
// during the flush land in a fresh batch and are not lost. A flush with
// nothing pending returns an empty result.
func (b *PendingBatch) Flush(ctx context.Context) BatchResult {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.state = BatchEmpty
		b.mu.Unlock()
		return BatchResult{}
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.pending
	b.pending = make(map[uuid.UUID]map[string]any)
	b.state = BatchFlushing
	b.mu.Unlock()

	result := BatchResult{Failed: make(map[uuid.UUID]error)}
	for rowID, patch := range batch {
		if err := b.flush(ctx, rowID, patch); err != nil {
			b.logger.Warn("batch row failed",
				zap.String("row_id", rowID.String()),
				zap.Error(err))
			result.Failed[rowID] = err
			continue
		}
		result.Applied = append(result.Applied, rowID)
	}

	b.mu.Lock()
	if len(b.pending) > 0 {
		b.state = BatchAccumulating
	} else {
		b.state = BatchEmpty
	}
	b.mu.Unlock()

	return result
}
