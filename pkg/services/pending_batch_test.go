package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recordingFlush captures flushed rows and fails the ones listed in failRows.
type recordingFlush struct {
	mu       sync.Mutex
	flushed  map[uuid.UUID]map[string]any
	failRows map[uuid.UUID]error
}

func newRecordingFlush() *recordingFlush {
	return &recordingFlush{
		flushed:  make(map[uuid.UUID]map[string]any),
		failRows: make(map[uuid.UUID]error),
	}
}

func (r *recordingFlush) fn(ctx context.Context, rowID uuid.UUID, patch map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failRows[rowID]; ok {
		return err
	}
	r.flushed[rowID] = patch
	return nil
}

func (r *recordingFlush) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flushed)
}

func TestPendingBatch_StatesAndAccumulation(t *testing.T) {
	rec := newRecordingFlush()
	batch := NewPendingBatch(time.Hour, rec.fn, zap.NewNop())

	if batch.State() != BatchEmpty {
		t.Fatalf("expected empty state, got %s", batch.State())
	}

	rowID := uuid.New()
	batch.Add(rowID, "sort_order", 3)
	batch.Add(rowID, "required", true)
	batch.Add(rowID, "sort_order", 5) // later edit of the same field wins

	if batch.State() != BatchAccumulating {
		t.Fatalf("expected accumulating state, got %s", batch.State())
	}
	if batch.PendingRows() != 1 {
		t.Fatalf("expected 1 pending row, got %d", batch.PendingRows())
	}

	result := batch.Flush(context.Background())
	if len(result.Applied) != 1 || len(result.Failed) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := rec.flushed[rowID]["sort_order"]; got != 5 {
		t.Errorf("expected superseding value 5, got %v", got)
	}
	if batch.State() != BatchEmpty {
		t.Errorf("expected empty state after flush, got %s", batch.State())
	}
}

func TestPendingBatch_DebounceSupersede(t *testing.T) {
	rec := newRecordingFlush()
	batch := NewPendingBatch(40*time.Millisecond, rec.fn, zap.NewNop())

	rowID := uuid.New()
	batch.Add(rowID, "week_number", 1)
	time.Sleep(20 * time.Millisecond)
	// Arrives inside the window: the armed flush is superseded and the
	// window restarts.
	batch.Add(rowID, "week_number", 2)
	time.Sleep(20 * time.Millisecond)

	if rec.count() != 0 {
		t.Fatal("flush fired before the extended window elapsed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.count() != 1 {
		t.Fatalf("expected one flushed row, got %d", rec.count())
	}

	rec.mu.Lock()
	got := rec.flushed[rowID]["week_number"]
	rec.mu.Unlock()
	if got != 2 {
		t.Errorf("expected only the superseding batch to send, got %v", got)
	}
}

func TestPendingBatch_PartialFailure(t *testing.T) {
	rec := newRecordingFlush()
	batch := NewPendingBatch(time.Hour, rec.fn, zap.NewNop())

	good := uuid.New()
	bad := uuid.New()
	rec.failRows[bad] = errors.New("row rejected")

	batch.Add(good, "done", true)
	batch.Add(bad, "done", true)

	result := batch.Flush(context.Background())

	// Per-row application: the good row stays committed, only the failed
	// row is reported back for the caller to revert locally.
	if len(result.Applied) != 1 || result.Applied[0] != good {
		t.Errorf("expected good row applied, got %v", result.Applied)
	}
	if _, ok := result.Failed[bad]; !ok {
		t.Errorf("expected bad row in failures, got %v", result.Failed)
	}
	if batch.PendingRows() != 0 {
		t.Errorf("failed rows must not linger in the batch, %d pending", batch.PendingRows())
	}
}

func TestPendingBatch_Cancel(t *testing.T) {
	rec := newRecordingFlush()
	batch := NewPendingBatch(20*time.Millisecond, rec.fn, zap.NewNop())

	batch.Add(uuid.New(), "notes", "draft text")
	batch.Cancel()

	time.Sleep(60 * time.Millisecond)
	if rec.count() != 0 {
		t.Error("cancelled batch must not flush")
	}
	if batch.State() != BatchEmpty {
		t.Errorf("expected empty state, got %s", batch.State())
	}
}

func TestPendingBatch_FlushEmpty(t *testing.T) {
	batch := NewPendingBatch(time.Hour, newRecordingFlush().fn, zap.NewNop())

	result := batch.Flush(context.Background())
	if len(result.Applied) != 0 || len(result.Failed) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
