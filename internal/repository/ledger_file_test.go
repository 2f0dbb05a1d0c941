package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
)

func newTestLedger(t *testing.T) *FileLedger {
	t.Helper()
	return NewFileLedger(filepath.Join(t.TempDir(), "audit_trail.jsonl"))
}

func TestFileLedgerAppendAndQuery(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := l.Append(ctx, &model.AuditTrailEntry{
			Timestamp:    fmt.Sprintf("2026-01-0%dT00:00:00Z", i+1),
			EventType:    model.EventModelRegistration,
			ModelName:    "wq-rf",
			ModelVersion: "1",
			User:         "alice",
			Action:       "register_model",
		})
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}
	// 不同模型的条目不该混进来
	if err := l.Append(ctx, &model.AuditTrailEntry{
		Timestamp: "2026-01-01T00:00:00Z",
		EventType: model.EventModelRegistration,
		ModelName: "other-model",
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries, err := l.Query(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Timestamp > entries[i].Timestamp {
			t.Fatalf("entries not sorted by timestamp: %q > %q", entries[i-1].Timestamp, entries[i].Timestamp)
		}
	}
}

func TestFileLedgerMissingFile(t *testing.T) {
	l := newTestLedger(t)
	entries, err := l.Query(context.Background(), "wq-rf", "1")
	if err != nil {
		t.Fatalf("missing ledger should not be an error, got: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestFileLedgerSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit_trail.jsonl")
	raw := `{"timestamp":"2026-01-01T00:00:00Z","event_type":"MODEL_REGISTRATION","model_name":"wq-rf","model_version":"1"}
this line is not json
{"timestamp":"2026-01-02T00:00:00Z","event_type":"MODEL_APPROVAL","model_name":"wq-rf","model_version":"1"}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	l := NewFileLedger(path)
	entries, err := l.Query(context.Background(), "wq-rf", "1")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected malformed line skipped, got %d entries", len(entries))
	}
}

func TestFileLedgerMissingTimestampSortsFirst(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.Append(ctx, &model.AuditTrailEntry{
		Timestamp: "2026-01-01T00:00:00Z",
		EventType: model.EventModelRegistration,
		ModelName: "wq-rf",
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := l.Append(ctx, &model.AuditTrailEntry{
		EventType: model.EventBiasAssessment,
		ModelName: "wq-rf",
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries, err := l.Query(ctx, "wq-rf", "")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Timestamp != "" {
		t.Fatalf("entry without timestamp should sort first, got %q", entries[0].Timestamp)
	}
}

func TestFileLedgerConcurrentAppends(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	const writers = 8
	const perWriter = 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = l.Append(ctx, &model.AuditTrailEntry{
					Timestamp: fmt.Sprintf("2026-01-01T00:00:%02dZ", i),
					EventType: model.EventComplianceEvaluation,
					ModelName: "wq-rf",
					User:      fmt.Sprintf("writer-%d", w),
				})
			}
		}(w)
	}
	wg.Wait()

	entries, err := l.All(ctx)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if len(entries) != writers*perWriter {
		t.Fatalf("expected %d intact entries, got %d", writers*perWriter, len(entries))
	}
}

func TestFileLedgerNilEntry(t *testing.T) {
	l := newTestLedger(t)
	err := l.Append(context.Background(), nil)
	if !apperrors.Is(err, apperrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request error, got %v", err)
	}
}
