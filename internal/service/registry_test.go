package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/AquaMLOps/govgate/internal/repository"
)

func newTestRegistry(t *testing.T) (*RegistryService, *LedgerService) {
	t.Helper()
	dir := t.TempDir()
	ledger := NewLedgerService(repository.NewFileLedger(filepath.Join(dir, "audit_trail.jsonl")))
	registry := NewRegistryService(repository.NewFileRegistry(filepath.Join(dir, "model-cards")), ledger, nil)
	return registry, ledger
}

func TestRegisterFillsDefaults(t *testing.T) {
	registry, ledger := newTestRegistry(t)
	ctx := context.Background()

	md := &model.ModelMetadata{
		ModelName: "wq-rf",
		Version:   "1",
		CreatedBy: "pipeline",
	}
	if err := registry.Register(ctx, md); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, err := registry.Get(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CreatedAt == "" {
		t.Fatalf("created_at should be filled")
	}
	if got.ComplianceStatus != model.CompliancePending || got.ApprovalStatus != model.ApprovalPending {
		t.Fatalf("fresh record should be PENDING/PENDING, got %s/%s", got.ComplianceStatus, got.ApprovalStatus)
	}

	entries, err := ledger.Query(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	if len(entries) != 1 || entries[0].EventType != model.EventModelRegistration {
		t.Fatalf("expected one MODEL_REGISTRATION entry, got %+v", entries)
	}
	// 注册条目要带完整的 metadata 快照
	if _, ok := entries[0].Details["metadata"]; !ok {
		t.Fatalf("registration entry should carry the metadata snapshot")
	}
}

func TestReRegisterOverwritesAndAppendsAgain(t *testing.T) {
	registry, ledger := newTestRegistry(t)
	ctx := context.Background()

	first := &model.ModelMetadata{ModelName: "wq-rf", Version: "1", CreatedBy: "pipeline"}
	if err := registry.Register(ctx, first); err != nil {
		t.Fatalf("first register: %v", err)
	}
	second := &model.ModelMetadata{ModelName: "wq-rf", Version: "1", CreatedBy: "retrain"}
	if err := registry.Register(ctx, second); err != nil {
		t.Fatalf("second register: %v", err)
	}

	got, err := registry.Get(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CreatedBy != "retrain" {
		t.Fatalf("overwrite-on-register: expected last writer, got %q", got.CreatedBy)
	}

	// 覆盖注册不折叠历史：账本两条注册条目
	entries, err := ledger.Query(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
}

func TestApproveNonexistentLeavesNoTrace(t *testing.T) {
	registry, ledger := newTestRegistry(t)
	ctx := context.Background()

	err := registry.Approve(ctx, "ghost", "1", "alice", "")
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	entries, err := ledger.Query(ctx, "ghost", "1")
	if err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed approval must not write audit entries, got %d", len(entries))
	}
}

// End-to-end lifecycle: register, evaluate against the default rules with
// the pure evaluator, approve, and verify both the final record and the
// audit trail.
func TestGovernanceLifecycle(t *testing.T) {
	registry, ledger := newTestRegistry(t)
	ctx := context.Background()

	md := &model.ModelMetadata{
		ModelName: "wq-rf",
		Version:   "1",
		CreatedBy: "pipeline",
		ModelType: "RandomForest",
		Framework: "scikit-learn",
		PerformanceMetrics: map[string]float64{
			"accuracy":  0.90,
			"precision": 0.88,
			"recall":    0.86,
		},
	}
	if err := registry.Register(ctx, md); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	report := EvaluateAgainstRules("wq-rf", "1",
		md.PerformanceMetrics,
		map[string]float64{"max_bias_ratio": 0.03},
		map[string]bool{"unit_tests": true, "integration_tests": true, "bias_tests": true},
		model.DefaultComplianceRules(),
	)
	if report.OverallStatus != model.ComplianceCompliant {
		t.Fatalf("expected COMPLIANT, got %s (failed: %v)", report.OverallStatus, report.Failed())
	}

	if err := registry.Approve(ctx, "wq-rf", "1", "alice", "ok"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	got, err := registry.Get(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ApprovalStatus != model.ApprovalApproved || got.ApprovedBy != "alice" || got.ApprovedAt == "" {
		t.Fatalf("approval not persisted: %+v", got)
	}

	entries, err := ledger.Query(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	wantEvents := []string{
		model.EventModelRegistration,
		model.EventModelApproval,
	}
	if len(entries) != len(wantEvents) {
		t.Fatalf("expected exactly %d entries, got %d", len(wantEvents), len(entries))
	}
	for i, want := range wantEvents {
		if entries[i].EventType != want {
			t.Fatalf("entry %d: got %s, want %s", i, entries[i].EventType, want)
		}
	}
}

type fakeTracker struct {
	calls int
	tags  map[string]string
	fail  bool
}

func (f *fakeTracker) WriteGovernanceTags(modelName, version string, tags map[string]string) error {
	f.calls++
	f.tags = tags
	if f.fail {
		return apperrors.New(apperrors.ErrUpstream, "tracking store unavailable", nil)
	}
	return nil
}

func TestRegisterTrackerIsBestEffort(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedgerService(repository.NewFileLedger(filepath.Join(dir, "audit_trail.jsonl")))
	tracker := &fakeTracker{fail: true}
	registry := NewRegistryService(repository.NewFileRegistry(filepath.Join(dir, "model-cards")), ledger, tracker)

	md := &model.ModelMetadata{ModelName: "wq-rf", Version: "1", CreatedBy: "pipeline"}
	if err := registry.Register(context.Background(), md); err != nil {
		t.Fatalf("tracker failure must not fail registration: %v", err)
	}
	if tracker.calls != 1 {
		t.Fatalf("tracker should have been called once, got %d", tracker.calls)
	}
	if tracker.tags["governance.approval_status"] != model.ApprovalPending {
		t.Fatalf("unexpected governance tags: %v", tracker.tags)
	}
}
