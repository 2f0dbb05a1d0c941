package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/AquaMLOps/govgate/internal/repository"
)

func newCardFixture(t *testing.T) (*ModelCardService, *RegistryService, string) {
	t.Helper()
	dir := t.TempDir()
	ledger := NewLedgerService(repository.NewFileLedger(filepath.Join(dir, "audit_trail.jsonl")))
	registry := NewRegistryService(repository.NewFileRegistry(filepath.Join(dir, "model-cards")), ledger, nil)
	compliance := NewComplianceService(repository.NewRulesStore(filepath.Join(dir, "compliance_rules.json")), ledger)
	cards := NewModelCardService(registry, compliance, filepath.Join(dir, "model-cards"))
	return cards, registry, dir
}

func TestModelCardGenerate(t *testing.T) {
	cards, registry, _ := newCardFixture(t)
	ctx := context.Background()

	err := registry.Register(ctx, &model.ModelMetadata{
		ModelName: "wq-rf",
		Version:   "1",
		CreatedBy: "pipeline",
		ModelType: "RandomForest",
		Framework: "scikit-learn",
		DataSchema: model.DataSchema{
			Features: []string{"ph", "Hardness", "Solids"},
			Target:   "Potability",
		},
		TrainingDataInfo: map[string]interface{}{"size": 2620},
		PerformanceMetrics: map[string]float64{
			"accuracy": 0.9123,
			"f1_score": 0.8877,
		},
		BiasAssessment: &model.BiasReport{
			MaxBiasRatio:   0.03,
			BiasAssessment: model.BiasLow,
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	path, content, err := cards.Generate(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if filepath.Base(path) != "wq-rf-1-card.md" {
		t.Fatalf("unexpected card path: %s", path)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("card not written: %v", err)
	}
	if string(onDisk) != content {
		t.Fatalf("returned content differs from persisted card")
	}

	for _, want := range []string{
		"# Model Card: wq-rf v1",
		"- **Model Type**: RandomForest",
		"- **Size**: 2620 samples",
		"- **Features**: 3 features",
		"- **Accuracy**: 0.9123",
		"- **F1 Score**: 0.8877",
		"- **Bias Assessment Level**: LOW",
		"- **Approval Status**: PENDING",
		"- **Retention Policy**: 365 days",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("card missing %q:\n%s", want, content)
		}
	}
	// git commit 缺失渲染成 Unknown，不留空
	if !strings.Contains(content, "- **Git Commit**: Unknown") {
		t.Fatalf("missing fields should render as Unknown:\n%s", content)
	}
}

func TestModelCardUnknownModel(t *testing.T) {
	cards, _, dir := newCardFixture(t)
	_, _, err := cards.Generate(context.Background(), "ghost", "1")
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	// 失败不能留下半截文件
	entries, _ := os.ReadDir(filepath.Join(dir, "model-cards"))
	for _, de := range entries {
		if strings.HasSuffix(de.Name(), "-card.md") || strings.Contains(de.Name(), ".tmp-") {
			t.Fatalf("unexpected artifact after failed generation: %s", de.Name())
		}
	}
}
