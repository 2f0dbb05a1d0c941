package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
)

// RunTracker 只读的实验跟踪交叉引用 (best effort)
type RunTracker interface {
	LatestRun() (*model.TrackedRun, error)
	RegisteredVersions() ([]model.RegisteredVersion, error)
}

// DashboardService 聚合仪表盘快照：注册表、账本、产物指标、跟踪系统。
// 任何一路数据缺席都降级为空，不让整个快照失败。
type DashboardService struct {
	registry     *RegistryService
	ledger       *LedgerService
	tracker      RunTracker
	artifactsDir string
}

func NewDashboardService(registry *RegistryService, ledger *LedgerService, tracker RunTracker, artifactsDir string) *DashboardService {
	return &DashboardService{
		registry:     registry,
		ledger:       ledger,
		tracker:      tracker,
		artifactsDir: artifactsDir,
	}
}

// Snapshot builds the full dashboard document.
func (s *DashboardService) Snapshot(ctx context.Context) (*model.DashboardData, error) {
	testMetrics := s.loadMetricsFile("test_metrics.json")
	trainMetrics := s.loadMetricsFile("train_metrics.json")

	models, err := s.registry.List(ctx)
	if err != nil {
		logger.Warn("Dashboard: registry listing failed", "error", err)
	}

	entries, err := s.ledger.All(ctx)
	if err != nil {
		logger.Warn("Dashboard: audit trail read failed", "error", err)
	}

	var run model.TrackedRun
	var versions []model.RegisteredVersion
	if s.tracker != nil {
		if latest, err := s.tracker.LatestRun(); err == nil && latest != nil {
			run = *latest
		}
		if vs, err := s.tracker.RegisteredVersions(); err == nil {
			versions = vs
		}
	}
	if run.Info == nil {
		run.Info = map[string]any{}
	}
	if run.Params == nil {
		run.Params = map[string]string{}
	}
	if run.Metrics == nil {
		run.Metrics = map[string]float64{}
	}

	tail := entries
	if len(tail) > 20 {
		tail = tail[len(tail)-20:]
	}

	data := &model.DashboardData{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Statistics: model.DashboardStatistics{
			TotalModels:    len(models),
			AuditEntries:   len(entries),
			ComplianceRate: complianceRate(entries),
			AvgAccuracy:    testMetrics["accuracy"],
		},
		Metrics: map[string]map[string]float64{
			"test":     testMetrics,
			"train":    trainMetrics,
			"tracking": run.Metrics,
		},
		TrackedRun:      run,
		TrackedVersions: versions,
		Models:          models,
		AuditTrail:      tail,
	}
	return data, nil
}

// Save persists the snapshot for the static dashboard front end.
func (s *DashboardService) Save(ctx context.Context, path string) error {
	data, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	payload, err := marshalIndent(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(path, payload)
}

func (s *DashboardService) loadMetricsFile(name string) map[string]float64 {
	out := map[string]float64{}
	raw, err := os.ReadFile(filepath.Join(s.artifactsDir, name))
	if err != nil {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("Dashboard: malformed metrics artifact", "file", name, "error", err)
		return map[string]float64{}
	}
	return out
}

// complianceRate 统计每个 model:version 最近一次合规评估，算通过率。
// 没有任何评估时按 1.0 展示 (还没有不合规证据)。
func complianceRate(entries []model.AuditTrailEntry) float64 {
	latest := make(map[string]string)
	for _, e := range entries {
		if e.EventType != model.EventComplianceEvaluation {
			continue
		}
		status, _ := e.Details["overall_status"].(string)
		if status != "" {
			latest[e.ModelName+":"+e.ModelVersion] = status
		}
	}
	if len(latest) == 0 {
		return 1.0
	}
	compliant := 0
	for _, status := range latest {
		if status == model.ComplianceCompliant {
			compliant++
		}
	}
	return float64(compliant) / float64(len(latest))
}
