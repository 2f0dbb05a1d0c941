package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/pkg/metrics"
	"github.com/google/uuid"
)

// ApprovalService 是策略层：跑完性能、合规、偏差三类检查之后才调用
// 注册表的 Approve。否决时只生成 rejection 报告，注册表记录保持 PENDING。
type ApprovalService struct {
	registry   *RegistryService
	compliance *ComplianceService
	bias       *BiasEngine
	ledger     *LedgerService
	reportsDir string
}

func NewApprovalService(
	registry *RegistryService,
	compliance *ComplianceService,
	bias *BiasEngine,
	ledger *LedgerService,
	reportsDir string,
) *ApprovalService {
	return &ApprovalService{
		registry:   registry,
		compliance: compliance,
		bias:       bias,
		ledger:     ledger,
		reportsDir: reportsDir,
	}
}

// ApprovalRequest 审批工作流的全部输入
type ApprovalRequest struct {
	ModelName string
	Version   string
	Approver  string
	Reason    string

	Thresholds  model.PerformanceThresholds
	TestResults map[string]bool

	// TestDataPath 指向打过分的测试集 CSV (预测列由 serving 侧产出)。
	// 为空或文件不存在时跳过偏差重评，沿用注册时的评估结果。
	TestDataPath     string
	PredictionColumn string
	TargetColumn     string
	ProtectedColumns []string
}

// Run executes the approval workflow and writes the decision report.
// Rejection 不是 error：返回的报告里 approval_status 为 REJECTED。
func (s *ApprovalService) Run(ctx context.Context, req ApprovalRequest) (*model.ApprovalReport, error) {
	md, err := s.registry.Get(ctx, req.ModelName, req.Version)
	if err != nil {
		return nil, err
	}

	// 1. Performance thresholds (script-level, independent of ComplianceRules)
	perfChecks := map[string]bool{
		"accuracy":  md.PerformanceMetrics["accuracy"] >= req.Thresholds.MinAccuracy,
		"precision": md.PerformanceMetrics["precision"] >= req.Thresholds.MinPrecision,
		"recall":    md.PerformanceMetrics["recall"] >= req.Thresholds.MinRecall,
	}
	perfOK := perfChecks["accuracy"] && perfChecks["precision"] && perfChecks["recall"]

	// 2. Bias re-assessment over the scored dataset, when provided
	biasOK := true
	var biasReport *model.BiasReport
	if req.TestDataPath != "" {
		biasReport, err = s.assessFromDataset(ctx, req)
		if err != nil {
			// 数据集问题不挡审批，对齐源脚本的 "Warning: Bias assessment failed"
			logger.Warn("Bias assessment skipped", "model", req.ModelName+":"+req.Version, "error", err)
		} else if biasReport != nil {
			biasOK = biasReport.MaxBiasRatio < 0.1
		}
	}

	// 3. Compliance evaluation against the persisted rules
	biasMetrics := map[string]float64{}
	switch {
	case biasReport != nil:
		biasMetrics["max_bias_ratio"] = biasReport.MaxBiasRatio
	case md.BiasAssessment != nil:
		biasMetrics["max_bias_ratio"] = md.BiasAssessment.MaxBiasRatio
	}
	complianceReport, err := s.compliance.Evaluate(ctx,
		req.ModelName, req.Version, md.PerformanceMetrics, biasMetrics, req.TestResults)
	if err != nil {
		return nil, err
	}
	complianceOK := complianceReport.OverallStatus == model.ComplianceCompliant

	report := &model.ApprovalReport{
		ReportID:   uuid.New().String(),
		ModelName:  req.ModelName,
		Version:    req.Version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Thresholds: req.Thresholds,
		Checks: model.ApprovalChecks{
			Performance: perfChecks,
			Compliance:  complianceReport,
			Bias:        biasReport,
		},
	}
	if biasReport != nil {
		// 审计溯源：记下这次偏差重评用的是哪份打分数据集
		report.Extra = map[string]interface{}{
			"test_data_path":    req.TestDataPath,
			"protected_columns": req.ProtectedColumns,
		}
	}

	if perfOK && complianceOK && biasOK {
		if err := s.registry.Approve(ctx, req.ModelName, req.Version, req.Approver, req.Reason); err != nil {
			return nil, err
		}
		report.ApprovalStatus = model.ApprovalApproved
		report.Approver = req.Approver
		report.ApprovalReason = req.Reason
		metrics.ApprovalsTotal.WithLabelValues("approved").Inc()
	} else {
		report.ApprovalStatus = model.ApprovalRejected
		report.FailedChecks = map[string]bool{
			"performance": !perfOK,
			"compliance":  !complianceOK,
			"bias":        !biasOK,
		}
		metrics.ApprovalsTotal.WithLabelValues("rejected").Inc()
	}

	if err := s.writeReport(report); err != nil {
		return report, err
	}
	return report, nil
}

// assessFromDataset 读取打分数据集，把受保护列按中位数二分成群组，
// 然后跑偏差引擎并记一条 BIAS_ASSESSMENT 账目。
func (s *ApprovalService) assessFromDataset(ctx context.Context, req ApprovalRequest) (*model.BiasReport, error) {
	ds, err := loadScoredDataset(req.TestDataPath, req.PredictionColumn, req.TargetColumn, req.ProtectedColumns)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string, len(req.ProtectedColumns))
	var attrs []string
	for _, col := range req.ProtectedColumns {
		values, ok := ds.features[col]
		if !ok {
			continue
		}
		attr := col + "_range"
		groups[attr] = bucketByMedian(values)
		attrs = append(attrs, attr)
	}

	biasReport, err := s.bias.Assess(ds.predictions, ds.labels, groups, attrs)
	if err != nil {
		return nil, err
	}

	entry := &model.AuditTrailEntry{
		EventType:    model.EventBiasAssessment,
		ModelName:    req.ModelName,
		ModelVersion: req.Version,
		User:         "system",
		Action:       "assess_bias",
		Details:      toDetails(biasReport),
		Environment:  "governance",
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	return biasReport, nil
}

func (s *ApprovalService) writeReport(report *model.ApprovalReport) error {
	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	suffix := "approval"
	if report.ApprovalStatus == model.ApprovalRejected {
		suffix = "rejection"
	}
	path := filepath.Join(s.reportsDir, fmt.Sprintf("%s-%s-%s.json", report.ModelName, report.Version, suffix))
	payload, err := marshalIndent(report)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, payload); err != nil {
		return err
	}
	logger.Info("Decision report saved", "path", path, "status", report.ApprovalStatus)
	return nil
}
