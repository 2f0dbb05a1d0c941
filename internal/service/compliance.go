package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/metrics"
	"github.com/AquaMLOps/govgate/internal/repository"
	"github.com/shopspring/decimal"
)

// ComplianceService 按当前规则评估模型，并把每次评估记入账本。
type ComplianceService struct {
	rules  *repository.RulesStore
	ledger *LedgerService
}

func NewComplianceService(rules *repository.RulesStore, ledger *LedgerService) *ComplianceService {
	return &ComplianceService{rules: rules, ledger: ledger}
}

// Evaluate loads the persisted rules, runs the checks, and records one
// COMPLIANCE_EVALUATION audit entry carrying the full report.
func (s *ComplianceService) Evaluate(
	ctx context.Context,
	modelName, modelVersion string,
	performanceMetrics map[string]float64,
	biasMetrics map[string]float64,
	testResults map[string]bool,
) (*model.ComplianceReport, error) {
	rules, err := s.rules.Load(ctx)
	if err != nil {
		return nil, err
	}

	report := EvaluateAgainstRules(modelName, modelVersion, performanceMetrics, biasMetrics, testResults, rules)

	entry := &model.AuditTrailEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		EventType:    model.EventComplianceEvaluation,
		ModelName:    modelName,
		ModelVersion: modelVersion,
		User:         "system",
		Action:       "evaluate_compliance",
		Details:      toDetails(report),
		Environment:  "governance",
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	return report, nil
}

// Rules exposes the current persisted rules (model card generation).
func (s *ComplianceService) Rules(ctx context.Context) (*model.ComplianceRules, error) {
	return s.rules.Load(ctx)
}

// EvaluateAgainstRules 纯函数：规则固定时评估结果完全确定。
//
// 检查顺序固定：准确率 → 偏差 → 逐个 required_test。
// 全部 PASS 才 COMPLIANT；任何一个 FAIL 即 NON_COMPLIANT，评估后
// 不存在 PENDING。阈值比较用 decimal，边界值 (恰好等于门槛) 必须 PASS。
func EvaluateAgainstRules(
	modelName, modelVersion string,
	performanceMetrics map[string]float64,
	biasMetrics map[string]float64,
	testResults map[string]bool,
	rules *model.ComplianceRules,
) *model.ComplianceReport {
	report := &model.ComplianceReport{
		ModelName:           modelName,
		ModelVersion:        modelVersion,
		EvaluationTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
		OverallStatus:       model.CompliancePending,
	}

	allPassed := true

	// 1. Accuracy check. 缺失的 accuracy 按 0.0 处理 → 必然 FAIL。
	minAccuracy := rules.MinimumAccuracy
	accuracy := performanceMetrics["accuracy"]
	accuracyStatus := model.CheckFail
	if decimal.NewFromFloat(accuracy).GreaterThanOrEqual(decimal.NewFromFloat(minAccuracy)) {
		accuracyStatus = model.CheckPass
	}
	report.Checks = append(report.Checks, model.ComplianceCheck{
		CheckName: "minimum_accuracy",
		Required:  minAccuracy,
		Actual:    accuracy,
		Status:    accuracyStatus,
		Details:   fmt.Sprintf("Model accuracy must be >= %g", minAccuracy),
	})

	// 2. Bias check. 缺失的 max_bias_ratio 按 0.0 处理，等于白给 PASS。
	// 这是源系统的宽松默认值，有意保留 (见 DESIGN.md open questions)。
	maxBias := rules.MaximumBiasRatio
	biasRatio := biasMetrics["max_bias_ratio"]
	biasStatus := model.CheckFail
	if decimal.NewFromFloat(biasRatio).LessThanOrEqual(decimal.NewFromFloat(maxBias)) {
		biasStatus = model.CheckPass
	}
	report.Checks = append(report.Checks, model.ComplianceCheck{
		CheckName: "bias_assessment",
		Required:  fmt.Sprintf("<= %g", maxBias),
		Actual:    biasRatio,
		Status:    biasStatus,
		Details:   fmt.Sprintf("Maximum bias ratio must be <= %g", maxBias),
	})

	// 3. Required tests. 这里与偏差检查刻意不对称：缺失即 FAIL。
	for _, testName := range rules.RequiredTests {
		passed := testResults[testName]
		status := model.CheckFail
		if passed {
			status = model.CheckPass
		}
		report.Checks = append(report.Checks, model.ComplianceCheck{
			CheckName: "required_test_" + testName,
			Required:  true,
			Actual:    passed,
			Status:    status,
			Details:   fmt.Sprintf("Required test '%s' must pass", testName),
		})
	}

	for _, check := range report.Checks {
		metrics.ComplianceChecksTotal.WithLabelValues(check.CheckName, check.Status).Inc()
		if check.Status == model.CheckFail {
			allPassed = false
		}
	}

	if allPassed {
		report.OverallStatus = model.ComplianceCompliant
	} else {
		report.OverallStatus = model.ComplianceNonCompliant
	}
	return report
}

// toDetails 把结构化负载转成账本的 map 形式
func toDetails(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
