package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/repository"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func defaultRules() *model.ComplianceRules {
	return model.DefaultComplianceRules()
}

func allTestsPassing() map[string]bool {
	return map[string]bool{
		"unit_tests":        true,
		"integration_tests": true,
		"bias_tests":        true,
	}
}

func TestEvaluateCompliantModel(t *testing.T) {
	report := EvaluateAgainstRules("wq-rf", "1",
		map[string]float64{"accuracy": 0.91},
		map[string]float64{"max_bias_ratio": 0.03},
		allTestsPassing(),
		defaultRules(),
	)
	if report.OverallStatus != model.ComplianceCompliant {
		t.Fatalf("expected COMPLIANT, got %s (failed: %v)", report.OverallStatus, report.Failed())
	}
	// 检查顺序固定：准确率、偏差、然后按规则顺序的 required tests
	wantOrder := []string{
		"minimum_accuracy",
		"bias_assessment",
		"required_test_unit_tests",
		"required_test_integration_tests",
		"required_test_bias_tests",
	}
	if len(report.Checks) != len(wantOrder) {
		t.Fatalf("expected %d checks, got %d", len(wantOrder), len(report.Checks))
	}
	for i, name := range wantOrder {
		if report.Checks[i].CheckName != name {
			t.Fatalf("check %d: got %s, want %s", i, report.Checks[i].CheckName, name)
		}
	}
}

func TestEvaluateBoundaryValuesPass(t *testing.T) {
	// 恰好等于门槛必须 PASS：accuracy == minimum, bias == maximum
	report := EvaluateAgainstRules("wq-rf", "1",
		map[string]float64{"accuracy": 0.85},
		map[string]float64{"max_bias_ratio": 0.1},
		allTestsPassing(),
		defaultRules(),
	)
	if report.OverallStatus != model.ComplianceCompliant {
		t.Fatalf("boundary values must pass, got %s (failed: %v)", report.OverallStatus, report.Failed())
	}
}

func TestEvaluateMissingAccuracyFails(t *testing.T) {
	report := EvaluateAgainstRules("wq-rf", "1",
		map[string]float64{}, // no accuracy reported
		map[string]float64{"max_bias_ratio": 0.0},
		allTestsPassing(),
		defaultRules(),
	)
	if report.OverallStatus != model.ComplianceNonCompliant {
		t.Fatalf("missing accuracy must fail, got %s", report.OverallStatus)
	}
	if report.Checks[0].Status != model.CheckFail {
		t.Fatalf("accuracy check should be FAIL, got %s", report.Checks[0].Status)
	}
}

func TestEvaluateMissingBiasIsPermissive(t *testing.T) {
	// 缺失的 max_bias_ratio 按 0.0 处理 → PASS (与 required tests 刻意不对称)
	report := EvaluateAgainstRules("wq-rf", "1",
		map[string]float64{"accuracy": 0.91},
		nil,
		allTestsPassing(),
		defaultRules(),
	)
	if report.Checks[1].Status != model.CheckPass {
		t.Fatalf("absent bias metric should pass, got %s", report.Checks[1].Status)
	}
	if report.OverallStatus != model.ComplianceCompliant {
		t.Fatalf("expected COMPLIANT, got %s", report.OverallStatus)
	}
}

func TestEvaluateMissingRequiredTestFails(t *testing.T) {
	results := allTestsPassing()
	delete(results, "bias_tests")

	report := EvaluateAgainstRules("wq-rf", "1",
		map[string]float64{"accuracy": 0.91},
		map[string]float64{"max_bias_ratio": 0.0},
		results,
		defaultRules(),
	)
	if report.OverallStatus != model.ComplianceNonCompliant {
		t.Fatalf("missing required test must fail, got %s", report.OverallStatus)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0] != "required_test_bias_tests" {
		t.Fatalf("unexpected failed checks: %v", failed)
	}
}

func TestEvaluateRecordsAuditEntry(t *testing.T) {
	dir := t.TempDir()
	ledger := NewLedgerService(repository.NewFileLedger(filepath.Join(dir, "audit_trail.jsonl")))
	svc := NewComplianceService(repository.NewRulesStore(filepath.Join(dir, "compliance_rules.json")), ledger)
	ctx := context.Background()

	report, err := svc.Evaluate(ctx, "wq-rf", "1",
		map[string]float64{"accuracy": 0.91},
		map[string]float64{"max_bias_ratio": 0.03},
		allTestsPassing(),
	)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if report.OverallStatus != model.ComplianceCompliant {
		t.Fatalf("expected COMPLIANT, got %s", report.OverallStatus)
	}

	entries, err := ledger.Query(ctx, "wq-rf", "1")
	if err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.EventType != model.EventComplianceEvaluation || e.User != "system" || e.Action != "evaluate_compliance" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
	if e.Details["overall_status"] != model.ComplianceCompliant {
		t.Fatalf("audit entry should carry the report, got details %v", e.Details)
	}
}

// Property: COMPLIANT exactly when no individual check is FAIL, and the check
// count is always 2 + len(required_tests), regardless of the inputs.
func TestEvaluateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	rules := defaultRules()

	properties.Property("compliant iff every check passes", prop.ForAll(
		func(accuracy, biasRatio float64, unit, integration, bias bool) bool {
			report := EvaluateAgainstRules("wq-rf", "1",
				map[string]float64{"accuracy": accuracy},
				map[string]float64{"max_bias_ratio": biasRatio},
				map[string]bool{
					"unit_tests":        unit,
					"integration_tests": integration,
					"bias_tests":        bias,
				},
				rules,
			)
			if len(report.Checks) != 2+len(rules.RequiredTests) {
				return false
			}
			isCompliant := report.OverallStatus == model.ComplianceCompliant
			return isCompliant == (len(report.Failed()) == 0)
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
