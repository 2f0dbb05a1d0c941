// Command approve runs the release gate for one registered model version:
// performance thresholds, compliance rules and an optional bias
// re-assessment over a scored test set. Exits non-zero on rejection so
// CI pipelines can fail the deploy step.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AquaMLOps/govgate/internal/config"
	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/repository"
	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/AquaMLOps/govgate/internal/tracking"
)

func main() {
	var (
		modelName    = flag.String("model-name", "", "registered model name (required)")
		version      = flag.String("version", "", "model version (required)")
		approver     = flag.String("approver", "", "who signs off (required)")
		reason       = flag.String("reason", "", "approval note recorded in the audit trail")
		minAccuracy  = flag.Float64("min-accuracy", 0.75, "minimum accuracy")
		minPrecision = flag.Float64("min-precision", 0.70, "minimum precision")
		minRecall    = flag.Float64("min-recall", 0.70, "minimum recall")
		testData     = flag.String("test-data", "", "scored test set CSV for bias re-assessment (optional)")
		prediction   = flag.String("prediction-column", "prediction", "prediction column in the test set")
		target       = flag.String("target-column", "Potability", "ground-truth column in the test set")
		protected    = flag.String("protected-columns", "ph,Hardness", "comma-separated columns bucketed for bias checks")
		testResults  = flag.String("test-results", "", `JSON map of test outcomes, e.g. {"unit_tests":true,"integration_tests":true,"bias_tests":true}`)
		logLevel     = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger.Init(*logLevel)

	if *modelName == "" || *version == "" || *approver == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	results := map[string]bool{}
	if *testResults != "" {
		if err := json.Unmarshal([]byte(*testResults), &results); err != nil {
			log.Fatalf("Invalid --test-results JSON: %v", err)
		}
	}

	var protectedCols []string
	for _, c := range strings.Split(*protected, ",") {
		if c = strings.TrimSpace(c); c != "" {
			protectedCols = append(protectedCols, c)
		}
	}

	ledgerSvc := service.NewLedgerService(repository.NewFileLedger(cfg.Governance.AuditLogPath))
	complianceSvc := service.NewComplianceService(repository.NewRulesStore(cfg.Governance.RulesPath), ledgerSvc)
	registrySvc := service.NewRegistryService(
		repository.NewFileRegistry(cfg.Governance.RegistryDir),
		ledgerSvc,
		tracking.NewFileStore(cfg.Tracking.MLRunsDir),
	)
	approvalSvc := service.NewApprovalService(registrySvc, complianceSvc, service.NewBiasEngine(), ledgerSvc, cfg.Governance.ReportsDir)

	report, err := approvalSvc.Run(context.Background(), service.ApprovalRequest{
		ModelName: *modelName,
		Version:   *version,
		Approver:  *approver,
		Reason:    *reason,
		Thresholds: model.PerformanceThresholds{
			MinAccuracy:  *minAccuracy,
			MinPrecision: *minPrecision,
			MinRecall:    *minRecall,
		},
		TestResults:      results,
		TestDataPath:     *testData,
		PredictionColumn: *prediction,
		TargetColumn:     *target,
		ProtectedColumns: protectedCols,
	})
	if err != nil {
		log.Fatalf("Approval workflow failed: %v", err)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if report.ApprovalStatus != model.ApprovalApproved {
		fmt.Fprintf(os.Stderr, "\n❌ Model %s v%s was REJECTED\n", *modelName, *version)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n✅ Model %s v%s APPROVED by %s\n", *modelName, *version, *approver)
}
