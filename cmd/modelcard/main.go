// Command modelcard renders the Markdown model card for one registered
// version and prints its path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/AquaMLOps/govgate/internal/config"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/repository"
	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/AquaMLOps/govgate/internal/tracking"
)

func main() {
	var (
		modelName = flag.String("model-name", "", "registered model name (required)")
		version   = flag.String("version", "", "model version (required)")
		stdout    = flag.Bool("stdout", false, "also print the rendered card")
	)
	flag.Parse()

	logger.Init("warn")

	if *modelName == "" || *version == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ledgerSvc := service.NewLedgerService(repository.NewFileLedger(cfg.Governance.AuditLogPath))
	complianceSvc := service.NewComplianceService(repository.NewRulesStore(cfg.Governance.RulesPath), ledgerSvc)
	registrySvc := service.NewRegistryService(
		repository.NewFileRegistry(cfg.Governance.RegistryDir),
		ledgerSvc,
		tracking.NewFileStore(cfg.Tracking.MLRunsDir),
	)
	cardSvc := service.NewModelCardService(registrySvc, complianceSvc, cfg.Governance.CardsDir)

	path, content, err := cardSvc.Generate(context.Background(), *modelName, *version)
	if err != nil {
		log.Fatalf("Failed to generate model card: %v", err)
	}

	fmt.Println(path)
	if *stdout {
		fmt.Println(content)
	}
}
