// Command dashboard writes the aggregated governance snapshot to a JSON
// file for the static dashboard front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/AquaMLOps/govgate/internal/config"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/repository"
	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/AquaMLOps/govgate/internal/tracking"
)

func main() {
	out := flag.String("out", "dashboard/governance_data.json", "output path for the snapshot")
	flag.Parse()

	logger.Init("warn")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ledgerSvc := service.NewLedgerService(repository.NewFileLedger(cfg.Governance.AuditLogPath))
	mlStore := tracking.NewFileStore(cfg.Tracking.MLRunsDir)
	registrySvc := service.NewRegistryService(repository.NewFileRegistry(cfg.Governance.RegistryDir), ledgerSvc, mlStore)
	dashboardSvc := service.NewDashboardService(registrySvc, ledgerSvc, mlStore, cfg.Governance.ArtifactsDir)

	if err := dashboardSvc.Save(context.Background(), *out); err != nil {
		log.Fatalf("Failed to write dashboard snapshot: %v", err)
	}
	fmt.Println(*out)
}
