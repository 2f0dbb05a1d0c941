package service

import (
	"context"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/pkg/metrics"
	"github.com/AquaMLOps/govgate/internal/repository"
)

// Tracker 是实验跟踪系统 (MLflow file store) 的交叉引用接口。
// 全部 best-effort：跟踪失败绝不能挡住核心注册。
type Tracker interface {
	WriteGovernanceTags(modelName, version string, tags map[string]string) error
}

// RegistryService 管理版本化的模型元数据与审批状态机。
//
// 状态机刻意不对称：PENDING → APPROVED 走 Approve；REJECTED 只出现在
// 外部审批脚本生成的报告里，注册表没有 reject 迁移。Approve 本身不做
// 任何合规/偏差检查——机制 (状态迁移) 和策略 (阈值裁决) 分离，
// 策略在 ApprovalService。
type RegistryService struct {
	repo    *repository.FileRegistry
	ledger  *LedgerService
	tracker Tracker
}

func NewRegistryService(repo *repository.FileRegistry, ledger *LedgerService, tracker Tracker) *RegistryService {
	return &RegistryService{repo: repo, ledger: ledger, tracker: tracker}
}

// Register persists the metadata (overwrite-on-register, last write wins)
// and appends one MODEL_REGISTRATION entry with the full snapshot.
func (s *RegistryService) Register(ctx context.Context, md *model.ModelMetadata) error {
	if md.CreatedAt == "" {
		md.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if md.ComplianceStatus == "" {
		md.ComplianceStatus = model.CompliancePending
	}
	if md.ApprovalStatus == "" {
		md.ApprovalStatus = model.ApprovalPending
	}

	if err := s.repo.Save(ctx, md); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	// 状态落盘成功之后才记账。进程在两步之间崩掉会丢审计条目，
	// 这是已知且接受的缺口 (at-least-once from the caller's perspective)。
	entry := &model.AuditTrailEntry{
		EventType:    model.EventModelRegistration,
		ModelName:    md.ModelName,
		ModelVersion: md.Version,
		User:         md.CreatedBy,
		Action:       "register_model",
		Details:      map[string]interface{}{"metadata": toDetails(md)},
		Environment:  md.Environment,
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	// 可选的跟踪系统打标：缺席或失败都不影响注册结果
	if s.tracker != nil {
		tags := map[string]string{
			"governance.version":           md.Version,
			"governance.created_by":        md.CreatedBy,
			"governance.commit_hash":       md.CommitHash,
			"governance.compliance_status": md.ComplianceStatus,
			"governance.approval_status":   md.ApprovalStatus,
			"governance.environment":       md.Environment,
		}
		if err := s.tracker.WriteGovernanceTags(md.ModelName, md.Version, tags); err != nil {
			logger.Warn("Tracking registration skipped", "model", md.Key(), "error", err)
		}
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	logger.Info("Model registered", "model", md.Key())
	return nil
}

// Get returns one record; not-found is a normal, branchable outcome.
func (s *RegistryService) Get(ctx context.Context, name, version string) (*model.ModelMetadata, error) {
	return s.repo.Get(ctx, name, version)
}

// List returns all registered records (dashboard).
func (s *RegistryService) List(ctx context.Context) ([]*model.ModelMetadata, error) {
	return s.repo.List(ctx)
}

// Approve transitions an existing record to APPROVED and appends one
// MODEL_APPROVAL entry. 模型不存在时失败，且不产生任何账本条目。
func (s *RegistryService) Approve(ctx context.Context, name, version, approver, notes string) error {
	md, err := s.repo.Get(ctx, name, version)
	if err != nil {
		return err
	}

	md.ApprovalStatus = model.ApprovalApproved
	md.ApprovedBy = approver
	md.ApprovedAt = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.repo.Save(ctx, md); err != nil {
		return err
	}

	entry := &model.AuditTrailEntry{
		EventType:    model.EventModelApproval,
		ModelName:    name,
		ModelVersion: version,
		User:         approver,
		Action:       "approve_model",
		Details:      map[string]interface{}{"notes": notes},
		Environment:  "governance",
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return err
	}

	logger.Info("Model approved", "model", name+":"+version, "approver", approver)
	return nil
}
