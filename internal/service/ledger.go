package service

import (
	"context"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/pkg/metrics"
	"github.com/AquaMLOps/govgate/internal/repository"
)

// LedgerMirror 是账本的 best-effort 副本 (Postgres / Redis)
type LedgerMirror interface {
	Insert(ctx context.Context, entry *model.AuditTrailEntry) error
}

// EventPublisher 把新事件推给实时订阅者 (仪表盘 websocket)
type EventPublisher interface {
	Publish(entry *model.AuditTrailEntry)
}

// RecentSource 是最近事件的快速只读来源 (Redis 定长 list)。
// 失败时退回扫描权威文件。
type RecentSource interface {
	Recent(ctx context.Context, limit int) ([]model.AuditTrailEntry, error)
}

type namedMirror struct {
	name   string
	mirror LedgerMirror
}

// LedgerService 是审计账本的唯一写入口。
// NDJSON 文件是权威存储：文件写失败即整个 Append 失败；
// 镜像和推送失败只记日志，不影响调用方。
type LedgerService struct {
	file      *repository.FileLedger
	mirrors   []namedMirror
	publisher EventPublisher
	recent    RecentSource
}

func NewLedgerService(file *repository.FileLedger) *LedgerService {
	return &LedgerService{file: file}
}

func (s *LedgerService) AddMirror(name string, m LedgerMirror) {
	if m == nil {
		return
	}
	s.mirrors = append(s.mirrors, namedMirror{name: name, mirror: m})
}

func (s *LedgerService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

func (s *LedgerService) SetRecentSource(r RecentSource) {
	s.recent = r
}

// Append persists one audit event. 每个逻辑事件恰好一次 Append，
// 由调用方在状态变更成功之后调用 (见 DESIGN.md 的 crash-gap 说明)。
func (s *LedgerService) Append(ctx context.Context, entry *model.AuditTrailEntry) error {
	if entry != nil && entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if err := s.file.Append(ctx, entry); err != nil {
		return err
	}
	metrics.AuditEventsTotal.WithLabelValues(entry.EventType).Inc()
	logger.Info("Audit event logged",
		"event_type", entry.EventType,
		"model", entry.ModelName+":"+entry.ModelVersion)

	for _, nm := range s.mirrors {
		if err := nm.mirror.Insert(ctx, entry); err != nil {
			metrics.MirrorFailures.WithLabelValues(nm.name).Inc()
			logger.Warn("Ledger mirror write failed", "mirror", nm.name, "error", err)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(entry)
	}
	return nil
}

// Query returns the trail of one model, ascending by timestamp.
func (s *LedgerService) Query(ctx context.Context, modelName, version string) ([]model.AuditTrailEntry, error) {
	return s.file.Query(ctx, modelName, version)
}

// All returns every entry in append order.
func (s *LedgerService) All(ctx context.Context) ([]model.AuditTrailEntry, error) {
	return s.file.All(ctx)
}

// Recent returns the last n entries in append order (dashboard tail).
func (s *LedgerService) Recent(ctx context.Context, n int) ([]model.AuditTrailEntry, error) {
	if s.recent != nil {
		if entries, err := s.recent.Recent(ctx, n); err == nil && len(entries) > 0 {
			return entries, nil
		}
	}
	entries, err := s.file.All(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
