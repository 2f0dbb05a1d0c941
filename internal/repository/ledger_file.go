package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/gofrs/flock"
)

// FileLedger 是审计账本的权威存储：newline-delimited JSON，每行一条
// AuditTrailEntry，只追加。跨进程的并发写入 (两条流水线同时收尾) 用
// 文件锁串行化，保证读者永远看不到写了一半的记录。
type FileLedger struct {
	path     string
	lockPath string
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Append durably persists one entry. 锁的作用域收紧到
// "open → append one complete record → flush → close"。
// I/O 错误向上传播，绝不静默吞掉。
func (l *FileLedger) Append(ctx context.Context, entry *model.AuditTrailEntry) error {
	if entry == nil {
		return apperrors.NewInvalidRequest("nil audit entry")
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return apperrors.New(apperrors.ErrMalformedData, "failed to encode audit entry", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return apperrors.NewStorage("failed to create ledger directory", err)
	}

	lock := flock.New(l.lockPath)
	if err := lock.Lock(); err != nil {
		return apperrors.NewStorage("failed to acquire ledger lock", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.NewStorage("failed to open audit ledger", err)
	}

	if _, err := f.Write(append(payload, '\n')); err != nil {
		f.Close()
		return apperrors.NewStorage("failed to append audit entry", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return apperrors.NewStorage("failed to flush audit ledger", err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorage("failed to close audit ledger", err)
	}
	return nil
}

// Query returns all entries for modelName (and version, when non-empty),
// ascending by timestamp. 缺失/畸形的 timestamp 当空串参与排序，记录本身
// 保留；排序是稳定的，所以同一时间戳保持追加顺序。
func (l *FileLedger) Query(ctx context.Context, modelName, version string) ([]model.AuditTrailEntry, error) {
	entries, err := l.scan(ctx, func(e *model.AuditTrailEntry) bool {
		if e.ModelName != modelName {
			return false
		}
		return version == "" || e.ModelVersion == version
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	return entries, nil
}

// All returns every entry in physical append order (dashboard consumption).
func (l *FileLedger) All(ctx context.Context) ([]model.AuditTrailEntry, error) {
	return l.scan(ctx, func(*model.AuditTrailEntry) bool { return true })
}

// scan 读整个账本。账本缺失按空结果处理；畸形行跳过不致整读失败
// (partial results over total failure)，只汇总告警一次。
func (l *FileLedger) scan(ctx context.Context, keep func(*model.AuditTrailEntry) bool) ([]model.AuditTrailEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Audit ledger not found", "path", l.path)
			return nil, nil
		}
		return nil, apperrors.NewStorage("failed to open audit ledger", err)
	}
	defer f.Close()

	var entries []model.AuditTrailEntry
	malformed := 0

	scanner := bufio.NewScanner(f)
	// 注册事件带完整 metadata 快照，单行可能远超默认的 64KiB
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry model.AuditTrailEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			malformed++
			continue
		}
		if keep(&entry) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewStorage("failed to read audit ledger", err)
	}
	if malformed > 0 {
		logger.Warn("Skipped malformed audit lines", "path", l.path, "count", malformed)
	}
	return entries, nil
}
