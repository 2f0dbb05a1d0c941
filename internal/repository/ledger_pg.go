package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresLedgerMirror 把账本镜像进 Postgres，服务仪表盘查询。
// 权威存储始终是 NDJSON 文件；这里的写入是 best-effort。
type PostgresLedgerMirror struct {
	db *sqlx.DB
}

func NewPostgresLedgerMirror(db *sqlx.DB) *PostgresLedgerMirror {
	repo := &PostgresLedgerMirror{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresLedgerMirror) Insert(ctx context.Context, entry *model.AuditTrailEntry) error {
	if entry == nil {
		return nil
	}
	detailsJSON, _ := json.Marshal(entry.Details)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			ts, event_type, model_name, model_version,
			usr, action, details, environment, ip_address, user_agent
		) VALUES (
			$1,$2,$3,$4,
			$5,$6,$7,$8,$9,$10
		)
	`, entry.Timestamp, entry.EventType, entry.ModelName, entry.ModelVersion,
		entry.User, entry.Action, detailsJSON, entry.Environment,
		entry.IPAddress, entry.UserAgent)
	return err
}

func (r *PostgresLedgerMirror) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id BIGSERIAL PRIMARY KEY,
			ts TEXT,
			event_type TEXT,
			model_name TEXT,
			model_version TEXT,
			usr TEXT,
			action TEXT,
			details JSONB,
			environment TEXT,
			ip_address TEXT,
			user_agent TEXT
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_audit_entries_model ON audit_entries(model_name, model_version, ts)`)
	return nil
}

// Cleanup enforces the advisory retention policy on the mirror only.
// 权威 NDJSON 账本永不删除条目。
func (r *PostgresLedgerMirror) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE ts < $1 AND ts <> ''`, cutoff)
	return err
}
