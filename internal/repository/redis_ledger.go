package repository

import (
	"context"
	"encoding/json"

	"github.com/AquaMLOps/govgate/internal/model"
)

// RedisLedgerMirror 把最近的审计事件推进一个定长 Redis list，
// 仪表盘轮询用。和 Postgres 镜像一样是 best-effort。
type RedisLedgerMirror struct {
	client  *RedisClient
	listKey string
	listMax int
}

func NewRedisLedgerMirror(client *RedisClient, listKey string, listMax int) *RedisLedgerMirror {
	if listKey == "" {
		listKey = "govgate:audit"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisLedgerMirror{
		client:  client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisLedgerMirror) Insert(ctx context.Context, entry *model.AuditTrailEntry) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := r.client.Client.Pipeline()
	pipe.LPush(ctx, r.listKey, string(payload))
	pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit entries in chronological (append) order.
// List 里是新到旧，这里翻转回来，与文件账本的尾部语义保持一致。
func (r *RedisLedgerMirror) Recent(ctx context.Context, limit int) ([]model.AuditTrailEntry, error) {
	if limit <= 0 || limit > r.listMax {
		limit = 100
	}
	items, err := r.client.Client.LRange(ctx, r.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	results := make([]model.AuditTrailEntry, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var entry model.AuditTrailEntry
		if err := json.Unmarshal([]byte(items[i]), &entry); err != nil {
			continue
		}
		results = append(results, entry)
	}
	return results, nil
}
