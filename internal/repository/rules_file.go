package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
)

// RulesStore 持久化进程级的 ComplianceRules。
// 首次访问文件不存在时写入默认规则 (load defaults, then persist)。
type RulesStore struct {
	path string
	mu   sync.Mutex
}

func NewRulesStore(path string) *RulesStore {
	return &RulesStore{path: path}
}

func (s *RulesStore) Load(ctx context.Context) (*model.ComplianceRules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			rules := model.DefaultComplianceRules()
			if err := s.save(rules); err != nil {
				return nil, err
			}
			logger.Info("Created default compliance rules", "path", s.path)
			return rules, nil
		}
		return nil, apperrors.NewStorage("failed to read compliance rules", err)
	}

	var rules model.ComplianceRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, apperrors.New(apperrors.ErrMalformedData, "failed to decode compliance rules", err)
	}
	return &rules, nil
}

// Save 把修改写回同一配置位置
func (s *RulesStore) Save(ctx context.Context, rules *model.ComplianceRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(rules)
}

func (s *RulesStore) save(rules *model.ComplianceRules) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.NewStorage("failed to create rules directory", err)
	}
	payload, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return apperrors.New(apperrors.ErrMalformedData, "failed to encode compliance rules", err)
	}
	return atomicWrite(s.path, payload)
}
