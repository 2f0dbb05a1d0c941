package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/Masterminds/semver/v3"
)

// FileRegistry 按 (model_name, version) 一份 JSON 文档持久化 ModelMetadata。
// 同 key 重复写入直接覆盖 (last write wins)；进程内用互斥锁保持
// read-modify-write 的单写者纪律，不做跨进程 CAS。
type FileRegistry struct {
	dir string
	mu  sync.Mutex
}

func NewFileRegistry(dir string) *FileRegistry {
	return &FileRegistry{dir: dir}
}

func (r *FileRegistry) docPath(name, version string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s-%s.json", name, version))
}

// Save persists the full metadata document, overwriting any prior record.
// 先写临时文件再 rename，读者不会看到半截文档。
func (r *FileRegistry) Save(ctx context.Context, md *model.ModelMetadata) error {
	if md == nil || md.ModelName == "" || md.Version == "" {
		return apperrors.NewInvalidRequest("model_name and version are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return apperrors.NewStorage("failed to create registry directory", err)
	}
	payload, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return apperrors.New(apperrors.ErrMalformedData, "failed to encode metadata", err)
	}
	return atomicWrite(r.docPath(md.ModelName, md.Version), payload)
}

// Get loads one record. Not-found 是正常分支，与 I/O 失败严格区分。
func (r *FileRegistry) Get(ctx context.Context, name, version string) (*model.ModelMetadata, error) {
	raw, err := os.ReadFile(r.docPath(name, version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("model %s:%s not registered", name, version))
		}
		return nil, apperrors.NewStorage("failed to read metadata", err)
	}
	var md model.ModelMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, apperrors.New(apperrors.ErrMalformedData, "failed to decode metadata", err)
	}
	return &md, nil
}

// List returns all registered records, grouped by name and ordered by
// version (semver-aware, falling back to lexical for non-semver versions).
func (r *FileRegistry) List(ctx context.Context) ([]*model.ModelMetadata, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewStorage("failed to read registry directory", err)
	}

	var records []*model.ModelMetadata
	for _, de := range dirEntries {
		name := de.Name()
		// 跳过同目录下生成的 model card 等非元数据文件
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			continue
		}
		var md model.ModelMetadata
		if err := json.Unmarshal(raw, &md); err != nil || md.ModelName == "" {
			continue
		}
		records = append(records, &md)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ModelName != records[j].ModelName {
			return records[i].ModelName < records[j].ModelName
		}
		return versionLess(records[i].Version, records[j].Version)
	})
	return records, nil
}

func versionLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.LessThan(vb)
	}
	return a < b
}

// atomicWrite writes payload via a temp file + rename in the same directory.
func atomicWrite(path string, payload []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.NewStorage("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorage("failed to write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorage("failed to flush temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorage("failed to close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorage("failed to replace document", err)
	}
	return nil
}
