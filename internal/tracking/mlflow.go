// Package tracking cross-references an MLflow file store (mlruns/ layout).
// 一切都是 best-effort：目录缺席是正常情况，绝不能影响治理核心流程。
package tracking

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AquaMLOps/govgate/internal/model"
	"gopkg.in/yaml.v3"
)

const runIDLength = 32 // MLflow run IDs are 32 hex chars

type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// LatestRun scans every numeric experiment directory and returns the run
// with the greatest start_time. (nil, nil) when no run exists.
func (s *FileStore) LatestRun() (*model.TrackedRun, error) {
	expDirs, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var latest *model.TrackedRun
	for _, expDir := range expDirs {
		if !expDir.IsDir() || !isNumeric(expDir.Name()) {
			continue
		}
		runDirs, err := os.ReadDir(filepath.Join(s.root, expDir.Name()))
		if err != nil {
			continue
		}
		for _, runDir := range runDirs {
			if !runDir.IsDir() || len(runDir.Name()) != runIDLength {
				continue
			}
			runPath := filepath.Join(s.root, expDir.Name(), runDir.Name())
			info, err := readMeta(filepath.Join(runPath, "meta.yaml"))
			if err != nil {
				continue
			}
			startTime := asInt64(info["start_time"])
			if latest != nil && startTime <= latest.StartTime {
				continue
			}
			latest = &model.TrackedRun{
				RunID:     runDir.Name(),
				Info:      info,
				Params:    readParams(runPath),
				Metrics:   readMetrics(runPath),
				StartTime: startTime,
			}
		}
	}
	return latest, nil
}

// RegisteredVersions lists model versions under mlruns/models/.
func (s *FileStore) RegisteredVersions() ([]model.RegisteredVersion, error) {
	modelsDir := filepath.Join(s.root, "models")
	modelDirs, err := os.ReadDir(modelsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var versions []model.RegisteredVersion
	for _, modelDir := range modelDirs {
		if !modelDir.IsDir() {
			continue
		}
		versionDirs, err := os.ReadDir(filepath.Join(modelsDir, modelDir.Name()))
		if err != nil {
			continue
		}
		for _, versionDir := range versionDirs {
			if !versionDir.IsDir() || !strings.HasPrefix(versionDir.Name(), "version-") {
				continue
			}
			meta, err := readMeta(filepath.Join(modelsDir, modelDir.Name(), versionDir.Name(), "meta.yaml"))
			if err != nil {
				continue
			}
			versions = append(versions, model.RegisteredVersion{
				Name:     modelDir.Name(),
				Version:  strings.TrimPrefix(versionDir.Name(), "version-"),
				Metadata: meta,
			})
		}
	}
	return versions, nil
}

// WriteGovernanceTags writes one tag file per entry under the version's
// tags/ directory. 版本不在跟踪系统里登记过就直接报错，调用方降级成告警。
func (s *FileStore) WriteGovernanceTags(modelName, version string, tags map[string]string) error {
	versionDir := filepath.Join(s.root, "models", modelName, "version-"+version)
	if _, err := os.Stat(versionDir); err != nil {
		return fmt.Errorf("model version not tracked: %s v%s", modelName, version)
	}
	tagsDir := filepath.Join(versionDir, "tags")
	if err := os.MkdirAll(tagsDir, 0o755); err != nil {
		return err
	}
	for key, value := range tags {
		if err := os.WriteFile(filepath.Join(tagsDir, key), []byte(value), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func readMeta(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// readMetrics 解析 MLflow 指标文件格式：每行 "timestamp value [step]"，
// 取首行的 value (对齐源系统的读法)。
func readMetrics(runPath string) map[string]float64 {
	out := map[string]float64{}
	metricsDir := filepath.Join(runPath, "metrics")
	files, err := os.ReadDir(metricsDir)
	if err != nil {
		return out
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(metricsDir, f.Name()))
		if err != nil {
			continue
		}
		line, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
			out[f.Name()] = v
		}
	}
	return out
}

func readParams(runPath string) map[string]string {
	out := map[string]string{}
	paramsDir := filepath.Join(runPath, "params")
	files, err := os.ReadDir(paramsDir)
	if err != nil {
		return out
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(paramsDir, f.Name()))
		if err != nil {
			continue
		}
		out[f.Name()] = strings.TrimSpace(string(raw))
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}
