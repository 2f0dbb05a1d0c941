package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
)

// ModelCardService renders a registry record into a human-readable Markdown
// document. 纯读操作：不改任何状态，也不记审计条目。
type ModelCardService struct {
	registry   *RegistryService
	compliance *ComplianceService
	cardsDir   string
}

func NewModelCardService(registry *RegistryService, compliance *ComplianceService, cardsDir string) *ModelCardService {
	return &ModelCardService{registry: registry, compliance: compliance, cardsDir: cardsDir}
}

const modelCardTemplate = `# Model Card: {{.Meta.ModelName}} v{{.Meta.Version}}

## Model Details
- **Model Name**: {{.Meta.ModelName}}
- **Version**: {{.Meta.Version}}
- **Created By**: {{orUnknown .Meta.CreatedBy}}
- **Created At**: {{orUnknown .Meta.CreatedAt}}
- **Model Type**: {{orUnknown .Meta.ModelType}}
- **Framework**: {{orUnknown .Meta.Framework}}
- **Git Commit**: {{orUnknown .Meta.CommitHash}}

## Intended Use
This model predicts water potability based on water quality parameters. It is intended for:
- Water quality assessment applications
- Environmental monitoring systems
- Public health decision support

## Training Data
- **Dataset**: Water Quality Dataset
- **Size**: {{.TrainingSize}} samples
- **Features**: {{len .Meta.DataSchema.Features}} features
- **Target**: Binary classification (potable/non-potable)

## Performance Metrics
{{range .Metrics}}- **{{.Name}}**: {{printf "%.4f" .Value}}
{{end}}
## Bias Assessment
- **Bias Assessment Level**: {{.BiasLevel}}
- **Max Bias Ratio**: {{.BiasRatio}}

## Compliance Status
- **Overall Status**: {{orUnknown .Meta.ComplianceStatus}}
- **Approval Status**: {{orPending .Meta.ApprovalStatus}}

## Limitations and Risks
- Model performance may vary on data from different water sources
- Regular retraining recommended as water quality standards evolve
- Should not be used as sole decision criterion for critical water safety decisions

## Governance Information
- **Environment**: {{orUnknown .Meta.Environment}}
- **Retention Policy**: {{.RetentionDays}} days
- **Last Updated**: {{.Now}}
`

type metricLine struct {
	Name  string
	Value float64
}

type cardData struct {
	Meta          *model.ModelMetadata
	TrainingSize  string
	Metrics       []metricLine
	BiasLevel     string
	BiasRatio     string
	RetentionDays int
	Now           string
}

// Generate renders and writes the card, returning its path and content.
// 写入走临时文件 + rename：任何失败都不会留下半截文档。
func (s *ModelCardService) Generate(ctx context.Context, name, version string) (string, string, error) {
	md, err := s.registry.Get(ctx, name, version)
	if err != nil {
		return "", "", err
	}
	rules, err := s.compliance.Rules(ctx)
	if err != nil {
		return "", "", err
	}

	data := cardData{
		Meta:          md,
		TrainingSize:  trainingSize(md),
		Metrics:       sortedMetrics(md.PerformanceMetrics),
		BiasLevel:     "Not Assessed",
		BiasRatio:     "N/A",
		RetentionDays: rules.RetentionPolicyDays,
		Now:           time.Now().UTC().Format(time.RFC3339Nano),
	}
	if md.BiasAssessment != nil && md.BiasAssessment.BiasAssessment != "" {
		data.BiasLevel = md.BiasAssessment.BiasAssessment
		data.BiasRatio = fmt.Sprintf("%g", md.BiasAssessment.MaxBiasRatio)
	}

	tmpl := template.Must(template.New("card").Funcs(template.FuncMap{
		"orUnknown": func(v string) string {
			if v == "" {
				return "Unknown"
			}
			return v
		},
		"orPending": func(v string) string {
			if v == "" {
				return "Pending"
			}
			return v
		},
	}).Parse(modelCardTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", apperrors.New(apperrors.ErrInternal, "failed to render model card", err)
	}

	if err := os.MkdirAll(s.cardsDir, 0o755); err != nil {
		return "", "", apperrors.NewStorage("failed to create cards directory", err)
	}
	cardPath := filepath.Join(s.cardsDir, fmt.Sprintf("%s-%s-card.md", name, version))
	if err := writeFileAtomic(cardPath, buf.Bytes()); err != nil {
		return "", "", err
	}

	logger.Info("Model card generated", "path", cardPath)
	return cardPath, buf.String(), nil
}

// trainingSize digs the sample count out of the free-form training info.
func trainingSize(md *model.ModelMetadata) string {
	if md.TrainingDataInfo != nil {
		if v, ok := md.TrainingDataInfo["size"]; ok {
			return fmt.Sprintf("%v", v)
		}
	}
	return "Unknown"
}

// sortedMetrics 指标按名字排序，标题化显示 (accuracy → Accuracy,
// f1_score → F1 Score)，渲染结果可复现。
func sortedMetrics(metrics map[string]float64) []metricLine {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]metricLine, 0, len(names))
	for _, name := range names {
		lines = append(lines, metricLine{Name: titleCase(name), Value: metrics[name]})
	}
	return lines
}

func titleCase(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// writeFileAtomic mirrors the registry's temp-file + rename discipline.
func writeFileAtomic(path string, payload []byte) error {
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
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorage("failed to close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorage("failed to replace model card", err)
	}
	return nil
}
