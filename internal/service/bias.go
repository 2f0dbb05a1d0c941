package service

import (
	"fmt"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
)

// BiasEngine computes per-group fairness metrics over binary predictions.
//
// 这是 statistical-parity 风格的粗代理：bias_ratio = 群组最高准确率 −
// 群组最低准确率。不做校准分析；属性各自独立评估，从不交叉组合。
// 把连续特征怎么分桶 (例如按中位数二分) 是调用方的事，引擎只认群组标签。
type BiasEngine struct{}

func NewBiasEngine() *BiasEngine {
	return &BiasEngine{}
}

// 推荐文案触发线固定 5%，与规则里可配置的 maximum_bias_ratio 无关：
// 5% 触发咨询性建议，配置阈值才决定合规 PASS/FAIL (两级阈值设计)。
const recommendationThreshold = 0.05

// Assess partitions the population by each protected attribute and computes
// group accuracy, size, positive-prediction rate and the attribute bias ratio.
//
// predictions / groundTruth 是同一人群上的平行 0/1 序列；
// groups[attr] 是等长的群组标签序列，attributeNames 决定评估顺序。
func (e *BiasEngine) Assess(
	predictions []int,
	groundTruth []int,
	groups map[string][]string,
	attributeNames []string,
) (*model.BiasReport, error) {
	n := len(predictions)
	if len(groundTruth) != n {
		return nil, apperrors.NewInvalidRequest(
			fmt.Sprintf("predictions (%d) and ground truth (%d) must be the same length", n, len(groundTruth)))
	}
	for _, attr := range attributeNames {
		if vals, ok := groups[attr]; ok && len(vals) != n {
			return nil, apperrors.NewInvalidRequest(
				fmt.Sprintf("attribute %q has %d values for a population of %d", attr, len(vals), n))
		}
	}

	report := &model.BiasReport{
		AssessmentTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ProtectedAttributes: attributeNames,
		BiasMetrics:         make(map[string]model.AttributeBias),
		Recommendations:     []string{},
	}

	overallAccuracy := 0.0
	if n > 0 {
		matches := 0
		for i := range predictions {
			if predictions[i] == groundTruth[i] {
				matches++
			}
		}
		overallAccuracy = float64(matches) / float64(n)
	}

	maxRatio := 0.0
	sawAttribute := false

	for _, attr := range attributeNames {
		values, ok := groups[attr]
		if !ok {
			// 人群里没有这个属性的标签，跳过 (对齐源系统对缺失列的处理)
			continue
		}
		sawAttribute = true

		groupMetrics := make(map[string]model.GroupMetrics)
		for _, label := range distinct(values) {
			count, correct, positive := 0, 0, 0
			for i, v := range values {
				if v != label {
					continue
				}
				count++
				if predictions[i] == groundTruth[i] {
					correct++
				}
				if predictions[i] == 1 {
					positive++
				}
			}
			if count == 0 {
				continue
			}
			groupMetrics[label] = model.GroupMetrics{
				Accuracy:               float64(correct) / float64(count),
				Count:                  count,
				PositivePredictionRate: float64(positive) / float64(count),
			}
		}

		// 单个群组谈不上偏差：不足两个非空群组时 ratio 恒为 0
		ratio := 0.0
		if len(groupMetrics) > 1 {
			first := true
			var lo, hi float64
			for _, gm := range groupMetrics {
				if first {
					lo, hi = gm.Accuracy, gm.Accuracy
					first = false
					continue
				}
				if gm.Accuracy < lo {
					lo = gm.Accuracy
				}
				if gm.Accuracy > hi {
					hi = gm.Accuracy
				}
			}
			ratio = hi - lo
		}

		report.BiasMetrics[attr] = model.AttributeBias{
			GroupMetrics:    groupMetrics,
			BiasRatio:       ratio,
			OverallAccuracy: overallAccuracy,
		}
		if ratio > maxRatio {
			maxRatio = ratio
		}
		if ratio > recommendationThreshold {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("High bias detected for %s (ratio: %.3f). Consider data augmentation or bias mitigation techniques.", attr, ratio))
		}
	}

	if !sawAttribute {
		maxRatio = 0.0
	}
	report.MaxBiasRatio = maxRatio
	switch {
	case maxRatio < 0.05:
		report.BiasAssessment = model.BiasLow
	case maxRatio < 0.10:
		report.BiasAssessment = model.BiasModerate
	default:
		report.BiasAssessment = model.BiasHigh
	}
	return report, nil
}

// distinct preserves first-seen order so group iteration is deterministic.
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
