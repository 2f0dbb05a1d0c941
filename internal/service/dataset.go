package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
)

// scoredDataset 是打过分的表格测试集：标签列、预测列、若干特征列。
type scoredDataset struct {
	predictions []int
	labels      []int
	features    map[string][]float64
}

// loadScoredDataset 解析 CSV。无法解析成数字的行整行跳过
// (partial results over total failure)。
func loadScoredDataset(path, predictionCol, targetCol string, featureCols []string) (*scoredDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("test data not found at %s", path))
		}
		return nil, apperrors.NewStorage("failed to open test data", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrMalformedData, "failed to read csv header", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	predIdx, ok := colIdx[predictionCol]
	if !ok {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("prediction column %q not in dataset", predictionCol))
	}
	targetIdx, ok := colIdx[targetCol]
	if !ok {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("target column %q not in dataset", targetCol))
	}

	ds := &scoredDataset{features: make(map[string][]float64)}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// 列数不齐等单行错误只丢掉那一行，后续行照常读
			continue
		}
		pred, errP := strconv.ParseFloat(record[predIdx], 64)
		label, errL := strconv.ParseFloat(record[targetIdx], 64)
		if errP != nil || errL != nil {
			continue
		}

		rowFeatures := make(map[string]float64, len(featureCols))
		bad := false
		for _, col := range featureCols {
			idx, ok := colIdx[col]
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				bad = true
				break
			}
			rowFeatures[col] = v
		}
		if bad {
			continue
		}

		ds.predictions = append(ds.predictions, int(pred))
		ds.labels = append(ds.labels, int(label))
		for col, v := range rowFeatures {
			ds.features[col] = append(ds.features[col], v)
		}
	}

	if len(ds.predictions) == 0 {
		return nil, apperrors.New(apperrors.ErrMalformedData, "no usable rows in test data", nil)
	}
	return ds, nil
}

// bucketByMedian 把连续特征按中位数二分为 "above_median"/"below_median"。
// 这是调用方的分桶策略，偏差引擎本身只认群组标签。
func bucketByMedian(values []float64) []string {
	med := median(values)
	labels := make([]string, len(values))
	for i, v := range values {
		if v > med {
			labels[i] = "above_median"
		} else {
			labels[i] = "below_median"
		}
	}
	return labels
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func marshalIndent(v interface{}) ([]byte, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, apperrors.New(apperrors.ErrMalformedData, "failed to encode report", err)
	}
	return payload, nil
}
