package model

// Tri-level verdicts derived from the aggregate max bias ratio.
const (
	BiasLow      = "LOW"      // max_bias_ratio < 0.05
	BiasModerate = "MODERATE" // < 0.10
	BiasHigh     = "HIGH"
)

// GroupMetrics 单个群组的表现
type GroupMetrics struct {
	Accuracy               float64 `json:"accuracy"`
	Count                  int     `json:"count"`
	PositivePredictionRate float64 `json:"positive_prediction_rate"`
}

// AttributeBias 单个受保护属性的评估结果。
// BiasRatio = 群组最高准确率 − 群组最低准确率；不足两个非空群组时为 0。
type AttributeBias struct {
	GroupMetrics    map[string]GroupMetrics `json:"group_metrics"`
	BiasRatio       float64                 `json:"bias_ratio"`
	OverallAccuracy float64                 `json:"overall_accuracy"`
}

// BiasReport is the output of one bias assessment.
//
// 这是一个 statistical-parity 风格的粗粒度公平性代理指标：
// 不做校准分析，属性之间独立评估、从不做交叉 (intersectional) 组合。
type BiasReport struct {
	AssessmentTimestamp string                   `json:"assessment_timestamp"`
	ProtectedAttributes []string                 `json:"protected_attributes"`
	BiasMetrics         map[string]AttributeBias `json:"bias_metrics"`
	Recommendations     []string                 `json:"recommendations"`
	MaxBiasRatio        float64                  `json:"max_bias_ratio"`
	BiasAssessment      string                   `json:"bias_assessment"`
}
