package model

// DashboardStatistics 仪表盘头部统计
type DashboardStatistics struct {
	TotalModels    int     `json:"total_models"`
	AuditEntries   int     `json:"audit_entries"`
	ComplianceRate float64 `json:"compliance_rate"`
	AvgAccuracy    float64 `json:"avg_accuracy"`
}

// TrackedRun is the cross-referenced experiment-tracking run (best effort;
// zero value when no tracking store is present).
type TrackedRun struct {
	RunID     string             `json:"run_id,omitempty"`
	Info      map[string]any     `json:"info"`
	Params    map[string]string  `json:"params"`
	Metrics   map[string]float64 `json:"metrics"`
	StartTime int64              `json:"start_time,omitempty"`
}

// RegisteredVersion 跟踪系统侧登记的模型版本 (mlruns/models 布局)
type RegisteredVersion struct {
	Name     string         `json:"name"`
	Version  string         `json:"version"`
	Metadata map[string]any `json:"metadata"`
}

// DashboardData 聚合快照，直接渲染给静态仪表盘前端
type DashboardData struct {
	Timestamp       string                        `json:"timestamp"`
	Statistics      DashboardStatistics           `json:"statistics"`
	Metrics         map[string]map[string]float64 `json:"metrics"` // "train" / "test" / "tracking"
	TrackedRun      TrackedRun                    `json:"mlflow_run"`
	TrackedVersions []RegisteredVersion           `json:"registered_model_versions"`
	Models          []*ModelMetadata              `json:"models"`
	AuditTrail      []AuditTrailEntry             `json:"audit_trail"` // last 20, append order
}

// RegisterRequest 注册接口的请求体
type RegisterRequest struct {
	Metadata ModelMetadata `json:"metadata" binding:"required"`
}

// ApproveRequest 审批接口的请求体。阈值缺省对齐审批脚本的默认值
// (accuracy 0.75, precision 0.70, recall 0.70)。
type ApproveRequest struct {
	Approver     string          `json:"approver" binding:"required"`
	Notes        string          `json:"notes"`
	MinAccuracy  *float64        `json:"min_accuracy"`
	MinPrecision *float64        `json:"min_precision"`
	MinRecall    *float64        `json:"min_recall"`
	TestResults  map[string]bool `json:"test_results"`
}
