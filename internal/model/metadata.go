package model

// Compliance / approval states for a registered model.
const (
	CompliancePending      = "PENDING"
	ComplianceCompliant    = "COMPLIANT"
	ComplianceNonCompliant = "NON_COMPLIANT"

	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	// ApprovalRejected only appears in generated rejection reports.
	// 注册表里持久化的记录永远不会是 REJECTED (没有 reject 状态迁移)。
	ApprovalRejected = "REJECTED"
)

// DataSchema 描述模型输入与目标列
type DataSchema struct {
	Features     []string          `json:"features"`
	FeatureTypes map[string]string `json:"feature_types,omitempty"`
	Target       string            `json:"target"`
}

// ModelMetadata 是治理跟踪的核心记录，按 (model_name, version) 唯一。
// 重复注册同一对 key 时直接覆盖 (last write wins)，不报错。
type ModelMetadata struct {
	ModelName   string `json:"model_name"`
	Version     string `json:"version"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"` // ISO-8601, UTC
	CommitHash  string `json:"commit_hash"`
	Branch      string `json:"branch"`
	Environment string `json:"environment"`

	ModelType       string                 `json:"model_type"` // e.g. RandomForest, XGBoost
	Framework       string                 `json:"framework"`
	Hyperparameters map[string]interface{} `json:"hyperparameters"`
	Dependencies    []string               `json:"dependencies"`

	DataSchema       DataSchema             `json:"data_schema"`
	TrainingDataInfo map[string]interface{} `json:"training_data_info"`

	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
	BiasAssessment     *BiasReport        `json:"bias_assessment,omitempty"`

	ComplianceStatus string `json:"compliance_status"`
	ApprovalStatus   string `json:"approval_status"`
	ApprovedBy       string `json:"approved_by,omitempty"`
	ApprovedAt       string `json:"approved_at,omitempty"`
}

// Key returns the canonical identity of the record.
func (m *ModelMetadata) Key() string {
	return m.ModelName + "-" + m.Version
}
