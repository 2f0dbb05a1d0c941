package model

// Audit event types. 自由标签：历史账本里可能出现这里没有列出的值，
// 读取端必须原样保留未知的 event_type。
const (
	EventModelRegistration    = "MODEL_REGISTRATION"
	EventComplianceEvaluation = "COMPLIANCE_EVALUATION"
	EventModelApproval        = "MODEL_APPROVAL"
	EventBiasAssessment       = "BIAS_ASSESSMENT"
)

// AuditTrailEntry 是账本里一条不可变的事实记录。
// 写入后永不修改、永不删除；物理顺序即追加顺序，逻辑排序按 timestamp。
type AuditTrailEntry struct {
	Timestamp    string `json:"timestamp"` // ISO-8601, UTC
	EventType    string `json:"event_type"`
	ModelName    string `json:"model_name"`
	ModelVersion string `json:"model_version"`
	User         string `json:"user"`
	Action       string `json:"action"`

	// Details 是事件相关的结构化负载，形状随 event_type 而变：
	// MODEL_REGISTRATION 带完整 metadata 快照，COMPLIANCE_EVALUATION 带整份报告，
	// MODEL_APPROVAL 带审批备注。历史负载不做静态建模，按原样透传。
	Details map[string]interface{} `json:"details"`

	Environment string `json:"environment"`
	IPAddress   string `json:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}
