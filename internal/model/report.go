package model

// ApprovalReport 每次审批决定写一份 JSON 报告，供外部审计。
// REJECTED 只存在于这里，注册表记录本身不会进入 REJECTED 状态。
type ApprovalReport struct {
	ReportID       string `json:"report_id"`
	ModelName      string `json:"model_name"`
	Version        string `json:"version"`
	ApprovalStatus string `json:"approval_status"` // APPROVED / REJECTED

	Approver       string `json:"approver,omitempty"`
	ApprovalReason string `json:"approval_reason,omitempty"`
	Timestamp      string `json:"timestamp"`

	Thresholds   PerformanceThresholds  `json:"thresholds"`
	Checks       ApprovalChecks         `json:"checks"`
	FailedChecks map[string]bool        `json:"failed_checks,omitempty"`
	Extra        map[string]interface{} `json:"extra,omitempty"`
}

// PerformanceThresholds 审批脚本入参的性能门槛 (独立于 ComplianceRules)
type PerformanceThresholds struct {
	MinAccuracy  float64 `json:"min_accuracy"`
	MinPrecision float64 `json:"min_precision"`
	MinRecall    float64 `json:"min_recall"`
}

// ApprovalChecks 审批决定的全部输入：性能、合规、偏差
type ApprovalChecks struct {
	Performance map[string]bool   `json:"performance"`
	Compliance  *ComplianceReport `json:"compliance,omitempty"`
	Bias        *BiasReport       `json:"bias,omitempty"`
}
