package model

// Check result statuses inside a ComplianceReport.
const (
	CheckPass = "PASS"
	CheckFail = "FAIL"
)

// SecurityRequirements 安全扫描开关，作为规则的一部分持久化
type SecurityRequirements struct {
	VulnerabilityScan bool `json:"vulnerability_scan"`
	DependencyCheck   bool `json:"dependency_check"`
	SecretsScan       bool `json:"secrets_scan"`
}

// ComplianceRules is the process-wide rule configuration. Loaded from a JSON
// document; created with these defaults on first access if the file is absent.
type ComplianceRules struct {
	MinimumAccuracy       float64              `json:"minimum_accuracy"`
	MaximumBiasRatio      float64              `json:"maximum_bias_ratio"`
	RequiredTests         []string             `json:"required_tests"`
	RequiredDocumentation []string             `json:"required_documentation"`
	ApprovalRequiredFor   []string             `json:"approval_required_for"`
	RetentionPolicyDays   int                  `json:"retention_policy_days"`
	SecurityRequirements  SecurityRequirements `json:"security_requirements"`
}

// DefaultComplianceRules 初次访问时落盘的默认规则
func DefaultComplianceRules() *ComplianceRules {
	return &ComplianceRules{
		MinimumAccuracy:  0.85,
		MaximumBiasRatio: 0.1,
		RequiredTests:    []string{"unit_tests", "integration_tests", "bias_tests"},
		RequiredDocumentation: []string{
			"model_card",
			"data_sheet",
			"performance_report",
		},
		ApprovalRequiredFor: []string{"production", "critical_systems"},
		RetentionPolicyDays: 365,
		SecurityRequirements: SecurityRequirements{
			VulnerabilityScan: true,
			DependencyCheck:   true,
			SecretsScan:       true,
		},
	}
}

// ComplianceCheck 单项检查结果。Required/Actual 的类型随检查种类而变
// (准确率检查是数值，required_test 检查是布尔)，因此保留 interface{}。
type ComplianceCheck struct {
	CheckName string      `json:"check_name"`
	Required  interface{} `json:"required"`
	Actual    interface{} `json:"actual"`
	Status    string      `json:"status"`
	Details   string      `json:"details"`
}

// ComplianceReport 一次评估的产出。Checks 的顺序即评估顺序：
// 先准确率、再偏差、然后按规则顺序逐个 required_test。
type ComplianceReport struct {
	ModelName           string            `json:"model_name"`
	ModelVersion        string            `json:"model_version"`
	EvaluationTimestamp string            `json:"evaluation_timestamp"`
	OverallStatus       string            `json:"overall_status"`
	Checks              []ComplianceCheck `json:"checks"`
}

// Failed lists the names of failing checks.
func (r *ComplianceReport) Failed() []string {
	var failed []string
	for _, c := range r.Checks {
		if c.Status == CheckFail {
			failed = append(failed, c.CheckName)
		}
	}
	return failed
}
