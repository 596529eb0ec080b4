package audit

import (
	"time"

	"sentra/internal/domain/policy"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RetentionComplianceAudit is one compliance snapshot for an
// (organisation, data type) pair, produced after every scan pass.
type RetentionComplianceAudit struct {
	ID                 string          `json:"id"`
	OrganisationID     string          `json:"organisationId"`
	DataType           policy.DataType `json:"dataType"`
	PolicyID           string          `json:"policyId"`
	TotalRecords       int             `json:"totalRecords"`
	CompliantRecords   int             `json:"compliantRecords"`
	OverdueRecords     int             `json:"overdueRecords"`
	SoftDeletedRecords int             `json:"softDeletedRecords"`
	ErasedRecords      int             `json:"erasedRecords"`
	ErroredRecords     int             `json:"erroredRecords"`
	ComplianceRate     float64         `json:"complianceRate"`
	Compliant          bool            `json:"compliant"`
	RiskLevel          RiskLevel       `json:"riskLevel"`
	Issues             []string        `json:"issues,omitempty"`
	Recommendations    []string        `json:"recommendations,omitempty"`
	AuditDuration      time.Duration   `json:"auditDuration"`
	AuditedAt          time.Time       `json:"auditedAt"`
	NextAuditDue       time.Time       `json:"nextAuditDue"`
}
