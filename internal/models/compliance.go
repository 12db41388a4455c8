package models

import "time"

// ── Compliance Catalog ───────────────────────────────────────────

// Requirement is a compliance catalog item (certificate, training, medical...).
type Requirement struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	IsActive bool   `json:"is_active"`
}

// ApplicabilityRule binds a requirement to a line, a role, or everyone.
// Nil line/role columns are carried as nil; the resolver decides how to
// compare them.
type ApplicabilityRule struct {
	ComplianceID    string  `json:"compliance_id"`
	AppliesGlobally bool    `json:"applies_globally"`
	AppliesToLine   *string `json:"applies_to_line,omitempty"`
	AppliesToRole   *string `json:"applies_to_role,omitempty"`
}

// ComplianceRecord is the state of one requirement for one employee.
// Uniqueness of (EmployeeID, ComplianceID) is enforced upstream.
type ComplianceRecord struct {
	EmployeeID   string     `json:"employee_id"`
	ComplianceID string     `json:"compliance_id"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
	Waived       bool       `json:"waived"`
}
