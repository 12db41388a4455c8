package compliance

import (
	"strings"

	"readiness-backend/internal/models"
)

// Subject is what applicability rules are matched against.
type Subject struct {
	Line string
	Role string
}

// SubjectOf builds the match subject for an employee.
func SubjectOf(e models.Employee) Subject {
	return Subject{Line: e.LineValue(), Role: e.RoleValue()}
}

// Applicability answers "does requirement R bind employee E?".
//
// A requirement without rules applies to everyone. Once it has rules, it
// applies when any rule is global or matches the employee's line or role
// (trimmed, case-sensitive).
//
// TreatEmptyRuleAsWildcard keeps the long-standing behavior where an empty
// rule line/role equals an employee's empty line/role, so a role-only rule
// also binds every employee without a line. Turning it off makes empty rule
// fields match nothing.
type Applicability struct {
	rules                    map[string][]models.ApplicabilityRule
	TreatEmptyRuleAsWildcard bool
}

// NewApplicability indexes rules by requirement id.
func NewApplicability(rules []models.ApplicabilityRule, treatEmptyRuleAsWildcard bool) *Applicability {
	idx := make(map[string][]models.ApplicabilityRule)
	for _, r := range rules {
		idx[r.ComplianceID] = append(idx[r.ComplianceID], r)
	}
	return &Applicability{rules: idx, TreatEmptyRuleAsWildcard: treatEmptyRuleAsWildcard}
}

// RuleCount returns the number of rules indexed for a requirement.
func (a *Applicability) RuleCount(requirementID string) int {
	return len(a.rules[requirementID])
}

// AppliesTo reports whether the requirement binds the subject.
func (a *Applicability) AppliesTo(requirementID string, s Subject) bool {
	rules := a.rules[requirementID]
	if len(rules) == 0 {
		return true
	}

	line := strings.TrimSpace(s.Line)
	role := strings.TrimSpace(s.Role)

	for _, r := range rules {
		if r.AppliesGlobally {
			return true
		}
		if a.fieldMatches(r.AppliesToLine, line) || a.fieldMatches(r.AppliesToRole, role) {
			return true
		}
	}
	return false
}

func (a *Applicability) fieldMatches(ruleValue *string, subjectValue string) bool {
	v := ""
	if ruleValue != nil {
		v = strings.TrimSpace(*ruleValue)
	}
	if v == "" && !a.TreatEmptyRuleAsWildcard {
		return false
	}
	return v == subjectValue
}
