package models

import "strings"

// Employee is a roster-eligible employee as seen by the readiness engine.
// Role is the primary role resolved through employee_roles.
type Employee struct {
	ID             string  `json:"id"`
	Name           *string `json:"name,omitempty"`
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	EmployeeNumber *string `json:"employee_number,omitempty"`
	Line           *string `json:"line,omitempty"`
	Role           *string `json:"role,omitempty"`
	SiteID         *string `json:"site_id,omitempty"`
	IsActive       bool    `json:"is_active"`
}

// DisplayName returns the explicit name, else first+last, else the
// employee number, else the id.
func (e Employee) DisplayName() string {
	if e.Name != nil {
		if n := strings.TrimSpace(*e.Name); n != "" {
			return n
		}
	}

	var parts []string
	if e.FirstName != nil && strings.TrimSpace(*e.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*e.FirstName))
	}
	if e.LastName != nil && strings.TrimSpace(*e.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*e.LastName))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	if e.EmployeeNumber != nil {
		if n := strings.TrimSpace(*e.EmployeeNumber); n != "" {
			return n
		}
	}
	return e.ID
}

// LineValue returns the line code or "" when unset.
func (e Employee) LineValue() string {
	if e.Line == nil {
		return ""
	}
	return *e.Line
}

// RoleValue returns the primary role or "" when unset.
func (e Employee) RoleValue() string {
	if e.Role == nil {
		return ""
	}
	return *e.Role
}
