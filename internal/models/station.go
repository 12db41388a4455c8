package models

// ── Stations & Skills ────────────────────────────────────────────

// Station is a physical or operational work position.
type Station struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Line     *string `json:"line,omitempty"`
	IsActive bool    `json:"is_active"`
}

// Skill is a catalog skill referenced by station requirements.
type Skill struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// StationSkillRequirement says a station needs SkillID at RequiredLevel.
// IsMandatory is false-closed: nil and true both count as mandatory.
type StationSkillRequirement struct {
	StationID     string `json:"station_id"`
	SkillID       string `json:"skill_id"`
	RequiredLevel int    `json:"required_level"`
	IsMandatory   *bool  `json:"is_mandatory,omitempty"`
}

// Mandatory reports whether the row participates in station readiness.
func (r StationSkillRequirement) Mandatory() bool {
	return r.IsMandatory == nil || *r.IsMandatory
}

// EmployeeSkillLevel is an asserted proficiency of an employee in a skill.
type EmployeeSkillLevel struct {
	EmployeeID string `json:"employee_id"`
	SkillID    string `json:"skill_id"`
	Level      int    `json:"level"`
}
