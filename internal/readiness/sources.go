package readiness

import (
	"context"

	"readiness-backend/internal/models"
)

// RosterResolver returns the ids of the employees rostered on a shift.
// siteID nil means every site of the organization.
type RosterResolver interface {
	Resolve(ctx context.Context, orgID string, siteID *string, date string, shift ShiftCode) ([]string, error)
}

// CatalogSource reads the compliance catalog and its applicability rules.
type CatalogSource interface {
	ActiveRequirements(ctx context.Context, orgID string) ([]models.Requirement, error)
	ApplicabilityRules(ctx context.Context, orgID string) ([]models.ApplicabilityRule, error)
}

// EmployeeSource reads active employees, including line and primary role.
type EmployeeSource interface {
	ActiveEmployees(ctx context.Context, orgID string, siteID *string, ids []string) ([]models.Employee, error)
}

// ComplianceRecordSource reads compliance records for a set of employees.
type ComplianceRecordSource interface {
	ForEmployees(ctx context.Context, orgID string, employeeIDs []string) ([]models.ComplianceRecord, error)
}

// StationSource reads active stations and their skill requirements.
// stationID nil means every active station.
type StationSource interface {
	ActiveStations(ctx context.Context, orgID string, stationID *string) ([]models.Station, error)
	StationRequirements(ctx context.Context, orgID string, stationIDs []string) ([]models.StationSkillRequirement, error)
}

// SkillSource reads skills and the levels employees hold in them.
type SkillSource interface {
	SkillsByIDs(ctx context.Context, orgID string, ids []string) ([]models.Skill, error)
	LevelsForEmployees(ctx context.Context, orgID string, employeeIDs []string) ([]models.EmployeeSkillLevel, error)
}

// SetupSource reads the org-wide counts behind the setup summary.
type SetupSource interface {
	SetupCounts(ctx context.Context, orgID string) (*models.SetupCounts, error)
}

// Sources bundles the collaborators of a Service.
type Sources struct {
	Roster    RosterResolver
	Catalog   CatalogSource
	Employees EmployeeSource
	Records   ComplianceRecordSource
	Stations  StationSource
	Skills    SkillSource
	Setup     SetupSource
}
