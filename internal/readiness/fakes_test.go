package readiness

import (
	"context"
	"sync"

	"readiness-backend/internal/models"
)

const (
	testOrg  = "7b1c2f9e-2a4d-4c55-9f0a-1d2e3f4a5b6c"
	testSite = "0f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
)

// fakeDB implements every source interface over in-memory slices.
type fakeDB struct {
	mu sync.Mutex

	roster      []string
	employees   []models.Employee
	catalog     []models.Requirement
	rules       []models.ApplicabilityRule
	records     []models.ComplianceRecord
	stations    []models.Station
	stationReqs []models.StationSkillRequirement
	skills      []models.Skill
	levels      []models.EmployeeSkillLevel
	counts      *models.SetupCounts

	fail map[string]error

	calls         []string
	stationFilter *string
	skillIDs      []string
}

func (f *fakeDB) sources() Sources {
	return Sources{
		Roster:    f,
		Catalog:   f,
		Employees: f,
		Records:   f,
		Stations:  f,
		Skills:    f,
		Setup:     f,
	}
}

func (f *fakeDB) record(step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
	return f.fail[step]
}

func (f *fakeDB) called(step string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == step {
			return true
		}
	}
	return false
}

func (f *fakeDB) Resolve(_ context.Context, _ string, _ *string, _ string, _ ShiftCode) ([]string, error) {
	if err := f.record(StepRoster); err != nil {
		return nil, err
	}
	return f.roster, nil
}

func (f *fakeDB) ActiveRequirements(context.Context, string) ([]models.Requirement, error) {
	if err := f.record(StepCatalog); err != nil {
		return nil, err
	}
	return f.catalog, nil
}

func (f *fakeDB) ApplicabilityRules(context.Context, string) ([]models.ApplicabilityRule, error) {
	if err := f.record(StepRules); err != nil {
		return nil, err
	}
	return f.rules, nil
}

func (f *fakeDB) ActiveEmployees(_ context.Context, _ string, _ *string, _ []string) ([]models.Employee, error) {
	if err := f.record(StepEmployees); err != nil {
		return nil, err
	}
	return f.employees, nil
}

func (f *fakeDB) ForEmployees(context.Context, string, []string) ([]models.ComplianceRecord, error) {
	if err := f.record(StepRecords); err != nil {
		return nil, err
	}
	return f.records, nil
}

func (f *fakeDB) ActiveStations(_ context.Context, _ string, stationID *string) ([]models.Station, error) {
	f.mu.Lock()
	f.stationFilter = stationID
	f.mu.Unlock()
	if err := f.record(StepStations); err != nil {
		return nil, err
	}
	return f.stations, nil
}

func (f *fakeDB) StationRequirements(context.Context, string, []string) ([]models.StationSkillRequirement, error) {
	if err := f.record(StepStationRequirements); err != nil {
		return nil, err
	}
	return f.stationReqs, nil
}

func (f *fakeDB) SkillsByIDs(_ context.Context, _ string, ids []string) ([]models.Skill, error) {
	f.mu.Lock()
	f.skillIDs = ids
	f.mu.Unlock()
	if err := f.record(StepSkills); err != nil {
		return nil, err
	}
	return f.skills, nil
}

func (f *fakeDB) LevelsForEmployees(context.Context, string, []string) ([]models.EmployeeSkillLevel, error) {
	if err := f.record(StepSkillLevels); err != nil {
		return nil, err
	}
	return f.levels, nil
}

func (f *fakeDB) SetupCounts(context.Context, string) (*models.SetupCounts, error) {
	if err := f.record(StepSetupCounts); err != nil {
		return nil, err
	}
	return f.counts, nil
}
