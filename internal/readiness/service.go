// Package readiness runs the roster-scoped evaluation pipeline: resolve the
// roster, fan out the reads that depend only on it, then hand everything to
// the compliance and coverage aggregators.
package readiness

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"readiness-backend/internal/compliance"
	"readiness-backend/internal/coverage"
	"readiness-backend/internal/models"
)

// Policy gathers the tunables of both axes and the composer.
type Policy struct {
	Compliance compliance.Options
	Coverage   coverage.Options
	Composer   ComposerConfig
}

// DefaultPolicy returns the built-in caps, flags and weights.
func DefaultPolicy() Policy {
	return Policy{
		Compliance: compliance.DefaultOptions(),
		Coverage:   coverage.DefaultOptions(),
		Composer:   DefaultComposerConfig(),
	}
}

// DebugCounts are intermediate sizes reported when a query sets Debug.
// They never influence a verdict.
type DebugCounts struct {
	RosterSize          int   `json:"roster_size"`
	Employees           int   `json:"employees_fetched"`
	Catalog             int   `json:"catalog_size,omitempty"`
	Rules               int   `json:"rules_fetched,omitempty"`
	Records             int   `json:"records_fetched,omitempty"`
	Stations            int   `json:"stations_fetched,omitempty"`
	StationRequirements int   `json:"station_requirements_fetched,omitempty"`
	Skills              int   `json:"skills_fetched,omitempty"`
	SkillLevels         int   `json:"skill_levels_fetched,omitempty"`
	ElapsedMS           int64 `json:"elapsed_ms"`
}

// ComplianceReport is the legal axis of one shift.
type ComplianceReport struct {
	Query  Query
	Result *compliance.Result
	Debug  DebugCounts
}

// CompliancePayload is the JSON shape of a compliance overview.
type CompliancePayload struct {
	OK bool `json:"ok"`
	*compliance.Result
	Debug *DebugCounts `json:"_debug,omitempty"`
}

// ComplianceMatrixPayload is the overview plus the flat status rows.
// rows is always present, empty when nothing was evaluated.
type ComplianceMatrixPayload struct {
	CompliancePayload
	Rows []compliance.StatusRow `json:"rows"`
}

// Payload serializes the report without rows.
func (r *ComplianceReport) Payload() CompliancePayload {
	p := CompliancePayload{OK: true, Result: r.Result}
	if r.Query.Debug {
		d := r.Debug
		p.Debug = &d
	}
	return p
}

// MatrixPayload serializes the report with one row per
// (employee, requirement) pair.
func (r *ComplianceReport) MatrixPayload() ComplianceMatrixPayload {
	rows := r.Result.Rows
	if rows == nil {
		rows = []compliance.StatusRow{}
	}
	return ComplianceMatrixPayload{CompliancePayload: r.Payload(), Rows: rows}
}

// CoverageReport is the operational axis of one shift.
type CoverageReport struct {
	Query  Query
	Result *coverage.Result
	Debug  DebugCounts
}

// CoveragePayload is the JSON shape of a coverage response.
type CoveragePayload struct {
	OK bool `json:"ok"`
	*coverage.Result
	Debug *DebugCounts `json:"_debug,omitempty"`
}

// Payload serializes the report.
func (r *CoverageReport) Payload() CoveragePayload {
	p := CoveragePayload{OK: true, Result: r.Result}
	if r.Query.Debug {
		d := r.Debug
		p.Debug = &d
	}
	return p
}

// Service evaluates readiness against injected sources.
type Service struct {
	src      Sources
	policy   Policy
	composer *Composer
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(src Sources, policy Policy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		src:      src,
		policy:   policy,
		composer: NewComposer(policy.Composer),
		logger:   logger,
		now:      time.Now,
	}
}

// ── Compliance ───────────────────────────────────────────────────

// ShiftCompliance computes the legal readiness of the rostered employees.
func (s *Service) ShiftCompliance(ctx context.Context, q Query) (*ComplianceReport, error) {
	start := time.Now()
	if err := q.Check(); err != nil {
		return nil, err
	}

	report := &ComplianceReport{Query: q}

	roster, err := s.src.Roster.Resolve(ctx, q.OrgID, q.SiteID, q.Date, q.ShiftCode)
	if err != nil {
		return nil, s.fail(q, stepErr(StepRoster, err))
	}
	report.Debug.RosterSize = len(roster)
	if len(roster) == 0 {
		report.Result = compliance.EmptyResult()
		report.Debug.ElapsedMS = time.Since(start).Milliseconds()
		return report, nil
	}

	var (
		employees []models.Employee
		catalog   []models.Requirement
		rules     []models.ApplicabilityRule
		records   []models.ComplianceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = s.src.Employees.ActiveEmployees(gctx, q.OrgID, q.SiteID, roster)
		return stepErr(StepEmployees, err)
	})
	g.Go(func() error {
		var err error
		catalog, err = s.src.Catalog.ActiveRequirements(gctx, q.OrgID)
		return stepErr(StepCatalog, err)
	})
	g.Go(func() error {
		var err error
		rules, err = s.src.Catalog.ApplicabilityRules(gctx, q.OrgID)
		return stepErr(StepRules, err)
	})
	g.Go(func() error {
		var err error
		records, err = s.src.Records.ForEmployees(gctx, q.OrgID, roster)
		return stepErr(StepRecords, err)
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(q, err)
	}

	report.Result = compliance.Aggregate(compliance.Input{
		RosterEmployeeIDs: roster,
		Employees:         employees,
		Catalog:           catalog,
		Records:           records,
		Rules:             rules,
		Now:               s.now(),
	}, s.policy.Compliance)

	report.Debug.Employees = len(employees)
	report.Debug.Catalog = len(catalog)
	report.Debug.Rules = len(rules)
	report.Debug.Records = len(records)
	report.Debug.ElapsedMS = time.Since(start).Milliseconds()

	s.logger.Debug("compliance evaluated",
		zap.String("org_id", q.OrgID),
		zap.String("date", q.Date),
		zap.String("shift", string(q.ShiftCode)),
		zap.String("flag", string(report.Result.ReadinessFlag)),
		zap.Int("roster", len(roster)),
		zap.Int("pairs", report.Result.KPIs.EvaluatedPairs),
	)
	return report, nil
}

// ── Coverage ─────────────────────────────────────────────────────

// ShiftCoverage computes the operational readiness of the rostered
// employees. q.StationID narrows the evaluation to one station.
func (s *Service) ShiftCoverage(ctx context.Context, q Query) (*CoverageReport, error) {
	start := time.Now()
	if err := q.Check(); err != nil {
		return nil, err
	}

	report := &CoverageReport{Query: q}

	roster, err := s.src.Roster.Resolve(ctx, q.OrgID, q.SiteID, q.Date, q.ShiftCode)
	if err != nil {
		return nil, s.fail(q, stepErr(StepRoster, err))
	}
	report.Debug.RosterSize = len(roster)
	if len(roster) == 0 {
		report.Result = coverage.EmptyResult()
		report.Debug.ElapsedMS = time.Since(start).Milliseconds()
		return report, nil
	}

	var (
		employees    []models.Employee
		levels       []models.EmployeeSkillLevel
		stations     []models.Station
		requirements []models.StationSkillRequirement
		skills       []models.Skill
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = s.src.Employees.ActiveEmployees(gctx, q.OrgID, q.SiteID, roster)
		return stepErr(StepEmployees, err)
	})
	g.Go(func() error {
		var err error
		levels, err = s.src.Skills.LevelsForEmployees(gctx, q.OrgID, roster)
		return stepErr(StepSkillLevels, err)
	})
	g.Go(func() error {
		var err error
		stations, err = s.src.Stations.ActiveStations(gctx, q.OrgID, q.StationID)
		if err != nil {
			return stepErr(StepStations, err)
		}
		if len(stations) == 0 {
			return nil
		}

		requirements, err = s.src.Stations.StationRequirements(gctx, q.OrgID, stationIDs(stations))
		if err != nil {
			return stepErr(StepStationRequirements, err)
		}

		ids := referencedSkillIDs(requirements)
		if len(ids) == 0 {
			return nil
		}
		skills, err = s.src.Skills.SkillsByIDs(gctx, q.OrgID, ids)
		return stepErr(StepSkills, err)
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(q, err)
	}

	report.Result = coverage.Aggregate(coverage.Input{
		RosterEmployeeIDs: roster,
		Employees:         employees,
		Stations:          stations,
		Requirements:      requirements,
		Skills:            skills,
		Levels:            levels,
	}, s.policy.Coverage)

	report.Debug.Employees = len(employees)
	report.Debug.Stations = len(stations)
	report.Debug.StationRequirements = len(requirements)
	report.Debug.Skills = len(skills)
	report.Debug.SkillLevels = len(levels)
	report.Debug.ElapsedMS = time.Since(start).Milliseconds()

	s.logger.Debug("coverage evaluated",
		zap.String("org_id", q.OrgID),
		zap.String("date", q.Date),
		zap.String("shift", string(q.ShiftCode)),
		zap.String("flag", string(report.Result.OpsReadinessFlag)),
		zap.Int("stations", len(stations)),
	)
	return report, nil
}

// ── Setup ────────────────────────────────────────────────────────

// Setup scores how far the organization's master data has been set up.
func (s *Service) Setup(ctx context.Context, orgID string) (*SetupSummary, error) {
	q := Query{OrgID: orgID}
	if fields := q.Validate(); fields["org_id"] != "" {
		return nil, &ValidationError{Fields: map[string]string{"org_id": fields["org_id"]}}
	}

	counts, err := s.src.Setup.SetupCounts(ctx, orgID)
	if err != nil {
		return nil, s.fail(q, stepErr(StepSetupCounts, err))
	}
	return s.composer.Compose(*counts), nil
}

// ── helpers ──────────────────────────────────────────────────────

func (s *Service) fail(q Query, err error) error {
	step := ""
	var se *StepError
	if errors.As(err, &se) {
		step = se.Step
	}
	s.logger.Error("readiness evaluation failed",
		zap.String("org_id", q.OrgID),
		zap.String("date", q.Date),
		zap.String("shift", string(q.ShiftCode)),
		zap.String("step", step),
		zap.Error(err),
	)
	return err
}

func stationIDs(stations []models.Station) []string {
	ids := make([]string, 0, len(stations))
	for _, st := range stations {
		ids = append(ids, st.ID)
	}
	return ids
}

func referencedSkillIDs(reqs []models.StationSkillRequirement) []string {
	seen := make(map[string]struct{}, len(reqs))
	var ids []string
	for _, r := range reqs {
		if _, ok := seen[r.SkillID]; ok {
			continue
		}
		seen[r.SkillID] = struct{}{}
		ids = append(ids, r.SkillID)
	}
	sort.Strings(ids)
	return ids
}
