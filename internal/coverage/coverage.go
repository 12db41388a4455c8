// Package coverage computes operational readiness: whether the rostered
// employees can staff every active station at the required skill levels.
package coverage

import (
	"fmt"
	"sort"

	"readiness-backend/internal/compliance"
	"readiness-backend/internal/models"
)

// OpsFlag is the operational verdict of a station or a whole shift.
type OpsFlag string

const (
	OpsGo      OpsFlag = "OPS_GO"
	OpsWarning OpsFlag = "OPS_WARNING"
	OpsNoGo    OpsFlag = "OPS_NO_GO"
)

func (f OpsFlag) severity() int {
	switch f {
	case OpsNoGo:
		return 0
	case OpsWarning:
		return 1
	}
	return 2
}

// Gap reason codes.
const (
	ReasonNoQualifiedEmployee = "NO_QUALIFIED_EMPLOYEE"
	ReasonNoEmployeeMeetsAll  = "NO_EMPLOYEE_MEETS_ALL"
)

const (
	DefaultTopStations        = 50
	DefaultTopEmployees       = 50
	DefaultTopGapsPerEmployee = 10
)

// StationEvaluation is what a WarningPolicy sees for a station that would
// otherwise be OPS_GO.
type StationEvaluation struct {
	Station           models.Station
	RequirementsCount int
	EligibleEmployees int
	RosterEmployees   int
}

// WarningPolicy downgrades a GO station to OPS_WARNING when it returns true.
// There is no built-in threshold; nil never warns.
type WarningPolicy func(StationEvaluation) bool

// MinEligibleWarning warns when a station has fewer than n eligible
// employees. n <= 0 disables it.
func MinEligibleWarning(n int) WarningPolicy {
	if n <= 0 {
		return nil
	}
	return func(ev StationEvaluation) bool {
		return ev.RequirementsCount > 0 && ev.EligibleEmployees < n
	}
}

// Options tunes list caps and the warning extension point.
type Options struct {
	TopStations        int
	TopEmployees       int
	TopGapsPerEmployee int
	Warning            WarningPolicy
}

// DefaultOptions returns the caps used by the HTTP endpoints.
func DefaultOptions() Options {
	return Options{
		TopStations:        DefaultTopStations,
		TopEmployees:       DefaultTopEmployees,
		TopGapsPerEmployee: DefaultTopGapsPerEmployee,
	}
}

// Input is everything the aggregator needs for one shift.
type Input struct {
	RosterEmployeeIDs []string
	Employees         []models.Employee
	Stations          []models.Station
	Requirements      []models.StationSkillRequirement
	Skills            []models.Skill
	Levels            []models.EmployeeSkillLevel
}

// GapReason explains why a station is short of qualified staff.
type GapReason struct {
	Reason             string `json:"reason"`
	SkillID            string `json:"skill_id,omitempty"`
	SkillCode          string `json:"skill_code,omitempty"`
	RequiredLevel      int    `json:"required_level,omitempty"`
	QualifiedEmployees int    `json:"qualified_employees_count"`
}

// StationReadiness is the operational verdict for one station.
type StationReadiness struct {
	StationID         string      `json:"station_id"`
	StationCode       string      `json:"station_code"`
	StationName       string      `json:"station_name"`
	Status            OpsFlag     `json:"status"`
	RequirementsCount int         `json:"requirements_count"`
	EligibleEmployees int         `json:"eligible_employees_count"`
	GapReasons        []GapReason `json:"gap_reasons"`
}

// StationGap lists the skills an employee lacks for one station.
type StationGap struct {
	StationCode   string   `json:"station_code"`
	MissingSkills []string `json:"missing_skills"`
}

// EmployeeCoverage is an employee's reach across the active stations.
type EmployeeCoverage struct {
	EmployeeID       string       `json:"employee_id"`
	EmployeeName     string       `json:"employee_name"`
	EligibleStations int          `json:"eligible_stations_count"`
	BlockedStations  int          `json:"blocked_stations_count"`
	TopGaps          []StationGap `json:"top_gaps"`
}

// KPIs are the headline counts of a coverage evaluation.
type KPIs struct {
	RosterEmployees             int `json:"roster_employees_count"`
	Stations                    int `json:"stations_count"`
	StationsGo                  int `json:"stations_go_count"`
	StationsWarning             int `json:"stations_warning_count"`
	StationsNoGo                int `json:"stations_no_go_count"`
	StationsWithoutRequirements int `json:"stations_without_requirements_count"`
}

// Result is the computed operational readiness of one shift.
type Result struct {
	OpsReadinessFlag OpsFlag            `json:"ops_readiness_flag"`
	KPIs             KPIs               `json:"kpis"`
	ByStation        []StationReadiness `json:"by_station"`
	ByEmployee       []EmployeeCoverage `json:"by_employee"`
	HasMoreStations  bool               `json:"has_more_stations"`
	HasMoreEmployees bool               `json:"has_more_employees"`
}

// EmptyResult is the vacuous verdict for a shift nobody is rostered on.
func EmptyResult() *Result {
	return &Result{
		OpsReadinessFlag: OpsGo,
		ByStation:        []StationReadiness{},
		ByEmployee:       []EmployeeCoverage{},
	}
}

// ShiftOpsReadinessFromStations escalates station verdicts to a shift verdict.
func ShiftOpsReadinessFromStations(statuses []OpsFlag) OpsFlag {
	overall := OpsGo
	for _, s := range statuses {
		if s == OpsNoGo {
			return OpsNoGo
		}
		if s == OpsWarning {
			overall = OpsWarning
		}
	}
	return overall
}

type skillNeed struct {
	skillID string
	level   int
}

// Aggregate evaluates every active station against the rostered employees.
func Aggregate(in Input, opts Options) *Result {
	if len(in.RosterEmployeeIDs) == 0 {
		return EmptyResult()
	}

	roster := make(map[string]struct{}, len(in.RosterEmployeeIDs))
	for _, id := range in.RosterEmployeeIDs {
		roster[id] = struct{}{}
	}
	var employees []models.Employee
	seen := map[string]struct{}{}
	for _, e := range in.Employees {
		if _, ok := roster[e.ID]; !ok || !e.IsActive {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		employees = append(employees, e)
	}

	skillCodes := make(map[string]string, len(in.Skills))
	for _, s := range in.Skills {
		skillCodes[s.ID] = s.Code
	}
	codeOf := func(skillID string) string {
		if c, ok := skillCodes[skillID]; ok && c != "" {
			return c
		}
		return skillID
	}

	// Highest asserted level per (employee, skill).
	levels := make(map[string]map[string]int)
	for _, l := range in.Levels {
		m, ok := levels[l.EmployeeID]
		if !ok {
			m = make(map[string]int)
			levels[l.EmployeeID] = m
		}
		if cur, ok := m[l.SkillID]; !ok || l.Level > cur {
			m[l.SkillID] = l.Level
		}
	}
	levelOf := func(employeeID, skillID string) int {
		return levels[employeeID][skillID]
	}

	// Mandatory needs per station; duplicate skills keep the highest level.
	needs := make(map[string][]skillNeed)
	for _, r := range in.Requirements {
		if !r.Mandatory() {
			continue
		}
		list := needs[r.StationID]
		merged := false
		for i := range list {
			if list[i].skillID == r.SkillID {
				if r.RequiredLevel > list[i].level {
					list[i].level = r.RequiredLevel
				}
				merged = true
				break
			}
		}
		if !merged {
			list = append(list, skillNeed{skillID: r.SkillID, level: r.RequiredLevel})
		}
		needs[r.StationID] = list
	}

	var stations []models.Station
	for _, s := range in.Stations {
		if s.IsActive {
			stations = append(stations, s)
		}
	}

	res := &Result{
		ByStation:  []StationReadiness{},
		ByEmployee: []EmployeeCoverage{},
	}
	res.KPIs.RosterEmployees = len(employees)
	res.KPIs.Stations = len(stations)

	coverageByEmp := make(map[string]*EmployeeCoverage, len(employees))
	gapsByEmp := make(map[string][]StationGap, len(employees))
	for _, e := range employees {
		coverageByEmp[e.ID] = &EmployeeCoverage{EmployeeID: e.ID, EmployeeName: e.DisplayName()}
	}

	statuses := make([]OpsFlag, 0, len(stations))
	for _, st := range stations {
		stNeeds := needs[st.ID]
		sr := StationReadiness{
			StationID:         st.ID,
			StationCode:       st.Code,
			StationName:       st.Name,
			RequirementsCount: len(stNeeds),
			GapReasons:        []GapReason{},
		}
		if len(stNeeds) == 0 {
			res.KPIs.StationsWithoutRequirements++
		}

		qualified := make([]int, len(stNeeds))
		for _, e := range employees {
			var missing []string
			for i, n := range stNeeds {
				if levelOf(e.ID, n.skillID) >= n.level {
					qualified[i]++
				} else {
					missing = append(missing, codeOf(n.skillID))
				}
			}
			cov := coverageByEmp[e.ID]
			if len(missing) == 0 {
				sr.EligibleEmployees++
				cov.EligibleStations++
			} else {
				cov.BlockedStations++
				gapsByEmp[e.ID] = append(gapsByEmp[e.ID], StationGap{StationCode: st.Code, MissingSkills: missing})
			}
		}

		switch {
		case len(stNeeds) > 0 && sr.EligibleEmployees == 0:
			sr.Status = OpsNoGo
			for i, n := range stNeeds {
				if qualified[i] == 0 {
					sr.GapReasons = append(sr.GapReasons, GapReason{
						Reason:        ReasonNoQualifiedEmployee,
						SkillID:       n.skillID,
						SkillCode:     codeOf(n.skillID),
						RequiredLevel: n.level,
					})
				}
			}
			if len(sr.GapReasons) == 0 {
				sr.GapReasons = append(sr.GapReasons, GapReason{Reason: ReasonNoEmployeeMeetsAll})
			}
		case opts.Warning != nil && opts.Warning(StationEvaluation{
			Station:           st,
			RequirementsCount: len(stNeeds),
			EligibleEmployees: sr.EligibleEmployees,
			RosterEmployees:   len(employees),
		}):
			sr.Status = OpsWarning
		default:
			sr.Status = OpsGo
		}

		switch sr.Status {
		case OpsNoGo:
			res.KPIs.StationsNoGo++
		case OpsWarning:
			res.KPIs.StationsWarning++
		default:
			res.KPIs.StationsGo++
		}
		statuses = append(statuses, sr.Status)
		res.ByStation = append(res.ByStation, sr)
	}

	res.OpsReadinessFlag = ShiftOpsReadinessFromStations(statuses)

	for _, e := range employees {
		cov := coverageByEmp[e.ID]
		gaps := gapsByEmp[e.ID]
		sort.SliceStable(gaps, func(i, j int) bool {
			if len(gaps[i].MissingSkills) != len(gaps[j].MissingSkills) {
				return len(gaps[i].MissingSkills) < len(gaps[j].MissingSkills)
			}
			return gaps[i].StationCode < gaps[j].StationCode
		})
		gaps, _ = compliance.Truncate(gaps, opts.TopGapsPerEmployee)
		if gaps == nil {
			gaps = []StationGap{}
		}
		cov.TopGaps = gaps
		res.ByEmployee = append(res.ByEmployee, *cov)
	}

	SortStations(res.ByStation)
	SortEmployees(res.ByEmployee)
	res.ByStation, res.HasMoreStations = compliance.Truncate(res.ByStation, opts.TopStations)
	res.ByEmployee, res.HasMoreEmployees = compliance.Truncate(res.ByEmployee, opts.TopEmployees)

	return res
}

// SortStations orders NO_GO, WARNING, GO, then fewest eligible, then code.
func SortStations(items []StationReadiness) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := items[i].Status.severity(), items[j].Status.severity()
		if si != sj {
			return si < sj
		}
		if items[i].EligibleEmployees != items[j].EligibleEmployees {
			return items[i].EligibleEmployees < items[j].EligibleEmployees
		}
		return items[i].StationCode < items[j].StationCode
	})
}

// SortEmployees orders the least-deployable employees first, then by name.
func SortEmployees(items []EmployeeCoverage) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].EligibleStations != items[j].EligibleStations {
			return items[i].EligibleStations < items[j].EligibleStations
		}
		return items[i].EmployeeName < items[j].EmployeeName
	})
}

// String renders a gap reason for logs and CLI output.
func (g GapReason) String() string {
	if g.Reason == ReasonNoEmployeeMeetsAll {
		return "no rostered employee holds every required skill"
	}
	return fmt.Sprintf("no rostered employee at level >= %d in %s", g.RequiredLevel, g.SkillCode)
}
