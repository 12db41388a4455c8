package compliance

import (
	"sort"
	"time"

	"readiness-backend/internal/models"
)

// ── Verdicts ─────────────────────────────────────────────────────

// ReadinessFlag is the shift-level legal verdict.
type ReadinessFlag string

const (
	LegalGo      ReadinessFlag = "LEGAL_GO"
	LegalWarning ReadinessFlag = "LEGAL_WARNING"
	LegalNoGo    ReadinessFlag = "LEGAL_NO_GO"
)

// EmployeeStatus is the legal verdict for a single rostered employee.
type EmployeeStatus string

const (
	EmployeeBlocked EmployeeStatus = "LEGAL_BLOCKED"
	EmployeeWarning EmployeeStatus = "LEGAL_WARNING"
	EmployeeOK      EmployeeStatus = "LEGAL_OK"
)

func (s EmployeeStatus) severity() int {
	switch s {
	case EmployeeBlocked:
		return 0
	case EmployeeWarning:
		return 1
	}
	return 2
}

// ── Options ──────────────────────────────────────────────────────

const (
	DefaultTopRequirements = 50
	DefaultTopEmployees    = 50
	DefaultSampleSize      = 10
)

// Options tunes list caps and rule matching.
type Options struct {
	TopRequirements          int
	TopEmployees             int
	SampleSize               int
	TreatEmptyRuleAsWildcard bool
}

// DefaultOptions returns the caps used by the HTTP endpoints.
func DefaultOptions() Options {
	return Options{
		TopRequirements:          DefaultTopRequirements,
		TopEmployees:             DefaultTopEmployees,
		SampleSize:               DefaultSampleSize,
		TreatEmptyRuleAsWildcard: true,
	}
}

// ── Input / Output ───────────────────────────────────────────────

// Input is everything the aggregator needs for one shift.
type Input struct {
	RosterEmployeeIDs []string
	Employees         []models.Employee
	Catalog           []models.Requirement
	Records           []models.ComplianceRecord
	Rules             []models.ApplicabilityRule
	Now               time.Time
}

// StatusRow is one evaluated (employee, requirement) pair.
type StatusRow struct {
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    string  `json:"employee_name"`
	RequirementID   string  `json:"requirement_id"`
	RequirementCode string  `json:"requirement_code"`
	RequirementName string  `json:"requirement_name"`
	Status          Status  `json:"status"`
	ValidTo         *string `json:"valid_to"`
	DaysLeft        *int    `json:"days_left"`
}

func (r StatusRow) validToString() string {
	if r.ValidTo == nil {
		return ""
	}
	return *r.ValidTo
}

// RequirementRollup counts affected employees per status for a requirement.
type RequirementRollup struct {
	RequirementID   string `json:"requirement_id"`
	RequirementCode string `json:"requirement_code"`
	RequirementName string `json:"requirement_name"`
	Category        string `json:"category"`

	ApplicableEmployeeCount int `json:"applicable_employee_count"`
	BlockingCount           int `json:"blocking_affected_employee_count"`
	ExpiringCount           int `json:"expiring_affected_employee_count"`
	MissingCount            int `json:"missing_affected_employee_count"`
	ExpiredCount            int `json:"expired_affected_employee_count"`
	WaivedCount             int `json:"waived_affected_employee_count"`
}

// EmployeeRollup lists a rostered employee's blocking and expiring items.
type EmployeeRollup struct {
	EmployeeID    string         `json:"employee_id"`
	EmployeeName  string         `json:"employee_name"`
	Line          *string        `json:"line,omitempty"`
	Status        EmployeeStatus `json:"status"`
	BlockingItems []string       `json:"blocking_items"`
	ExpiringItems []string       `json:"expiring_items"`
}

// KPIs are the headline counts of a compliance evaluation.
type KPIs struct {
	RosterEmployees  int `json:"roster_employees_count"`
	CatalogItems     int `json:"catalog_items_count"`
	EvaluatedPairs   int `json:"evaluated_pairs_count"`
	EmployeesBlocked int `json:"employees_blocked_count"`
	EmployeesWarning int `json:"employees_warning_count"`
	EmployeesOK      int `json:"employees_ok_count"`
	BlockingItems    int `json:"blocking_items_count"`
	ExpiringItems    int `json:"expiring_items_count"`
	MissingItems     int `json:"missing_items_count"`
	ExpiredItems     int `json:"expired_items_count"`
	WaivedItems      int `json:"waived_items_count"`
	ValidItems       int `json:"valid_items_count"`
}

// Result is the computed legal readiness of one shift.
type Result struct {
	ReadinessFlag       ReadinessFlag       `json:"readiness_flag"`
	KPIs                KPIs                `json:"kpis"`
	Rows                []StatusRow         `json:"-"`
	ByRequirement       []RequirementRollup `json:"by_requirement"`
	ByEmployee          []EmployeeRollup    `json:"by_employee"`
	HasMoreRequirements bool                `json:"has_more_requirements"`
	HasMoreEmployees    bool                `json:"has_more_employees"`
	ExpiringSample      []StatusRow         `json:"expiring_sample"`
}

// EmptyResult is the vacuous verdict for a shift nobody is rostered on.
func EmptyResult() *Result {
	return &Result{
		ReadinessFlag:  LegalGo,
		Rows:           []StatusRow{},
		ByRequirement:  []RequirementRollup{},
		ByEmployee:     []EmployeeRollup{},
		ExpiringSample: []StatusRow{},
	}
}

// ── Aggregation ──────────────────────────────────────────────────

type requirementBuckets struct {
	req        models.Requirement
	applicable map[string]struct{}
	missing    map[string]struct{}
	expired    map[string]struct{}
	expiring   map[string]struct{}
	waived     map[string]struct{}
}

func newBuckets(req models.Requirement) *requirementBuckets {
	return &requirementBuckets{
		req:        req,
		applicable: map[string]struct{}{},
		missing:    map[string]struct{}{},
		expired:    map[string]struct{}{},
		expiring:   map[string]struct{}{},
		waived:     map[string]struct{}{},
	}
}

type recordKey struct {
	employeeID   string
	complianceID string
}

// Aggregate joins roster employees × applicable requirements × records and
// rolls the statuses up into the shift verdict.
func Aggregate(in Input, opts Options) *Result {
	if len(in.RosterEmployeeIDs) == 0 {
		return EmptyResult()
	}

	roster := make(map[string]struct{}, len(in.RosterEmployeeIDs))
	for _, id := range in.RosterEmployeeIDs {
		roster[id] = struct{}{}
	}

	employees := make([]models.Employee, 0, len(in.Employees))
	seenEmp := map[string]struct{}{}
	for _, e := range in.Employees {
		if !e.IsActive {
			continue
		}
		if _, ok := roster[e.ID]; !ok {
			continue
		}
		if _, dup := seenEmp[e.ID]; dup {
			continue
		}
		seenEmp[e.ID] = struct{}{}
		employees = append(employees, e)
	}

	catalog := make([]models.Requirement, 0, len(in.Catalog))
	for _, r := range in.Catalog {
		if r.IsActive {
			catalog = append(catalog, r)
		}
	}

	records := make(map[recordKey]models.ComplianceRecord, len(in.Records))
	for _, rec := range in.Records {
		records[recordKey{rec.EmployeeID, rec.ComplianceID}] = rec
	}

	applicability := NewApplicability(in.Rules, opts.TreatEmptyRuleAsWildcard)

	res := &Result{
		Rows:           []StatusRow{},
		ByRequirement:  []RequirementRollup{},
		ByEmployee:     []EmployeeRollup{},
		ExpiringSample: []StatusRow{},
	}
	res.KPIs.RosterEmployees = len(employees)
	res.KPIs.CatalogItems = len(catalog)

	buckets := make(map[string]*requirementBuckets, len(catalog))
	var bucketOrder []string
	anyBlocking, anyExpiring := false, false

	for _, emp := range employees {
		subject := SubjectOf(emp)
		name := emp.DisplayName()
		rollup := EmployeeRollup{
			EmployeeID:    emp.ID,
			EmployeeName:  name,
			Line:          emp.Line,
			BlockingItems: []string{},
			ExpiringItems: []string{},
		}

		for _, req := range catalog {
			if !applicability.AppliesTo(req.ID, subject) {
				continue
			}

			var validTo *time.Time
			waived := false
			if rec, ok := records[recordKey{emp.ID, req.ID}]; ok {
				validTo = rec.ValidTo
				waived = rec.Waived
			}
			status := ComputeStatus(validTo, waived, in.Now)

			row := StatusRow{
				EmployeeID:      emp.ID,
				EmployeeName:    name,
				RequirementID:   req.ID,
				RequirementCode: req.Code,
				RequirementName: req.Name,
				Status:          status,
				DaysLeft:        DaysLeft(validTo, in.Now),
			}
			if validTo != nil {
				s := FormatDate(validTo)
				row.ValidTo = &s
			}
			res.Rows = append(res.Rows, row)
			res.KPIs.EvaluatedPairs++

			b, ok := buckets[req.ID]
			if !ok {
				b = newBuckets(req)
				buckets[req.ID] = b
				bucketOrder = append(bucketOrder, req.ID)
			}
			b.applicable[emp.ID] = struct{}{}

			switch status {
			case StatusMissing:
				b.missing[emp.ID] = struct{}{}
				res.KPIs.MissingItems++
			case StatusExpired:
				b.expired[emp.ID] = struct{}{}
				res.KPIs.ExpiredItems++
			case StatusExpiring:
				b.expiring[emp.ID] = struct{}{}
				res.KPIs.ExpiringItems++
			case StatusWaived:
				b.waived[emp.ID] = struct{}{}
				res.KPIs.WaivedItems++
			case StatusValid:
				res.KPIs.ValidItems++
			}

			if status.IsBlocking() {
				rollup.BlockingItems = append(rollup.BlockingItems, req.Code)
				res.KPIs.BlockingItems++
				anyBlocking = true
			} else if status.IsWarning() {
				rollup.ExpiringItems = append(rollup.ExpiringItems, req.Code)
				anyExpiring = true
			}
		}

		switch {
		case len(rollup.BlockingItems) > 0:
			rollup.Status = EmployeeBlocked
			res.KPIs.EmployeesBlocked++
		case len(rollup.ExpiringItems) > 0:
			rollup.Status = EmployeeWarning
			res.KPIs.EmployeesWarning++
		default:
			rollup.Status = EmployeeOK
			res.KPIs.EmployeesOK++
		}
		res.ByEmployee = append(res.ByEmployee, rollup)
	}

	switch {
	case anyBlocking:
		res.ReadinessFlag = LegalNoGo
	case anyExpiring:
		res.ReadinessFlag = LegalWarning
	default:
		res.ReadinessFlag = LegalGo
	}

	for _, id := range bucketOrder {
		b := buckets[id]
		blocking := make(map[string]struct{}, len(b.missing)+len(b.expired))
		for e := range b.missing {
			blocking[e] = struct{}{}
		}
		for e := range b.expired {
			blocking[e] = struct{}{}
		}
		res.ByRequirement = append(res.ByRequirement, RequirementRollup{
			RequirementID:           b.req.ID,
			RequirementCode:         b.req.Code,
			RequirementName:         b.req.Name,
			Category:                b.req.Category,
			ApplicableEmployeeCount: len(b.applicable),
			BlockingCount:           len(blocking),
			ExpiringCount:           len(b.expiring),
			MissingCount:            len(b.missing),
			ExpiredCount:            len(b.expired),
			WaivedCount:             len(b.waived),
		})
	}

	SortRequirements(res.ByRequirement)
	SortEmployees(res.ByEmployee)
	res.ByRequirement, res.HasMoreRequirements = Truncate(res.ByRequirement, opts.TopRequirements)
	res.ByEmployee, res.HasMoreEmployees = Truncate(res.ByEmployee, opts.TopEmployees)
	res.ExpiringSample = ExpiringSample(res.Rows, opts.SampleSize)

	return res
}

// ── Ordering ─────────────────────────────────────────────────────

// SortRequirements orders by (blocking + expiring) descending, then code.
func SortRequirements(items []RequirementRollup) {
	sort.SliceStable(items, func(i, j int) bool {
		ai := items[i].BlockingCount + items[i].ExpiringCount
		aj := items[j].BlockingCount + items[j].ExpiringCount
		if ai != aj {
			return ai > aj
		}
		return items[i].RequirementCode < items[j].RequirementCode
	})
}

// SortEmployees orders BLOCKED, WARNING, OK, then by display name.
func SortEmployees(items []EmployeeRollup) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := items[i].Status.severity(), items[j].Status.severity()
		if si != sj {
			return si < sj
		}
		return items[i].EmployeeName < items[j].EmployeeName
	})
}

// ExpiringSample returns up to n expired/expiring rows, expired first and
// then by ascending valid_to. Rows without valid_to go last.
func ExpiringSample(rows []StatusRow, n int) []StatusRow {
	sample := []StatusRow{}
	for _, r := range rows {
		if r.Status == StatusExpired || r.Status == StatusExpiring {
			sample = append(sample, r)
		}
	}
	sort.SliceStable(sample, func(i, j int) bool {
		ei, ej := sample[i].Status == StatusExpired, sample[j].Status == StatusExpired
		if ei != ej {
			return ei
		}
		vi, vj := sample[i].validToString(), sample[j].validToString()
		if (vi == "") != (vj == "") {
			return vj == ""
		}
		return vi < vj
	})
	sample, _ = Truncate(sample, n)
	return sample
}

// Truncate caps a sorted list at n and reports whether anything was cut.
func Truncate[T any](items []T, n int) ([]T, bool) {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items, false
	}
	return items[:n], true
}
