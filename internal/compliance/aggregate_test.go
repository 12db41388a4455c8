package compliance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-backend/internal/models"
)

func emp(id, name string) models.Employee {
	return models.Employee{ID: id, Name: strPtr(name), IsActive: true}
}

func req(id, code string) models.Requirement {
	return models.Requirement{ID: id, Code: code, Name: code + " certificate", IsActive: true}
}

// twoEmployeeScenario: A has no record (missing), B expires in five days.
func twoEmployeeScenario() Input {
	return Input{
		RosterEmployeeIDs: []string{"a", "b"},
		Employees:         []models.Employee{emp("a", "Alice"), emp("b", "Bob")},
		Catalog:           []models.Requirement{req("r1", "SAFETY")},
		Rules:             []models.ApplicabilityRule{{ComplianceID: "r1", AppliesGlobally: true}},
		Records: []models.ComplianceRecord{
			{EmployeeID: "b", ComplianceID: "r1", ValidTo: daysFromNow(5)},
		},
		Now: testNow,
	}
}

func TestAggregate_MissingAndExpiring(t *testing.T) {
	res := Aggregate(twoEmployeeScenario(), DefaultOptions())

	assert.Equal(t, LegalNoGo, res.ReadinessFlag)
	require.Len(t, res.ByRequirement, 1)
	assert.Equal(t, 1, res.ByRequirement[0].MissingCount)
	assert.Equal(t, 1, res.ByRequirement[0].BlockingCount)
	assert.Equal(t, 1, res.ByRequirement[0].ExpiringCount)

	require.Len(t, res.ByEmployee, 2)
	assert.Equal(t, "a", res.ByEmployee[0].EmployeeID)
	assert.Equal(t, EmployeeBlocked, res.ByEmployee[0].Status)
	assert.Equal(t, []string{"SAFETY"}, res.ByEmployee[0].BlockingItems)
	assert.Equal(t, "b", res.ByEmployee[1].EmployeeID)
	assert.Equal(t, EmployeeWarning, res.ByEmployee[1].Status)
	assert.Equal(t, []string{"SAFETY"}, res.ByEmployee[1].ExpiringItems)

	assert.Equal(t, 2, res.KPIs.RosterEmployees)
	assert.Equal(t, 2, res.KPIs.EvaluatedPairs)
	assert.Equal(t, 1, res.KPIs.EmployeesBlocked)
	assert.Equal(t, 1, res.KPIs.EmployeesWarning)
}

func TestAggregate_WaivingTheBlockerLeavesWarning(t *testing.T) {
	in := twoEmployeeScenario()
	in.Records = append(in.Records, models.ComplianceRecord{EmployeeID: "a", ComplianceID: "r1", Waived: true})

	res := Aggregate(in, DefaultOptions())

	assert.Equal(t, LegalWarning, res.ReadinessFlag)
	assert.Equal(t, EmployeeWarning, res.ByEmployee[0].Status)
	assert.Equal(t, "b", res.ByEmployee[0].EmployeeID)
	assert.Equal(t, EmployeeOK, res.ByEmployee[1].Status)
	assert.Equal(t, 1, res.KPIs.WaivedItems)
}

func TestAggregate_HealthyRecordsNeverLowerNoGo(t *testing.T) {
	in := twoEmployeeScenario()
	base := Aggregate(in, DefaultOptions())
	require.Equal(t, LegalNoGo, base.ReadinessFlag)

	in.Catalog = append(in.Catalog, req("r2", "FIRST_AID"), req("r3", "HYGIENE"))
	in.Records = append(in.Records,
		models.ComplianceRecord{EmployeeID: "a", ComplianceID: "r2", ValidTo: daysFromNow(365)},
		models.ComplianceRecord{EmployeeID: "b", ComplianceID: "r2", Waived: true},
		models.ComplianceRecord{EmployeeID: "a", ComplianceID: "r3", Waived: true},
		models.ComplianceRecord{EmployeeID: "b", ComplianceID: "r3", ValidTo: daysFromNow(120)},
	)

	assert.Equal(t, LegalNoGo, Aggregate(in, DefaultOptions()).ReadinessFlag)
}

func TestAggregate_AllHealthyIsGo(t *testing.T) {
	in := twoEmployeeScenario()
	in.Records = []models.ComplianceRecord{
		{EmployeeID: "a", ComplianceID: "r1", ValidTo: daysFromNow(90)},
		{EmployeeID: "b", ComplianceID: "r1", Waived: true},
	}

	res := Aggregate(in, DefaultOptions())

	assert.Equal(t, LegalGo, res.ReadinessFlag)
	assert.Empty(t, res.ExpiringSample)
	assert.Equal(t, 2, res.KPIs.EmployeesOK)
}

func TestAggregate_EmptyRoster(t *testing.T) {
	in := twoEmployeeScenario()
	in.RosterEmployeeIDs = nil

	res := Aggregate(in, DefaultOptions())

	assert.Equal(t, LegalGo, res.ReadinessFlag)
	assert.Equal(t, KPIs{}, res.KPIs)
	assert.Empty(t, res.ByRequirement)
	assert.Empty(t, res.ByEmployee)
	assert.Empty(t, res.ExpiringSample)
	assert.False(t, res.HasMoreEmployees)
	assert.False(t, res.HasMoreRequirements)
}

func TestAggregate_SkipsInactiveAndOffRoster(t *testing.T) {
	in := twoEmployeeScenario()
	inactive := emp("c", "Carol")
	inactive.IsActive = false
	in.Employees = append(in.Employees, inactive, emp("d", "Dan"))
	in.RosterEmployeeIDs = append(in.RosterEmployeeIDs, "c")
	in.Catalog = append(in.Catalog, models.Requirement{ID: "r9", Code: "RETIRED", IsActive: false})

	res := Aggregate(in, DefaultOptions())

	assert.Equal(t, 2, res.KPIs.RosterEmployees)
	assert.Equal(t, 1, res.KPIs.CatalogItems)
	for _, e := range res.ByEmployee {
		assert.NotContains(t, []string{"c", "d"}, e.EmployeeID)
	}
}

func TestAggregate_DuplicateRowsDoNotDoubleCount(t *testing.T) {
	in := twoEmployeeScenario()
	in.Employees = append(in.Employees, emp("a", "Alice"))
	in.RosterEmployeeIDs = append(in.RosterEmployeeIDs, "a")

	res := Aggregate(in, DefaultOptions())

	require.Len(t, res.ByRequirement, 1)
	assert.Equal(t, 1, res.ByRequirement[0].MissingCount)
	assert.Equal(t, 2, res.ByRequirement[0].ApplicableEmployeeCount)
	assert.Len(t, res.ByEmployee, 2)
}

func TestAggregate_RequirementOrdering(t *testing.T) {
	in := Input{
		RosterEmployeeIDs: []string{"a", "b"},
		Employees:         []models.Employee{emp("a", "Alice"), emp("b", "Bob")},
		Catalog: []models.Requirement{
			req("r1", "ZULU"), req("r2", "ALPHA"), req("r3", "MIKE"), req("r4", "BRAVO"),
		},
		Records: []models.ComplianceRecord{
			// ZULU: both healthy → 0 issues
			{EmployeeID: "a", ComplianceID: "r1", ValidTo: daysFromNow(100)},
			{EmployeeID: "b", ComplianceID: "r1", ValidTo: daysFromNow(100)},
			// ALPHA: one expiring → 1
			{EmployeeID: "a", ComplianceID: "r2", ValidTo: daysFromNow(100)},
			{EmployeeID: "b", ComplianceID: "r2", ValidTo: daysFromNow(3)},
			// MIKE: both missing → 2
			// BRAVO: one expired → 1
			{EmployeeID: "a", ComplianceID: "r4", ValidTo: daysFromNow(-2)},
			{EmployeeID: "b", ComplianceID: "r4", ValidTo: daysFromNow(100)},
		},
		Now: testNow,
	}

	res := Aggregate(in, DefaultOptions())

	var codes []string
	for _, r := range res.ByRequirement {
		codes = append(codes, r.RequirementCode)
	}
	assert.Equal(t, []string{"MIKE", "ALPHA", "BRAVO", "ZULU"}, codes)
}

func TestAggregate_TruncationKeepsMostSevere(t *testing.T) {
	var in Input
	in.Now = testNow
	in.Catalog = []models.Requirement{req("r1", "SAFETY")}
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("e%02d", i)
		in.RosterEmployeeIDs = append(in.RosterEmployeeIDs, id)
		in.Employees = append(in.Employees, emp(id, fmt.Sprintf("Employee %02d", i)))
		switch {
		case i%3 == 0:
			// missing
		case i%3 == 1:
			in.Records = append(in.Records, models.ComplianceRecord{EmployeeID: id, ComplianceID: "r1", ValidTo: daysFromNow(10)})
		default:
			in.Records = append(in.Records, models.ComplianceRecord{EmployeeID: id, ComplianceID: "r1", ValidTo: daysFromNow(100)})
		}
	}

	full := Aggregate(in, Options{TopRequirements: 100, TopEmployees: 100, SampleSize: 100, TreatEmptyRuleAsWildcard: true})
	require.Len(t, full.ByEmployee, 60)

	for _, n := range []int{60, 50, 25, 20, 1, 0} {
		opts := DefaultOptions()
		opts.TopEmployees = n
		res := Aggregate(in, opts)

		require.Len(t, res.ByEmployee, n)
		assert.Equal(t, full.ByEmployee[:n], res.ByEmployee)
		assert.Equal(t, n < 60, res.HasMoreEmployees)
	}

	res := Aggregate(in, DefaultOptions())
	assert.Len(t, res.ByEmployee, DefaultTopEmployees)
	assert.True(t, res.HasMoreEmployees)
	for _, e := range res.ByEmployee[:20] {
		assert.Equal(t, EmployeeBlocked, e.Status)
	}
	assert.Len(t, res.ExpiringSample, DefaultSampleSize)
}

func TestAggregate_EmployeesSortedByNameWithinSeverity(t *testing.T) {
	in := Input{
		RosterEmployeeIDs: []string{"1", "2", "3"},
		Employees:         []models.Employee{emp("1", "Zoe"), emp("2", "Adam"), emp("3", "Mia")},
		Catalog:           []models.Requirement{req("r1", "SAFETY")},
		Now:               testNow,
	}

	res := Aggregate(in, DefaultOptions())

	var names []string
	for _, e := range res.ByEmployee {
		names = append(names, e.EmployeeName)
	}
	assert.Equal(t, []string{"Adam", "Mia", "Zoe"}, names)
}

func TestExpiringSample_Order(t *testing.T) {
	d := func(s string) *string { return &s }
	rows := []StatusRow{
		{EmployeeID: "1", Status: StatusExpiring, ValidTo: d("2026-03-20")},
		{EmployeeID: "2", Status: StatusValid, ValidTo: d("2027-01-01")},
		{EmployeeID: "3", Status: StatusExpired, ValidTo: d("2026-02-01")},
		{EmployeeID: "4", Status: StatusExpiring, ValidTo: d("2026-03-11")},
		{EmployeeID: "5", Status: StatusExpired, ValidTo: d("2025-12-31")},
		{EmployeeID: "6", Status: StatusMissing},
	}

	sample := ExpiringSample(rows, 10)

	var ids []string
	for _, r := range sample {
		ids = append(ids, r.EmployeeID)
	}
	assert.Equal(t, []string{"5", "3", "4", "1"}, ids)
	assert.Len(t, ExpiringSample(rows, 2), 2)
}
