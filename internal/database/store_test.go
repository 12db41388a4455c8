package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-backend/internal/readiness"
)

const testOrg = "7b1c2f9e-2a4d-4c55-9f0a-1d2e3f4a5b6c"

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestResolve(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM shift_rosters`).
			WithArgs(testOrg, "2026-03-10", "Night", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"employee_id"}).AddRow("e1").AddRow("e2"))

		ids, err := store.Resolve(ctx, testOrg, nil, "2026-03-10", readiness.ShiftNight)
		require.NoError(t, err)
		assert.Equal(t, []string{"e1", "e2"}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`FROM shift_rosters`).
			WithArgs(testOrg, "2026-03-10", "Day", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"employee_id"}))

		ids, err := store.Resolve(ctx, testOrg, nil, "2026-03-10", readiness.ShiftDay)
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`FROM shift_rosters`).
			WithArgs(testOrg, "2026-03-10", "Day", pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		ids, err := store.Resolve(ctx, testOrg, nil, "2026-03-10", readiness.ShiftDay)
		assert.Nil(t, ids)
		assert.ErrorContains(t, err, "query roster")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestActiveEmployees(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	ids := []string{"e1", "e2"}

	mock.ExpectQuery(`FROM employees`).
		WithArgs(testOrg, ids, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "first_name", "last_name", "employee_number", "line", "site_id", "is_active",
		}).
			AddRow("e1", "", "Ada", "Lovelace", "E-001", "L1", "site-1", true).
			AddRow("e2", "Bob", "", "", "", "", "", true))
	mock.ExpectQuery(`(?s)FROM employee_roles.*ORDER BY er\.employee_id, COALESCE\(er\.is_primary, FALSE\) DESC, r\.name`).
		WithArgs(testOrg, ids).
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "name"}).AddRow("e1", "welder"))

	employees, err := store.ActiveEmployees(ctx, testOrg, nil, ids)
	require.NoError(t, err)
	require.Len(t, employees, 2)

	assert.Equal(t, "Ada Lovelace", employees[0].DisplayName())
	assert.Equal(t, "L1", employees[0].LineValue())
	assert.Equal(t, "welder", employees[0].RoleValue())
	assert.Nil(t, employees[0].Name)

	assert.Equal(t, "Bob", employees[1].DisplayName())
	assert.Nil(t, employees[1].Line)
	assert.Nil(t, employees[1].Role)
	assert.Nil(t, employees[1].SiteID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveEmployees_NoIDsNoQuery(t *testing.T) {
	store, mock := newMockStore(t)

	employees, err := store.ActiveEmployees(context.Background(), testOrg, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, employees)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveEmployees_RoleQueryFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM employees`).
		WithArgs(testOrg, []string{"e1"}, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "first_name", "last_name", "employee_number", "line", "site_id", "is_active",
		}).AddRow("e1", "Ann", "", "", "", "", "", true))
	mock.ExpectQuery(`FROM employee_roles`).
		WithArgs(testOrg, []string{"e1"}).
		WillReturnError(errors.New("timeout"))

	_, err := store.ActiveEmployees(context.Background(), testOrg, nil, []string{"e1"})
	assert.ErrorContains(t, err, "query employee roles")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogAndRules(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM compliance_catalog`).
		WithArgs(testOrg).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "category", "is_active"}).
			AddRow("r1", "SAFETY", "Safety induction", "training", true))
	mock.ExpectQuery(`FROM compliance_applicability_rules`).
		WithArgs(testOrg).
		WillReturnRows(pgxmock.NewRows([]string{"compliance_id", "applies_globally", "applies_to_line", "applies_to_role"}).
			AddRow("r1", false, "L2", "").
			AddRow("r1", true, "", ""))

	reqs, err := store.ActiveRequirements(ctx, testOrg)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "SAFETY", reqs[0].Code)

	rules, err := store.ApplicabilityRules(ctx, testOrg)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.NotNil(t, rules[0].AppliesToLine)
	assert.Equal(t, "L2", *rules[0].AppliesToLine)
	assert.Nil(t, rules[0].AppliesToRole)
	assert.True(t, rules[1].AppliesGlobally)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForEmployees(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM employee_compliance`).
			WithArgs(testOrg, []string{"e1", "e2"}).
			WillReturnRows(pgxmock.NewRows([]string{"employee_id", "compliance_id", "valid_to", "waived"}).
				AddRow("e1", "r1", "2026-04-01", false).
				AddRow("e2", "r1", "", true))

		records, err := store.ForEmployees(ctx, testOrg, []string{"e1", "e2"})
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.NotNil(t, records[0].ValidTo)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *records[0].ValidTo)
		assert.Nil(t, records[1].ValidTo)
		assert.True(t, records[1].Waived)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Malformed Date", func(t *testing.T) {
		mock.ExpectQuery(`FROM employee_compliance`).
			WithArgs(testOrg, []string{"e1"}).
			WillReturnRows(pgxmock.NewRows([]string{"employee_id", "compliance_id", "valid_to", "waived"}).
				AddRow("e1", "r1", "01/04/2026", false))

		_, err := store.ForEmployees(ctx, testOrg, []string{"e1"})
		assert.ErrorContains(t, err, "parse valid_to")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStationsRequirementsSkillsLevels(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM stations`).
		WithArgs(testOrg, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "line", "is_active"}).
			AddRow("s1", "PRESS", "Press", "L1", true))
	mock.ExpectQuery(`FROM station_skill_requirements`).
		WithArgs(testOrg, []string{"s1"}).
		WillReturnRows(pgxmock.NewRows([]string{"station_id", "skill_id", "required_level", "is_mandatory"}).
			AddRow("s1", "k1", 2, true).
			AddRow("s1", "k2", 1, false))
	mock.ExpectQuery(`FROM skills`).
		WithArgs(testOrg, []string{"k1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name"}).AddRow("k1", "WELD", "Welding"))
	mock.ExpectQuery(`FROM employee_skills`).
		WithArgs(testOrg, []string{"e1"}).
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "skill_id", "level"}).AddRow("e1", "k1", 3))

	stations, err := store.ActiveStations(ctx, testOrg, nil)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "L1", *stations[0].Line)

	reqs, err := store.StationRequirements(ctx, testOrg, []string{"s1"})
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].Mandatory())
	assert.False(t, reqs[1].Mandatory())

	skills, err := store.SkillsByIDs(ctx, testOrg, []string{"k1"})
	require.NoError(t, err)
	assert.Equal(t, "WELD", skills[0].Code)

	levels, err := store.LevelsForEmployees(ctx, testOrg, []string{"e1"})
	require.NoError(t, err)
	assert.Equal(t, 3, levels[0].Level)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetupCounts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM v_employee_compliance_status`).
		WithArgs(testOrg).
		WillReturnRows(pgxmock.NewRows([]string{
			"stations", "employees", "skills", "requirements", "ratings",
			"stations_with_requirements", "stations_with_eligible",
			"catalog", "compliance_employees", "compliance_valid",
			"demand_gaps", "illegal_issues",
		}).AddRow(4, 10, 3, 8, 20, 4, 3, 2, 10, 7, 1, 0))

	counts, err := store.SetupCounts(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Stations)
	assert.Equal(t, 3, counts.StationsWithEligible)
	assert.Equal(t, 7, counts.ComplianceValid)
	assert.Equal(t, 0, counts.OpenIllegalIssues)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotTargets(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT DISTINCT org_id`).
		WithArgs("2026-03-10").
		WillReturnRows(pgxmock.NewRows([]string{"org_id", "site_id", "shift_code"}).
			AddRow(testOrg, "", "Day").
			AddRow(testOrg, "site-1", "Night"))

	targets, err := store.SnapshotTargets(context.Background(), "2026-03-10")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Nil(t, targets[0].SiteID)
	assert.Equal(t, readiness.ShiftDay, targets[0].ShiftCode)
	require.NotNil(t, targets[1].SiteID)
	assert.Equal(t, "site-1", *targets[1].SiteID)
	assert.Equal(t, "2026-03-10", targets[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}
