package database

import (
	"context"
	"fmt"

	"readiness-backend/internal/models"
)

// SetupCounts gathers the org-wide counts in one round trip. Compliance
// counts come from the precomputed v_employee_compliance_status view.
func (s *Store) SetupCounts(ctx context.Context, orgID string) (*models.SetupCounts, error) {
	var c models.SetupCounts
	err := s.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM stations WHERE org_id = $1 AND is_active = TRUE),
			(SELECT COUNT(*) FROM employees WHERE org_id = $1 AND is_active = TRUE),
			(SELECT COUNT(*) FROM skills WHERE org_id = $1),
			(SELECT COUNT(*) FROM station_skill_requirements r
			   JOIN stations st ON st.id = r.station_id WHERE st.org_id = $1),
			(SELECT COUNT(*) FROM employee_skills es
			   JOIN skills sk ON sk.id = es.skill_id WHERE sk.org_id = $1),
			(SELECT COUNT(DISTINCT r.station_id) FROM station_skill_requirements r
			   JOIN stations st ON st.id = r.station_id
			   WHERE st.org_id = $1 AND st.is_active = TRUE AND COALESCE(r.is_mandatory, TRUE)),
			(SELECT COUNT(*) FROM stations st
			   WHERE st.org_id = $1 AND st.is_active = TRUE
			     AND EXISTS (
			       SELECT 1 FROM employees e
			       WHERE e.org_id = $1 AND e.is_active = TRUE
			         AND NOT EXISTS (
			           SELECT 1 FROM station_skill_requirements r
			           LEFT JOIN employee_skills es
			             ON es.skill_id = r.skill_id AND es.employee_id = e.id
			           WHERE r.station_id = st.id AND COALESCE(r.is_mandatory, TRUE)
			           GROUP BY r.skill_id, r.required_level
			           HAVING COALESCE(MAX(es.level), 0) < r.required_level))),
			(SELECT COUNT(*) FROM compliance_catalog WHERE org_id = $1 AND is_active = TRUE),
			(SELECT COUNT(DISTINCT employee_id) FROM v_employee_compliance_status WHERE org_id = $1),
			(SELECT COUNT(DISTINCT employee_id) FROM v_employee_compliance_status
			   WHERE org_id = $1 AND status = 'VALID'),
			(SELECT COUNT(*) FROM shift_demand_gaps WHERE org_id = $1),
			(SELECT COUNT(*) FROM compliance_issues
			   WHERE org_id = $1 AND issue_type = 'illegal' AND status = 'open')
	`, orgID).Scan(
		&c.Stations, &c.Employees, &c.Skills, &c.Requirements, &c.Ratings,
		&c.StationsWithRequirements, &c.StationsWithEligible,
		&c.ComplianceCatalogItems, &c.ComplianceEmployees, &c.ComplianceValid,
		&c.DemandGapRows, &c.OpenIllegalIssues,
	)
	if err != nil {
		return nil, fmt.Errorf("query setup counts: %w", err)
	}
	return &c, nil
}
