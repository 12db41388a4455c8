package database

import (
	"context"
	"fmt"
	"time"

	"readiness-backend/internal/models"
)

// ActiveRequirements loads the org's active compliance catalog.
func (s *Store) ActiveRequirements(ctx context.Context, orgID string) ([]models.Requirement, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id::text, code, COALESCE(name, code), COALESCE(category, ''), is_active
		FROM compliance_catalog
		WHERE org_id = $1 AND is_active = TRUE
		ORDER BY code
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query compliance catalog: %w", err)
	}
	defer rows.Close()

	reqs := []models.Requirement{}
	for rows.Next() {
		var r models.Requirement
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.Category, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan compliance item: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance catalog: %w", err)
	}
	return reqs, nil
}

// ApplicabilityRules loads every applicability rule of the org.
func (s *Store) ApplicabilityRules(ctx context.Context, orgID string) ([]models.ApplicabilityRule, error) {
	rows, err := s.q.Query(ctx, `
		SELECT compliance_id::text, COALESCE(applies_globally, FALSE),
		       COALESCE(applies_to_line, ''), COALESCE(applies_to_role, '')
		FROM compliance_applicability_rules
		WHERE org_id = $1
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query applicability rules: %w", err)
	}
	defer rows.Close()

	rules := []models.ApplicabilityRule{}
	for rows.Next() {
		var r models.ApplicabilityRule
		var line, role string
		if err := rows.Scan(&r.ComplianceID, &r.AppliesGlobally, &line, &role); err != nil {
			return nil, fmt.Errorf("scan applicability rule: %w", err)
		}
		r.AppliesToLine = nullable(line)
		r.AppliesToRole = nullable(role)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicability rules: %w", err)
	}
	return rules, nil
}

// ForEmployees loads the compliance records of the given employees.
// Rows come oldest valid_to first so a later duplicate supersedes it.
func (s *Store) ForEmployees(ctx context.Context, orgID string, employeeIDs []string) ([]models.ComplianceRecord, error) {
	if len(employeeIDs) == 0 {
		return []models.ComplianceRecord{}, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT employee_id::text, compliance_id::text,
		       COALESCE(valid_to::text, ''), COALESCE(waived, FALSE)
		FROM employee_compliance
		WHERE org_id = $1 AND employee_id = ANY($2::uuid[])
		ORDER BY valid_to NULLS FIRST
	`, orgID, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("query compliance records: %w", err)
	}
	defer rows.Close()

	records := []models.ComplianceRecord{}
	for rows.Next() {
		var r models.ComplianceRecord
		var validTo string
		if err := rows.Scan(&r.EmployeeID, &r.ComplianceID, &validTo, &r.Waived); err != nil {
			return nil, fmt.Errorf("scan compliance record: %w", err)
		}
		if validTo != "" {
			t, err := time.Parse("2006-01-02", validTo)
			if err != nil {
				return nil, fmt.Errorf("parse valid_to %q for employee %s: %w", validTo, r.EmployeeID, err)
			}
			r.ValidTo = &t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance records: %w", err)
	}
	return records, nil
}
