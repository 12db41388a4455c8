package database

import (
	"context"
	"fmt"

	"readiness-backend/internal/models"
)

// ActiveEmployees loads the active employees among ids, then attaches each
// one's primary role from employee_roles.
func (s *Store) ActiveEmployees(ctx context.Context, orgID string, siteID *string, ids []string) ([]models.Employee, error) {
	if len(ids) == 0 {
		return []models.Employee{}, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT id::text,
		       COALESCE(name, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(employee_number, ''), COALESCE(line, ''),
		       COALESCE(site_id::text, ''), is_active
		FROM employees
		WHERE org_id = $1
		  AND id = ANY($2::uuid[])
		  AND is_active = TRUE
		  AND ($3::uuid IS NULL OR site_id = $3::uuid)
	`, orgID, ids, siteID)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		var e models.Employee
		var name, first, last, number, line, employeeSite string
		if err := rows.Scan(&e.ID, &name, &first, &last, &number, &line, &employeeSite, &e.IsActive); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.Name = nullable(name)
		e.FirstName = nullable(first)
		e.LastName = nullable(last)
		e.EmployeeNumber = nullable(number)
		e.Line = nullable(line)
		e.SiteID = nullable(employeeSite)
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	if len(employees) == 0 {
		return employees, nil
	}

	roles, err := s.primaryRoles(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if role, ok := roles[employees[i].ID]; ok {
			employees[i].Role = nullable(role)
		}
	}
	return employees, nil
}

// primaryRoles maps employee id → primary role name. Without an explicit
// primary flag the alphabetically first role is used; a NULL flag counts
// as not primary.
func (s *Store) primaryRoles(ctx context.Context, orgID string, ids []string) (map[string]string, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT ON (er.employee_id) er.employee_id::text, r.name
		FROM employee_roles er
		JOIN roles r ON r.id = er.role_id
		WHERE r.org_id = $1
		  AND er.employee_id = ANY($2::uuid[])
		ORDER BY er.employee_id, COALESCE(er.is_primary, FALSE) DESC, r.name
	`, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("query employee roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]string, len(ids))
	for rows.Next() {
		var id, role string
		if err := rows.Scan(&id, &role); err != nil {
			return nil, fmt.Errorf("scan employee role: %w", err)
		}
		roles[id] = role
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee roles: %w", err)
	}
	return roles, nil
}
