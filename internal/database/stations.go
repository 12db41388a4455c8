package database

import (
	"context"
	"fmt"

	"readiness-backend/internal/models"
)

// ActiveStations loads active stations, optionally just one.
func (s *Store) ActiveStations(ctx context.Context, orgID string, stationID *string) ([]models.Station, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id::text, code, COALESCE(name, code), COALESCE(line, ''), is_active
		FROM stations
		WHERE org_id = $1
		  AND is_active = TRUE
		  AND ($2::uuid IS NULL OR id = $2::uuid)
		ORDER BY code
	`, orgID, stationID)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	stations := []models.Station{}
	for rows.Next() {
		var st models.Station
		var line string
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &line, &st.IsActive); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		st.Line = nullable(line)
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return stations, nil
}

// StationRequirements loads the skill requirements of the given stations.
// A NULL is_mandatory counts as mandatory.
func (s *Store) StationRequirements(ctx context.Context, orgID string, stationIDs []string) ([]models.StationSkillRequirement, error) {
	if len(stationIDs) == 0 {
		return []models.StationSkillRequirement{}, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT r.station_id::text, r.skill_id::text, r.required_level,
		       COALESCE(r.is_mandatory, TRUE)
		FROM station_skill_requirements r
		JOIN stations st ON st.id = r.station_id
		WHERE st.org_id = $1 AND r.station_id = ANY($2::uuid[])
	`, orgID, stationIDs)
	if err != nil {
		return nil, fmt.Errorf("query station requirements: %w", err)
	}
	defer rows.Close()

	reqs := []models.StationSkillRequirement{}
	for rows.Next() {
		var r models.StationSkillRequirement
		var mandatory bool
		if err := rows.Scan(&r.StationID, &r.SkillID, &r.RequiredLevel, &mandatory); err != nil {
			return nil, fmt.Errorf("scan station requirement: %w", err)
		}
		r.IsMandatory = &mandatory
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate station requirements: %w", err)
	}
	return reqs, nil
}

// SkillsByIDs loads the named skills.
func (s *Store) SkillsByIDs(ctx context.Context, orgID string, ids []string) ([]models.Skill, error) {
	if len(ids) == 0 {
		return []models.Skill{}, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT id::text, code, COALESCE(name, code)
		FROM skills
		WHERE org_id = $1 AND id = ANY($2::uuid[])
	`, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	skills := []models.Skill{}
	for rows.Next() {
		var sk models.Skill
		if err := rows.Scan(&sk.ID, &sk.Code, &sk.Name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return skills, nil
}

// LevelsForEmployees loads every skill level held by the given employees.
func (s *Store) LevelsForEmployees(ctx context.Context, orgID string, employeeIDs []string) ([]models.EmployeeSkillLevel, error) {
	if len(employeeIDs) == 0 {
		return []models.EmployeeSkillLevel{}, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT es.employee_id::text, es.skill_id::text, COALESCE(es.level, 0)
		FROM employee_skills es
		JOIN skills sk ON sk.id = es.skill_id
		WHERE sk.org_id = $1 AND es.employee_id = ANY($2::uuid[])
	`, orgID, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("query skill levels: %w", err)
	}
	defer rows.Close()

	levels := []models.EmployeeSkillLevel{}
	for rows.Next() {
		var l models.EmployeeSkillLevel
		if err := rows.Scan(&l.EmployeeID, &l.SkillID, &l.Level); err != nil {
			return nil, fmt.Errorf("scan skill level: %w", err)
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skill levels: %w", err)
	}
	return levels, nil
}
