package database

import (
	"context"
	"fmt"

	"readiness-backend/internal/readiness"
)

var (
	_ readiness.RosterResolver         = (*Store)(nil)
	_ readiness.CatalogSource          = (*Store)(nil)
	_ readiness.EmployeeSource         = (*Store)(nil)
	_ readiness.ComplianceRecordSource = (*Store)(nil)
	_ readiness.StationSource          = (*Store)(nil)
	_ readiness.SkillSource            = (*Store)(nil)
	_ readiness.SetupSource            = (*Store)(nil)
)

// Sources wires the store into every readiness source slot.
func (s *Store) Sources() readiness.Sources {
	return readiness.Sources{
		Roster:    s,
		Catalog:   s,
		Employees: s,
		Records:   s,
		Stations:  s,
		Skills:    s,
		Setup:     s,
	}
}

// Resolve returns the distinct employees rostered on the shift.
func (s *Store) Resolve(ctx context.Context, orgID string, siteID *string, date string, shift readiness.ShiftCode) ([]string, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT employee_id::text
		FROM shift_rosters
		WHERE org_id = $1
		  AND shift_date = $2::date
		  AND shift_code = $3
		  AND ($4::uuid IS NULL OR site_id = $4::uuid)
		ORDER BY 1
	`, orgID, date, string(shift), siteID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return ids, nil
}

// SnapshotTargets lists every (org, site, shift) with roster rows on date.
func (s *Store) SnapshotTargets(ctx context.Context, date string) ([]readiness.Query, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT org_id::text, COALESCE(site_id::text, ''), shift_code
		FROM shift_rosters
		WHERE shift_date = $1::date
		ORDER BY 1, 2, 3
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query snapshot targets: %w", err)
	}
	defer rows.Close()

	var targets []readiness.Query
	for rows.Next() {
		var orgID, siteID, shift string
		if err := rows.Scan(&orgID, &siteID, &shift); err != nil {
			return nil, fmt.Errorf("scan snapshot target: %w", err)
		}
		targets = append(targets, readiness.Query{
			OrgID:     orgID,
			SiteID:    nullable(siteID),
			Date:      date,
			ShiftCode: readiness.ShiftCode(shift),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot targets: %w", err)
	}
	return targets, nil
}
