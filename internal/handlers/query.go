package handlers

import (
	"net/http"
	"strings"

	"readiness-backend/internal/ctxkeys"
	"readiness-backend/internal/readiness"
)

// parseQuery builds a readiness query from the URL. The organization always
// comes from the token; any org_id in the URL is ignored.
func parseQuery(r *http.Request) readiness.Query {
	v := r.URL.Query()
	q := readiness.Query{
		OrgID:     ctxkeys.GetOrgID(r.Context()),
		SiteID:    optionalID(v.Get("site_id")),
		StationID: optionalID(v.Get("station_id")),
		Date:      strings.TrimSpace(v.Get("date")),
		ShiftCode: readiness.ShiftCode(strings.TrimSpace(v.Get("shift_code"))),
	}
	switch strings.ToLower(v.Get("debug")) {
	case "1", "true", "yes":
		q.Debug = true
	}
	return q
}

// snapshotRequest is the body of POST /api/readiness/snapshots.
type snapshotRequest struct {
	SiteID    string `json:"site_id"`
	Date      string `json:"date"`
	ShiftCode string `json:"shift_code"`
}

func (req snapshotRequest) query(orgID string) readiness.Query {
	return readiness.Query{
		OrgID:     orgID,
		SiteID:    optionalID(req.SiteID),
		Date:      strings.TrimSpace(req.Date),
		ShiftCode: readiness.ShiftCode(strings.TrimSpace(req.ShiftCode)),
	}
}

func optionalID(raw string) *string {
	id := readiness.NormalizeID(raw)
	if id == "" {
		return nil
	}
	return &id
}
