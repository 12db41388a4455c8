package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readiness-backend/internal/compliance"
	"readiness-backend/internal/coverage"
	"readiness-backend/internal/readiness"
)

const (
	testSecret = "handler-secret"
	testOrg    = "7b0c6f5e-2a47-4d63-9d3b-1f1e8f0a9c11"
	testSite   = "c2d1a3b4-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
)

type stubEval struct {
	lastQuery   readiness.Query
	lastOrg     string
	err         error
	emptyRoster bool
}

func (s *stubEval) ShiftCompliance(_ context.Context, q readiness.Query) (*readiness.ComplianceReport, error) {
	s.lastQuery = q
	if err := q.Check(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	res := compliance.EmptyResult()
	if s.emptyRoster {
		res.Rows = nil
		return &readiness.ComplianceReport{Query: q, Result: res}, nil
	}
	res.Rows = []compliance.StatusRow{{EmployeeID: "e1", RequirementID: "r1", Status: compliance.StatusValid}}
	return &readiness.ComplianceReport{Query: q, Result: res}, nil
}

func (s *stubEval) ShiftCoverage(_ context.Context, q readiness.Query) (*readiness.CoverageReport, error) {
	s.lastQuery = q
	if err := q.Check(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &readiness.CoverageReport{Query: q, Result: coverage.EmptyResult()}, nil
}

func (s *stubEval) Setup(_ context.Context, orgID string) (*readiness.SetupSummary, error) {
	s.lastOrg = orgID
	if s.err != nil {
		return nil, s.err
	}
	return &readiness.SetupSummary{OK: true, Status: readiness.SetupGreen, Score: 90}, nil
}

type stubSnap struct {
	got readiness.Query
	err error
}

func (s *stubSnap) Snapshot(_ context.Context, q readiness.Query) (*readiness.SnapshotManifest, error) {
	s.got = q
	if s.err != nil {
		return nil, s.err
	}
	return &readiness.SnapshotManifest{ID: "snap-1", OrgID: q.OrgID, Date: q.Date, ShiftCode: q.ShiftCode}, nil
}

type stubHealth struct{ status string }

func (s stubHealth) Health() map[string]string { return map[string]string{"status": s.status} }

func newTestRouter(eval Evaluator, snap Snapshotter) http.Handler {
	h := NewReadinessHandler(eval, snap, zap.NewNop())
	return NewRouter(RouterConfig{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, stubHealth{status: "up"}, h, zap.NewNop())
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"orgId": testOrg,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, router http.Handler, method, target, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if role != "" {
		req.Header.Set("Authorization", bearer(t, role))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestComplianceOverview(t *testing.T) {
	eval := &stubEval{}
	router := newTestRouter(eval, nil)

	t.Run("Success", func(t *testing.T) {
		rec := do(t, router, http.MethodGet,
			"/api/compliance/overview-v2?date=2026-10-15&shift_code=Day&site_id="+strings.ToUpper(testSite)+"&org_id=other", "viewer", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "LEGAL_GO", body["readiness_flag"])
		assert.NotContains(t, body, "rows")
		assert.NotContains(t, body, "_debug")

		assert.Equal(t, testOrg, eval.lastQuery.OrgID)
		require.NotNil(t, eval.lastQuery.SiteID)
		assert.Equal(t, testSite, *eval.lastQuery.SiteID)
		assert.Equal(t, readiness.ShiftDay, eval.lastQuery.ShiftCode)
		assert.False(t, eval.lastQuery.Debug)
	})

	t.Run("Validation Error", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/compliance/overview-v2?date=15-10-2026&shift_code=Morning", "viewer", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "validate", body["step"])
		details := body["details"].(map[string]interface{})
		assert.Contains(t, details, "date")
		assert.Contains(t, details, "shift_code")
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/compliance/overview-v2?date=2026-10-15&shift_code=Day", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestComplianceMatrixIncludesRows(t *testing.T) {
	router := newTestRouter(&stubEval{}, nil)

	rec := do(t, router, http.MethodGet, "/api/compliance/matrix-v2?date=2026-10-15&shift_code=Night&debug=1", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	rows := body["rows"].([]interface{})
	assert.Len(t, rows, 1)
	assert.Contains(t, body, "_debug")
}

func TestComplianceMatrixEmptyRoster(t *testing.T) {
	router := newTestRouter(&stubEval{emptyRoster: true}, nil)

	rec := do(t, router, http.MethodGet, "/api/compliance/matrix-v2?date=2026-10-15&shift_code=Day", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Contains(t, body, "rows")
	assert.Equal(t, []interface{}{}, body["rows"])
	assert.Equal(t, "LEGAL_GO", body["readiness_flag"])
	assert.NotContains(t, body, "_debug")
}

func TestStepErrorResponse(t *testing.T) {
	t.Run("Database Error", func(t *testing.T) {
		eval := &stubEval{err: &readiness.StepError{Step: readiness.StepRecords, Err: errors.New("pq: relation missing")}}
		rec := do(t, newTestRouter(eval, nil), http.MethodGet, "/api/compliance/overview-v2?date=2026-10-15&shift_code=Day", "viewer", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "records", body["step"])
		assert.Equal(t, "failed to load records", body["error"])
		assert.NotContains(t, rec.Body.String(), "relation missing")
	})

	t.Run("Timeout", func(t *testing.T) {
		eval := &stubEval{err: &readiness.StepError{Step: readiness.StepStationRequirements, Err: context.DeadlineExceeded}}
		rec := do(t, newTestRouter(eval, nil), http.MethodGet, "/api/competence/matrix-v2?date=2026-10-15&shift_code=S1", "viewer", "")

		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, "timed out while loading station requirements", decode(t, rec)["error"])
	})
}

func TestCompetenceMatrix(t *testing.T) {
	eval := &stubEval{}
	rec := do(t, newTestRouter(eval, nil), http.MethodGet,
		"/api/competence/matrix-v2?date=2026-10-15&shift_code=S2&station_id="+testSite, "supervisor", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "OPS_GO", body["ops_readiness_flag"])
	require.NotNil(t, eval.lastQuery.StationID)
	assert.Equal(t, testSite, *eval.lastQuery.StationID)
}

func TestSetupReadiness(t *testing.T) {
	eval := &stubEval{}
	rec := do(t, newTestRouter(eval, nil), http.MethodGet, "/api/setup/readiness", "viewer", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOrg, eval.lastOrg)
	body := decode(t, rec)
	assert.Equal(t, "GREEN", body["status"])
	assert.EqualValues(t, 90, body["score"])
}

func TestCreateSnapshot(t *testing.T) {
	payload := `{"date":"2026-10-15","shift_code":"Evening","site_id":"` + testSite + `"}`

	t.Run("Success", func(t *testing.T) {
		snap := &stubSnap{}
		rec := do(t, newTestRouter(&stubEval{}, snap), http.MethodPost, "/api/readiness/snapshots", "admin", payload)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, testOrg, snap.got.OrgID)
		assert.Equal(t, readiness.ShiftEvening, snap.got.ShiftCode)
		snapshot := decode(t, rec)["snapshot"].(map[string]interface{})
		assert.Equal(t, "snap-1", snapshot["id"])
	})

	t.Run("Forbidden", func(t *testing.T) {
		rec := do(t, newTestRouter(&stubEval{}, &stubSnap{}), http.MethodPost, "/api/readiness/snapshots", "supervisor", payload)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Not Configured", func(t *testing.T) {
		rec := do(t, newTestRouter(&stubEval{}, nil), http.MethodPost, "/api/readiness/snapshots", "admin", payload)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		rec := do(t, newTestRouter(&stubEval{}, &stubSnap{}), http.MethodPost, "/api/readiness/snapshots", "admin", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Archive Error", func(t *testing.T) {
		snap := &stubSnap{err: &readiness.StepError{Step: readiness.StepArchive, Err: errors.New("bucket gone")}}
		rec := do(t, newTestRouter(&stubEval{}, snap), http.MethodPost, "/api/readiness/snapshots", "admin", payload)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "archive", decode(t, rec)["step"])
	})
}

func TestHealth(t *testing.T) {
	router := NewRouter(RouterConfig{JWTSecret: testSecret, RateLimitRPS: 1, RateLimitBurst: 1},
		stubHealth{status: "down"}, NewReadinessHandler(&stubEval{}, nil, nil), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOptionalID(t *testing.T) {
	assert.Nil(t, optionalID("   "))
	id := optionalID(" " + strings.ToUpper(testSite) + " ")
	require.NotNil(t, id)
	assert.Equal(t, testSite, *id)
}
