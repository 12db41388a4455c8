package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"readiness-backend/internal/ctxkeys"
	"readiness-backend/internal/readiness"
)

// Evaluator computes the readiness axes of a shift.
type Evaluator interface {
	ShiftCompliance(ctx context.Context, q readiness.Query) (*readiness.ComplianceReport, error)
	ShiftCoverage(ctx context.Context, q readiness.Query) (*readiness.CoverageReport, error)
	Setup(ctx context.Context, orgID string) (*readiness.SetupSummary, error)
}

// Snapshotter archives a shift's evaluation.
type Snapshotter interface {
	Snapshot(ctx context.Context, q readiness.Query) (*readiness.SnapshotManifest, error)
}

// ReadinessHandler serves the compliance, competence and setup read models.
type ReadinessHandler struct {
	eval    Evaluator
	snap    Snapshotter
	logger  *zap.Logger
	timeout time.Duration
}

// NewReadinessHandler creates a ReadinessHandler. snap may be nil when
// archiving is not configured.
func NewReadinessHandler(eval Evaluator, snap Snapshotter, logger *zap.Logger) *ReadinessHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadinessHandler{eval: eval, snap: snap, logger: logger, timeout: 10 * time.Second}
}

// ── Compliance ─────────────────────────────────────────────────

// ComplianceOverview handles GET /api/compliance/overview-v2
func (h *ReadinessHandler) ComplianceOverview(w http.ResponseWriter, r *http.Request) {
	h.compliance(w, r, false)
}

// ComplianceMatrix handles GET /api/compliance/matrix-v2
// Same rollups as the overview plus one row per (employee, requirement).
func (h *ReadinessHandler) ComplianceMatrix(w http.ResponseWriter, r *http.Request) {
	h.compliance(w, r, true)
}

func (h *ReadinessHandler) compliance(w http.ResponseWriter, r *http.Request, withRows bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.eval.ShiftCompliance(ctx, parseQuery(r))
	if err != nil {
		writeEvalError(w, err)
		return
	}

	if withRows {
		JSON(w, http.StatusOK, report.MatrixPayload())
		return
	}
	JSON(w, http.StatusOK, report.Payload())
}

// ── Competence ─────────────────────────────────────────────────

// CompetenceMatrix handles GET /api/competence/matrix-v2
// station_id narrows the evaluation to a single station.
func (h *ReadinessHandler) CompetenceMatrix(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.eval.ShiftCoverage(ctx, parseQuery(r))
	if err != nil {
		writeEvalError(w, err)
		return
	}

	JSON(w, http.StatusOK, report.Payload())
}

// ── Setup ──────────────────────────────────────────────────────

// SetupReadiness handles GET /api/setup/readiness
func (h *ReadinessHandler) SetupReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.eval.Setup(ctx, ctxkeys.GetOrgID(r.Context()))
	if err != nil {
		writeEvalError(w, err)
		return
	}

	JSON(w, http.StatusOK, summary)
}

// ── Snapshots ──────────────────────────────────────────────────

// CreateSnapshot handles POST /api/readiness/snapshots
func (h *ReadinessHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snap == nil {
		JSONError(w, http.StatusServiceUnavailable, "Snapshot storage is not configured")
		return
	}

	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	// Snapshots write several objects; allow longer than a read.
	ctx, cancel := context.WithTimeout(r.Context(), 3*h.timeout)
	defer cancel()

	manifest, err := h.snap.Snapshot(ctx, req.query(ctxkeys.GetOrgID(r.Context())))
	if err != nil {
		writeEvalError(w, err)
		return
	}

	h.logger.Info("snapshot requested",
		zap.String("user_id", ctxkeys.GetUserID(r.Context())),
		zap.String("snapshot_id", manifest.ID),
	)
	JSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "snapshot": manifest})
}
