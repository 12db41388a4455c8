package readiness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"readiness-backend/internal/compliance"
	"readiness-backend/internal/coverage"
	"readiness-backend/internal/storage"
)

// SnapshotManifest describes one archived evaluation.
type SnapshotManifest struct {
	ID               string                   `json:"id"`
	OrgID            string                   `json:"org_id"`
	SiteID           *string                  `json:"site_id"`
	Date             string                   `json:"date"`
	ShiftCode        ShiftCode                `json:"shift_code"`
	CreatedAt        time.Time                `json:"created_at"`
	ReadinessFlag    compliance.ReadinessFlag `json:"readiness_flag"`
	OpsReadinessFlag coverage.OpsFlag         `json:"ops_readiness_flag"`
	Files            []storage.FileInfo       `json:"files"`
}

// Archiver evaluates both axes of a shift and stores the payloads.
type Archiver struct {
	svc    *Service
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewArchiver creates an Archiver writing to store.
func NewArchiver(svc *Service, store storage.Store, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{svc: svc, store: store, logger: logger, now: time.Now}
}

// SnapshotPrefix is the storage folder of a shift's snapshot:
// snapshots/{org}/{date}/{shift}/{site|all}.
func SnapshotPrefix(q Query) string {
	site := "all"
	if q.SiteID != nil {
		site = *q.SiteID
	}
	return fmt.Sprintf("snapshots/%s/%s/%s/%s", q.OrgID, q.Date, q.ShiftCode, site)
}

// Snapshot evaluates q and archives compliance.json, coverage.json and
// manifest.json. A failed write removes the files already written.
func (a *Archiver) Snapshot(ctx context.Context, q Query) (*SnapshotManifest, error) {
	if err := q.Check(); err != nil {
		return nil, err
	}
	q.Debug = true

	var (
		legal *ComplianceReport
		ops   *CoverageReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		legal, err = a.svc.ShiftCompliance(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		ops, err = a.svc.ShiftCoverage(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest := &SnapshotManifest{
		ID:               uuid.NewString(),
		OrgID:            q.OrgID,
		SiteID:           q.SiteID,
		Date:             q.Date,
		ShiftCode:        q.ShiftCode,
		CreatedAt:        a.now().UTC(),
		ReadinessFlag:    legal.Result.ReadinessFlag,
		OpsReadinessFlag: ops.Result.OpsReadinessFlag,
		Files:            []storage.FileInfo{},
	}

	prefix := SnapshotPrefix(q)
	docs := []struct {
		name string
		body any
	}{
		{"compliance.json", legal.MatrixPayload()},
		{"coverage.json", ops.Payload()},
	}
	for _, d := range docs {
		info, err := a.put(ctx, prefix+"/"+d.name, d.body)
		if err != nil {
			a.rollback(manifest.Files)
			return nil, stepErr(StepArchive, err)
		}
		manifest.Files = append(manifest.Files, *info)
	}

	if _, err := a.put(ctx, prefix+"/manifest.json", manifest); err != nil {
		a.rollback(manifest.Files)
		return nil, stepErr(StepArchive, err)
	}

	a.logger.Info("readiness snapshot archived",
		zap.String("snapshot_id", manifest.ID),
		zap.String("org_id", q.OrgID),
		zap.String("date", q.Date),
		zap.String("shift", string(q.ShiftCode)),
		zap.String("prefix", prefix),
	)
	return manifest, nil
}

func (a *Archiver) put(ctx context.Context, path string, v any) (*storage.FileInfo, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	info, err := a.store.Save(ctx, path, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}
	return info, nil
}

func (a *Archiver) rollback(files []storage.FileInfo) {
	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, f := range files {
		if err := a.store.Delete(ctx, f.Path); err != nil {
			a.logger.Warn("snapshot rollback failed", zap.String("path", f.Path), zap.Error(err))
		}
	}
}
