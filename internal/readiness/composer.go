package readiness

import (
	"github.com/shopspring/decimal"

	"readiness-backend/internal/models"
)

// SetupStatus is the dashboard traffic light.
type SetupStatus string

const (
	SetupGreen SetupStatus = "GREEN"
	SetupAmber SetupStatus = "AMBER"
	SetupRed   SetupStatus = "RED"
)

// ComposerConfig weights the four axes and sets the traffic-light cut-offs.
type ComposerConfig struct {
	FoundationWeight  float64 `yaml:"foundationWeight" validate:"gte=0,lte=1"`
	CoverageWeight    float64 `yaml:"coverageWeight" validate:"gte=0,lte=1"`
	ComplianceWeight  float64 `yaml:"complianceWeight" validate:"gte=0,lte=1"`
	OperationalWeight float64 `yaml:"operationalWeight" validate:"gte=0,lte=1"`
	GreenThreshold    float64 `yaml:"greenThreshold" validate:"gte=0,lte=100"`
	AmberThreshold    float64 `yaml:"amberThreshold" validate:"gte=0,lte=100,ltefield=GreenThreshold"`
}

// DefaultComposerConfig weights every axis equally, GREEN at 85, AMBER at 60.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		FoundationWeight:  0.25,
		CoverageWeight:    0.25,
		ComplianceWeight:  0.25,
		OperationalWeight: 0.25,
		GreenThreshold:    85,
		AmberThreshold:    60,
	}
}

// WeightSum is used by config validation; weights must add up to 1.
func (c ComposerConfig) WeightSum() decimal.Decimal {
	return decimal.NewFromFloat(c.FoundationWeight).
		Add(decimal.NewFromFloat(c.CoverageWeight)).
		Add(decimal.NewFromFloat(c.ComplianceWeight)).
		Add(decimal.NewFromFloat(c.OperationalWeight))
}

// AxisScores are the four 0–100 sub-scores.
type AxisScores struct {
	Foundation  int `json:"foundation"`
	Coverage    int `json:"coverage"`
	Compliance  int `json:"compliance"`
	Operational int `json:"operational"`
}

// FoundationChecks records which master data exists at all.
type FoundationChecks struct {
	HasStations     bool `json:"has_stations"`
	HasEmployees    bool `json:"has_employees"`
	HasSkills       bool `json:"has_skills"`
	HasRequirements bool `json:"has_requirements"`
	HasRatings      bool `json:"has_ratings"`
}

func (f FoundationChecks) passed() int {
	n := 0
	for _, ok := range []bool{f.HasStations, f.HasEmployees, f.HasSkills, f.HasRequirements, f.HasRatings} {
		if ok {
			n++
		}
	}
	return n
}

// SetupSummary is the payload of the setup readiness dashboard.
type SetupSummary struct {
	OK     bool               `json:"ok"`
	Status SetupStatus        `json:"status"`
	Score  int                `json:"score"`
	Axes   AxisScores         `json:"axes"`
	Checks FoundationChecks   `json:"checks"`
	Counts models.SetupCounts `json:"counts"`
}

// Composer folds setup counts into a single scored status.
type Composer struct {
	cfg ComposerConfig
}

// NewComposer creates a Composer.
func NewComposer(cfg ComposerConfig) *Composer {
	return &Composer{cfg: cfg}
}

var hundred = decimal.NewFromInt(100)

// percent returns round(100*num/den), or 0 when den is 0.
func percent(num, den int) decimal.Decimal {
	if den <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(num)).Mul(hundred).Div(decimal.NewFromInt(int64(den))).Round(0)
}

// Compose scores the counts.
func (c *Composer) Compose(counts models.SetupCounts) *SetupSummary {
	checks := FoundationChecks{
		HasStations:     counts.Stations > 0,
		HasEmployees:    counts.Employees > 0,
		HasSkills:       counts.Skills > 0,
		HasRequirements: counts.Requirements > 0,
		HasRatings:      counts.Ratings > 0,
	}

	foundation := percent(checks.passed(), 5)

	reqCoverage := percent(counts.StationsWithRequirements, counts.Stations)
	eligCoverage := percent(counts.StationsWithEligible, counts.Stations)
	coverage := reqCoverage.Add(eligCoverage).Div(decimal.NewFromInt(2)).Round(0)

	compliance := decimal.Zero
	if counts.ComplianceCatalogItems > 0 {
		compliance = percent(counts.ComplianceValid, counts.ComplianceEmployees)
	}

	operational := decimal.Zero
	if counts.DemandGapRows > 0 {
		operational = operational.Add(decimal.NewFromInt(50))
	}
	if counts.OpenIllegalIssues == 0 {
		operational = operational.Add(decimal.NewFromInt(50))
	}

	score := foundation.Mul(decimal.NewFromFloat(c.cfg.FoundationWeight)).
		Add(coverage.Mul(decimal.NewFromFloat(c.cfg.CoverageWeight))).
		Add(compliance.Mul(decimal.NewFromFloat(c.cfg.ComplianceWeight))).
		Add(operational.Mul(decimal.NewFromFloat(c.cfg.OperationalWeight))).
		Round(0)

	return &SetupSummary{
		OK:     true,
		Status: c.status(score),
		Score:  int(score.IntPart()),
		Axes: AxisScores{
			Foundation:  int(foundation.IntPart()),
			Coverage:    int(coverage.IntPart()),
			Compliance:  int(compliance.IntPart()),
			Operational: int(operational.IntPart()),
		},
		Checks: checks,
		Counts: counts,
	}
}

func (c *Composer) status(score decimal.Decimal) SetupStatus {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromFloat(c.cfg.GreenThreshold)):
		return SetupGreen
	case score.GreaterThanOrEqual(decimal.NewFromFloat(c.cfg.AmberThreshold)):
		return SetupAmber
	}
	return SetupRed
}
