package models

// SetupCounts are the raw org-wide counts behind the setup readiness summary.
type SetupCounts struct {
	Stations     int `json:"stations"`
	Employees    int `json:"employees"`
	Skills       int `json:"skills"`
	Requirements int `json:"requirements"` // station skill requirement rows
	Ratings      int `json:"ratings"`      // employee skill rows

	StationsWithRequirements int `json:"stations_with_requirements"`
	StationsWithEligible     int `json:"stations_with_eligible"`

	ComplianceCatalogItems int `json:"compliance_catalog_items"`
	ComplianceEmployees    int `json:"compliance_employees"`
	ComplianceValid        int `json:"compliance_valid"`

	DemandGapRows     int `json:"demand_gap_rows"`
	OpenIllegalIssues int `json:"open_illegal_issues"`
}
