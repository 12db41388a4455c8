package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"readiness-backend/internal/coverage"
	"readiness-backend/internal/readiness"
)

// PolicyFile is the optional YAML readiness policy. Zero values keep the
// built-in defaults.
type PolicyFile struct {
	TopRequirements          int                       `yaml:"topRequirements" validate:"gte=0"`
	TopEmployees             int                       `yaml:"topEmployees" validate:"gte=0"`
	TopStations              int                       `yaml:"topStations" validate:"gte=0"`
	TopGapsPerEmployee       int                       `yaml:"topGapsPerEmployee" validate:"gte=0"`
	ExpiringSampleSize       int                       `yaml:"expiringSampleSize" validate:"gte=0"`
	TreatEmptyRuleAsWildcard *bool                     `yaml:"treatEmptyRuleAsWildcard"`
	MinEligiblePerStation    int                       `yaml:"minEligiblePerStation" validate:"gte=0"`
	Composer                 *readiness.ComposerConfig `yaml:"composer"`
}

// LoadPolicyFile reads and validates a policy file.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var p PolicyFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if err := validatePolicy(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func validatePolicy(p *PolicyFile) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("policy validation failed: %w", err)
	}
	if p.Composer != nil && !p.Composer.WeightSum().Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("policy validation failed: composer weights sum to %s, want 1", p.Composer.WeightSum())
	}
	return nil
}

// Readiness overlays the file on the default policy.
func (p PolicyFile) Readiness() readiness.Policy {
	policy := readiness.DefaultPolicy()

	if p.TopRequirements > 0 {
		policy.Compliance.TopRequirements = p.TopRequirements
	}
	if p.TopEmployees > 0 {
		policy.Compliance.TopEmployees = p.TopEmployees
		policy.Coverage.TopEmployees = p.TopEmployees
	}
	if p.ExpiringSampleSize > 0 {
		policy.Compliance.SampleSize = p.ExpiringSampleSize
	}
	if p.TreatEmptyRuleAsWildcard != nil {
		policy.Compliance.TreatEmptyRuleAsWildcard = *p.TreatEmptyRuleAsWildcard
	}
	if p.TopStations > 0 {
		policy.Coverage.TopStations = p.TopStations
	}
	if p.TopGapsPerEmployee > 0 {
		policy.Coverage.TopGapsPerEmployee = p.TopGapsPerEmployee
	}
	policy.Coverage.Warning = coverage.MinEligibleWarning(p.MinEligiblePerStation)
	if p.Composer != nil {
		policy.Composer = *p.Composer
	}
	return policy
}
