package readiness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Pipeline steps reported in StepError.Step.
const (
	StepValidate            = "validate"
	StepRoster              = "roster"
	StepEmployees           = "employees"
	StepCatalog             = "catalog"
	StepRules               = "rules"
	StepRecords             = "records"
	StepStations            = "stations"
	StepStationRequirements = "station_requirements"
	StepSkills              = "skills"
	StepSkillLevels         = "skill_levels"
	StepSetupCounts         = "setup_counts"
	StepArchive             = "archive"
)

// ErrInvalidQuery is matched by every ValidationError.
var ErrInvalidQuery = errors.New("invalid readiness query")

// ValidationError carries per-field messages for a rejected query.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s (%s)", ErrInvalidQuery, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidQuery }

// StepError reports which stage of an evaluation failed. Err keeps the raw
// cause for logs; Message is safe to return to callers.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("readiness step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Message classifies the failure without exposing driver text.
func (e *StepError) Message() string {
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out while loading %s", strings.ReplaceAll(e.Step, "_", " "))
	case errors.Is(e.Err, context.Canceled):
		return "request cancelled"
	}
	return fmt.Sprintf("failed to load %s", strings.ReplaceAll(e.Step, "_", " "))
}

func stepErr(step string, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Step: step, Err: err}
}
