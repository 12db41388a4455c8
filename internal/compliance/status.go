// Package compliance evaluates roster-scoped compliance requirements:
// per-requirement status, applicability and the shift-level legal verdict.
// Everything here is pure; data access lives in internal/database.
package compliance

import "time"

// ── Requirement Status ───────────────────────────────────────────
// Status is always computed from (validTo, waived, now). It is never stored.

// Status is the state of one requirement for one employee.
type Status string

const (
	StatusValid    Status = "valid"
	StatusExpiring Status = "expiring" // valid_to within ExpiryHorizonDays
	StatusExpired  Status = "expired"
	StatusMissing  Status = "missing" // no record, or a record without valid_to
	StatusWaived   Status = "waived"
)

// ExpiryHorizonDays is the inclusive look-ahead window for StatusExpiring.
const ExpiryHorizonDays = 30

// ComputeStatus derives the status of a requirement.
//   - waived:  overrides everything, including a past validTo
//   - validTo: nil → missing
//   - now:     injected for testability
func ComputeStatus(validTo *time.Time, waived bool, now time.Time) Status {
	if waived {
		return StatusWaived
	}
	if validTo == nil {
		return StatusMissing
	}

	today := dateOnly(now)
	expiry := dateOnly(*validTo)

	switch {
	case expiry.Before(today):
		return StatusExpired
	case !expiry.After(today.AddDate(0, 0, ExpiryHorizonDays)):
		return StatusExpiring
	}
	return StatusValid
}

// DaysLeft returns whole days until validTo (negative when overdue),
// or nil when no validTo is set. Display and sorting only.
func DaysLeft(validTo *time.Time, now time.Time) *int {
	if validTo == nil {
		return nil
	}
	days := int(dateOnly(*validTo).Sub(dateOnly(now)).Hours() / 24)
	return &days
}

// IsBlocking reports whether the status forces a NO_GO verdict.
func (s Status) IsBlocking() bool {
	return s == StatusMissing || s == StatusExpired
}

// IsWarning reports whether the status is a non-blocking warning.
func (s Status) IsWarning() bool {
	return s == StatusExpiring
}

// dateOnly keeps the calendar date of t and drops the clock. Dates are
// rebuilt in UTC so day arithmetic never crosses a DST shift.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date the way callers send it (YYYY-MM-DD).
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
