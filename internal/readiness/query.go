package readiness

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ShiftCode is the closed set of shift identifiers a roster is keyed by.
// Free-text aliases are normalized by the caller.
type ShiftCode string

const (
	ShiftDay     ShiftCode = "Day"
	ShiftEvening ShiftCode = "Evening"
	ShiftNight   ShiftCode = "Night"
	ShiftS1      ShiftCode = "S1"
	ShiftS2      ShiftCode = "S2"
	ShiftS3      ShiftCode = "S3"
)

// ShiftCodes lists every valid shift code in display order.
var ShiftCodes = []ShiftCode{ShiftDay, ShiftEvening, ShiftNight, ShiftS1, ShiftS2, ShiftS3}

// Valid reports whether s is one of ShiftCodes.
func (s ShiftCode) Valid() bool {
	for _, c := range ShiftCodes {
		if s == c {
			return true
		}
	}
	return false
}

// DateLayout is the wire format of Query.Date.
const DateLayout = "2006-01-02"

// Query scopes one readiness evaluation.
type Query struct {
	OrgID     string    `json:"org_id" validate:"required"`
	SiteID    *string   `json:"site_id"`
	StationID *string   `json:"station_id"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftCode ShiftCode `json:"shift_code" validate:"required,oneof=Day Evening Night S1 S2 S3"`
	Debug     bool      `json:"-"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate returns a field → message map; empty means the query is usable.
func (q Query) Validate() map[string]string {
	errs := map[string]string{}

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = fieldMessage(fe)
			}
		} else {
			errs["query"] = err.Error()
		}
	}

	if _, ok := errs["org_id"]; !ok {
		if _, err := uuid.Parse(q.OrgID); err != nil {
			errs["org_id"] = "must be a UUID"
		}
	}
	if q.SiteID != nil {
		if _, err := uuid.Parse(*q.SiteID); err != nil {
			errs["site_id"] = "must be a UUID"
		}
	}
	if q.StationID != nil {
		if _, err := uuid.Parse(*q.StationID); err != nil {
			errs["station_id"] = "must be a UUID"
		}
	}

	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}

// Check wraps Validate into a *ValidationError.
func (q Query) Check() error {
	if fields := q.Validate(); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NormalizeID canonicalizes a UUID string; invalid input is returned trimmed.
func NormalizeID(raw string) string {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return raw
}
