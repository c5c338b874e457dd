package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateLocation, Location{})
	v.RegisterStructValidation(validateContractPreference, ContractPreference{})
	v.RegisterStructValidation(validatePositionRanges, Position{})
	return v
}

func validateLocation(sl validator.StructLevel) {
	l, _ := sl.Current().Interface().(Location)
	if (l.Lat == nil) != (l.Lng == nil) {
		sl.ReportError(l.Lat, "lat", "Lat", "latlng_pair", "")
	}
}

func validateContractPreference(sl validator.StructLevel) {
	p, _ := sl.Current().Interface().(ContractPreference)
	if p.Mode == PreferenceExclusive && p.Primary == "" && len(p.Accepted) != 1 {
		sl.ReportError(p.Primary, "primary", "Primary", "exclusive_primary", "")
	}
}

func validatePositionRanges(sl validator.StructLevel) {
	p, _ := sl.Current().Interface().(Position)
	if p.MinYears != nil && p.MaxYears != nil && *p.MinYears > *p.MaxYears {
		sl.ReportError(p.MaxYears, "max_years", "MaxYears", "gtefield", "min_years")
	}
}

// ValidateCandidate rejects malformed candidates (missing id, inverted ranges, half coordinates).
func ValidateCandidate(c *Candidate) error {
	if c == nil {
		return &ValidationError{Record: "candidate", Fields: map[string]string{"": "required"}}
	}
	return toValidationError("candidate "+c.ID, validate.Struct(c))
}

// ValidatePosition rejects malformed positions.
func ValidatePosition(p *Position) error {
	if p == nil {
		return &ValidationError{Record: "position", Fields: map[string]string{"": "required"}}
	}
	return toValidationError("position "+p.ID, validate.Struct(p))
}

// ValidatePair validates both records of a match request.
func ValidatePair(c *Candidate, p *Position) error {
	if err := ValidateCandidate(c); err != nil {
		return err
	}
	return ValidatePosition(p)
}

func toValidationError(record string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s: %w", record, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return &ValidationError{Record: strings.TrimSpace(record), Fields: fields}
}

// fieldPath drops the root struct name: "Candidate.salary.max" -> "salary.max".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gtefield":
		return "must be >= " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "latitude", "longitude":
		return "is not a valid " + fe.Tag()
	case "latlng_pair":
		return "lat and lng must be set together"
	case "exclusive_primary":
		return "exclusive mode needs a primary contract type"
	default:
		return "failed " + fe.Tag()
	}
}
