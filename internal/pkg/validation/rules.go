package validation

import (
	"regexp"
	"strings"
	"time"
)

// Validation rule patterns for applicant data
var (
	EmailPattern      = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`
	PhonePattern      = `^\+?[0-9 ()\-]{7,20}$`
	PassportPattern   = `^[A-Z0-9]{6,12}$`
	PostalCodePattern = `^[A-Za-z0-9 \-]{3,10}$`

	PasswordMinLength = 8

	NameMinLength = 2
	NameMaxLength = 100

	// Applicants younger than this cannot hold a complete profile
	MinApplicantAge = 15
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email      *regexp.Regexp
	Phone      *regexp.Regexp
	Passport   *regexp.Regexp
	PostalCode *regexp.Regexp
}{
	Email:      regexp.MustCompile(EmailPattern),
	Phone:      regexp.MustCompile(PhonePattern),
	Passport:   regexp.MustCompile(PassportPattern),
	PostalCode: regexp.MustCompile(PostalCodePattern),
}

// StringValidation checks a trimmed string value
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a required string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}
	if v.MinLen > 0 && len([]rune(v.Value)) < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && len([]rune(v.Value)) > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}
	return true
}

// RangeValidation checks an optional float against inclusive bounds
type RangeValidation struct {
	Value *float64
	Min   float64
	Max   float64
}

// NewRangeValidation creates a range validation for value
func NewRangeValidation(value *float64, min, max float64) *RangeValidation {
	return &RangeValidation{Value: value, Min: min, Max: max}
}

// Validate reports whether the value is present and within bounds
func (v *RangeValidation) Validate() bool {
	return v.Value != nil && *v.Value >= v.Min && *v.Value <= v.Max
}

// ValidBirthDate reports whether dob is set, in the past and old enough
func ValidBirthDate(dob *time.Time, now time.Time) bool {
	if dob == nil || dob.IsZero() || dob.After(now) {
		return false
	}
	return !dob.AddDate(MinApplicantAge, 0, 0).After(now)
}
