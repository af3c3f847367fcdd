package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Alert categories produced by the evaluators
const (
	CategoryContainer   = "Container Security"
	CategorySupplyChain = "Supply Chain Security"
	CategoryDependency  = "Dependency Security"
	CategoryNetwork     = "Network Security"
)

// Alert is one security finding. Alerts are created once with NewAlert and
// are never modified afterwards.
type Alert struct {
	Timestamp         time.Time `json:"timestamp" validate:"required"`
	Severity          Severity  `json:"severity" validate:"required,severity"`
	Category          string    `json:"category" validate:"required"`
	Description       string    `json:"description" validate:"required"`
	AffectedComponent string    `json:"affected_component" validate:"required"`
	Recommendation    string    `json:"recommendation" validate:"required"`
}

func init() {
	_ = validate.RegisterValidation("severity", ValidateSeverity)
}

// ValidateSeverity validates a severity field
func ValidateSeverity(fl validator.FieldLevel) bool {
	sev, ok := fl.Field().Interface().(Severity)
	if !ok {
		if str, okStr := fl.Field().Interface().(string); okStr {
			sev = Severity(str)
		} else {
			return false
		}
	}
	return sev.IsValid()
}

// NewAlert builds and validates an alert
func NewAlert(ts time.Time, severity Severity, category, description, component, recommendation string) (Alert, error) {
	alert := Alert{
		Timestamp:         ts,
		Severity:          severity,
		Category:          category,
		Description:       description,
		AffectedComponent: component,
		Recommendation:    recommendation,
	}
	if err := alert.Validate(); err != nil {
		return Alert{}, err
	}
	return alert, nil
}

// Validate checks that all fields are populated and the severity is known
func (a Alert) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAlert, err)
	}
	return nil
}

// TimestampString renders the alert timestamp as ISO-8601
func (a Alert) TimestampString() string {
	return a.Timestamp.Format(time.RFC3339Nano)
}
