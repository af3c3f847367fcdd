package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	// ErrInvalidSeverity indicates a severity outside HIGH, MEDIUM and LOW
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrInvalidAlert indicates an alert with a missing or invalid field
	ErrInvalidAlert = errors.New("invalid alert")

	// ErrInvalidVulnerability indicates a malformed vulnerability record
	ErrInvalidVulnerability = errors.New("invalid vulnerability record")
)

// Severity is the severity of an alert
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Severities returns the known severities in report order
func Severities() []Severity {
	return []Severity{SeverityHigh, SeverityMedium, SeverityLow}
}

// Rank returns an integer rank for comparison (Low=1, High=3)
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known severities
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity parses a severity string case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
	return sev, nil
}

// Vulnerability is a single record returned by a vulnerability lookup.
// Severity is kept as the raw string supplied by the data source; it is
// converted with ParseSeverity before an alert is built from it.
type Vulnerability struct {
	ID          string `json:"id,omitempty"`
	Severity    string `json:"severity" validate:"required"`
	SafeVersion string `json:"safe_version" validate:"required"`
}

// Validate checks the record has the fields needed to build an alert
func (v Vulnerability) Validate() error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVulnerability, err)
	}
	return nil
}

// ScanSummary counts alerts per severity.
type ScanSummary struct {
	TotalAlerts int `json:"total_alerts"`
	HighCount   int `json:"high_count"`
	MediumCount int `json:"medium_count"`
	LowCount    int `json:"low_count"`
}

// Count returns the number of alerts recorded for a severity
func (s ScanSummary) Count(sev Severity) int {
	switch sev {
	case SeverityHigh:
		return s.HighCount
	case SeverityMedium:
		return s.MediumCount
	case SeverityLow:
		return s.LowCount
	default:
		return 0
	}
}

// Summarize counts alerts per severity
func Summarize(alerts []Alert) ScanSummary {
	summary := ScanSummary{TotalAlerts: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case SeverityHigh:
			summary.HighCount++
		case SeverityMedium:
			summary.MediumCount++
		case SeverityLow:
			summary.LowCount++
		}
	}
	return summary
}
