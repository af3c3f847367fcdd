package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlert(t *testing.T) {
	now := time.Date(2024, 2, 13, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		ts          time.Time
		severity    Severity
		category    string
		description string
		component   string
		recommend   string
		expectError bool
	}{
		{
			name:        "valid alert",
			ts:          now,
			severity:    SeverityHigh,
			category:    CategoryContainer,
			description: "Test alert",
			component:   "Test Component",
			recommend:   "Test recommendation",
		},
		{
			name:        "zero timestamp",
			severity:    SeverityHigh,
			category:    CategoryContainer,
			description: "Test alert",
			component:   "Test Component",
			recommend:   "Test recommendation",
			expectError: true,
		},
		{
			name:        "unknown severity",
			ts:          now,
			severity:    Severity("CRITICAL"),
			category:    CategoryContainer,
			description: "Test alert",
			component:   "Test Component",
			recommend:   "Test recommendation",
			expectError: true,
		},
		{
			name:        "missing category",
			ts:          now,
			severity:    SeverityLow,
			description: "Test alert",
			component:   "Test Component",
			recommend:   "Test recommendation",
			expectError: true,
		},
		{
			name:        "missing recommendation",
			ts:          now,
			severity:    SeverityMedium,
			category:    CategoryNetwork,
			description: "Test alert",
			component:   "Test Component",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alert, err := NewAlert(tc.ts, tc.severity, tc.category, tc.description, tc.component, tc.recommend)
			if tc.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAlert))
				assert.Equal(t, Alert{}, alert)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.severity, alert.Severity)
			assert.Equal(t, tc.description, alert.Description)
			assert.Equal(t, "2024-02-13T12:00:00Z", alert.TimestampString())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("high")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	sev, err = ParseSeverity(" Medium ")
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, sev)

	_, err = ParseSeverity("critical")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSeverity)

	_, err = ParseSeverity("")
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestVulnerabilityValidate(t *testing.T) {
	assert.NoError(t, Vulnerability{Severity: "HIGH", SafeVersion: "2.0.0"}.Validate())
	assert.ErrorIs(t, Vulnerability{Severity: "HIGH"}.Validate(), ErrInvalidVulnerability)
	assert.ErrorIs(t, Vulnerability{SafeVersion: "2.0.0"}.Validate(), ErrInvalidVulnerability)
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	alerts := []Alert{
		{Timestamp: now, Severity: SeverityHigh},
		{Timestamp: now, Severity: SeverityHigh},
		{Timestamp: now, Severity: SeverityMedium},
	}

	summary := Summarize(alerts)
	assert.Equal(t, 3, summary.TotalAlerts)
	assert.Equal(t, 2, summary.Count(SeverityHigh))
	assert.Equal(t, 1, summary.Count(SeverityMedium))
	assert.Equal(t, 0, summary.Count(SeverityLow))
	assert.Equal(t, []Severity{SeverityHigh, SeverityMedium, SeverityLow}, Severities())
}
