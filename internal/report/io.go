package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// FileName returns the report file name for a generation time
func FileName(t time.Time) string {
	return fmt.Sprintf("security_report_%s.txt", t.Format("20060102_150405"))
}

// Write saves report text into dir under a timestamped name, creating dir
// when needed, and returns the file path
func Write(dir string, t time.Time, text string) (string, error) {
	if err := EnsureDirectory(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(t))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}

// Export is the JSON form of a scan session
type Export struct {
	SessionID   string             `json:"session_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     models.ScanSummary `json:"summary"`
	Alerts      []models.Alert     `json:"alerts"`
}

// WriteJSON saves the alerts of a session as indented JSON
func WriteJSON(path, sessionID string, generatedAt time.Time, alerts []models.Alert) error {
	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}
	export := Export{
		SessionID:   sessionID,
		GeneratedAt: generatedAt,
		Summary:     models.Summarize(alerts),
		Alerts:      alerts,
	}

	data, err := json.MarshalIndent(export, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode alerts: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// EnsureDirectory creates dir and its parents if they do not exist
func EnsureDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
