// Package input reads scan inputs (container manifests, dependency maps and
// network logs) from files and converts them into the models the rule
// evaluators consume.
package input

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// Expected input failures. Callers treat these as soft failures.
var (
	// ErrNotFound indicates the input file does not exist
	ErrNotFound = errors.New("input not found")

	// ErrUnreadable indicates the input exists but could not be read
	ErrUnreadable = errors.New("input unreadable")

	// ErrParse indicates the input content is malformed
	ErrParse = errors.New("malformed input")
)

// IsExpected reports whether err is one of the expected input failures
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnreadable) || errors.Is(err, ErrParse)
}

// Source supplies parsed scan inputs
type Source interface {
	ReadManifest(ctx context.Context, path string) (models.ContainerManifest, error)
	ReadDependencies(ctx context.Context, path string) (models.DependencyMap, error)
	ReadNetworkLog(ctx context.Context, path string) ([]string, error)
}

// FileSource reads scan inputs from the local filesystem
type FileSource struct {
	logger *logrus.Logger
}

// NewFileSource creates a new FileSource
func NewFileSource(logger *logrus.Logger) *FileSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &FileSource{logger: logger}
}

// readFile reads path and classifies failures as ErrNotFound or ErrUnreadable
func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, errors.Wrapf(ErrUnreadable, "%s: %v", path, err)
	}
	return content, nil
}

// parseError wraps ErrParse with context about the failing input
func parseError(path string, format string, args ...interface{}) error {
	return errors.Wrapf(ErrParse, "%s: "+format, append([]interface{}{path}, args...)...)
}
