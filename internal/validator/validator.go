// Package validator provides mailbox path normalization and validation
// for the mailfeed lifecycle layer.
package validator

import (
	"strings"

	apperrors "github.com/welldanyogia/webrana-mailfeed/internal/errors"
)

// Path shape limits. Overridable per call for configured deployments.
const (
	DefaultMaxPathDepth     = 16
	DefaultMaxSegmentLength = 200
)

// NormalizePath trims whitespace and stray separators from a mailbox
// path. INBOX is canonicalized to upper case regardless of input case.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")

	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
	}
	path = strings.Join(segments, "/")

	if strings.EqualFold(path, "INBOX") {
		return "INBOX"
	}
	return path
}

// ValidatePath checks a normalized mailbox path against depth and
// segment-length limits. Zero limits fall back to the defaults.
func ValidatePath(path string, maxDepth, maxSegment int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPathDepth
	}
	if maxSegment <= 0 {
		maxSegment = DefaultMaxSegmentLength
	}

	if path == "" {
		return apperrors.ErrInvalidPath
	}

	segments := strings.Split(path, "/")
	if len(segments) > maxDepth {
		return apperrors.ErrPathTooDeep
	}
	for _, s := range segments {
		if s == "" {
			return apperrors.ErrInvalidPath
		}
		if len(s) > maxSegment {
			return apperrors.ErrPathSegmentTooLong
		}
	}
	return nil
}
