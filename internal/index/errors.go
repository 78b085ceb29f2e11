package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/fpengine/internal/fperrors"
)

// errClientNil generalizes the teacher's errDBClientNil string-sentinel
// pattern (storage/sqlite.go) so a nil backend still fails loudly instead
// of panicking.
var errClientNil = errors.New("index backend is nil")

// duplicateTrackError wraps fperrors.ErrDuplicateTrack with the offending
// track_id so callers get both an errors.Is-testable kind and a useful
// message.
func duplicateTrackError(trackID string) error {
	return fmt.Errorf("track %q: %w", trackID, fperrors.ErrDuplicateTrack)
}

// unknownTrackError wraps fperrors.ErrUnknownTrack with the offending
// track_id.
func unknownTrackError(trackID string) error {
	return fmt.Errorf("track %q: %w", trackID, fperrors.ErrUnknownTrack)
}

// corruptIndexError wraps fperrors.ErrCorruptIndex with context about
// which invariant was violated.
func corruptIndexError(context string) error {
	return fmt.Errorf("%s: %w", context, fperrors.ErrCorruptIndex)
}

// resourceExhaustedError wraps fperrors.ErrResourceExhausted with the
// underlying driver error that triggered it.
func resourceExhaustedError(context string, cause error) error {
	return fmt.Errorf("%s: %v: %w", context, cause, fperrors.ErrResourceExhausted)
}

// classifyStoreError turns a raw gorm/sqlite driver error from a query or
// transaction into fperrors.ErrCorruptIndex or fperrors.ErrResourceExhausted
// so callers can errors.Is against a stable kind instead of matching driver
// error strings (spec.md §7: both kinds must be reachable from "any index
// op"). Callers are expected to have already handled gorm.ErrRecordNotFound
// and gorm.ErrDuplicatedKey themselves; classifyStoreError only runs on
// what's left, i.e. genuine driver/I/O failures.
func classifyStoreError(context string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "malformed"), strings.Contains(msg, "corrupt"), strings.Contains(msg, "not a database"):
		return corruptIndexError(fmt.Sprintf("%s: %v", context, err))
	case strings.Contains(msg, "disk"), strings.Contains(msg, "memory"), strings.Contains(msg, "too many"), strings.Contains(msg, "connection"), strings.Contains(msg, "locked"), strings.Contains(msg, "busy"):
		return resourceExhaustedError(context, err)
	default:
		return fmt.Errorf("%s: %w", context, err)
	}
}
