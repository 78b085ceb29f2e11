// Package fperrors defines the sentinel error kinds shared across the
// fingerprint engine's packages. Callers use errors.Is against these kinds
// rather than matching on error strings.
package fperrors

import "errors"

var (
	// ErrDecodeFailure means the audio front end could not turn the input
	// into PCM samples. The caller should skip the file; indexing continues.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrEmptyFingerprint means the input was too short or too quiet to
	// yield any peaks or landmarks. Not logged as an error by callers.
	ErrEmptyFingerprint = errors.New("empty fingerprint")

	// ErrDuplicateTrack means add_track was called with a track_id already
	// present in the index.
	ErrDuplicateTrack = errors.New("duplicate track")

	// ErrUnknownTrack means forget/get_track was called with an id not in
	// the store. Callers treat this as an idempotent no-op where the
	// contract calls for it.
	ErrUnknownTrack = errors.New("unknown track")

	// ErrCorruptIndex means an on-disk or in-memory invariant was violated.
	// Fatal; surfaced to the operator.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrResourceExhausted means the store is out of memory or storage
	// quota. Callers should retry with lower concurrency.
	ErrResourceExhausted = errors.New("resource exhausted")
)
