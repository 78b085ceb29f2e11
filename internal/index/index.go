// Package index implements the inverted hash index (§4.D): a map from
// landmark hash to the set of (track, anchor-time) occurrences, plus a
// track-metadata store, behind a single reader/writer contract two
// backends can satisfy.
package index

import "github.com/himanishpuri/fpengine/internal/fingerprint"

// Track is one indexed recording plus metadata. ID is a stable, opaque
// identifier — typically a content-derived hex digest (see
// internal/trackid) — unique across the index.
type Track struct {
	ID              string
	Title           string
	Artist          string
	SourcePath      string
	DurationSeconds float64
	NumPeaks        int
	NumHashes       int
}

// Posting is one (track, anchor-time) occurrence stored against a
// LandmarkHash key.
type Posting struct {
	TrackID    string
	AnchorTime uint32
}

// Stats summarizes an index's contents, the `stats()` operation spec.md
// §4.D names.
type Stats struct {
	NumTracks       int
	NumPostings     int
	NumUniqueHashes int
}

// Index is the inverted hash index's public contract. AddTrack, Forget
// and Reset are the writer operations that mutate shared state; AddTrack
// is atomic at the granularity of one track (§3, §5). Lookup/GetTrack/ListTracks/Stats are
// many-reader operations that may proceed concurrently with each other
// and with in-flight AddTrack calls, observing a snapshot consistent with
// some set of completed writes.
type Index interface {
	// AddTrack commits track and landmarks atomically: either all
	// postings and the track record become visible together, or none do.
	// Returns an error wrapping fperrors.ErrDuplicateTrack if track.ID is
	// already present.
	AddTrack(track Track, landmarks []fingerprint.Landmark) error

	// Forget removes a track record and all its postings. Idempotent:
	// returns (false, nil) if the track_id was not present.
	Forget(trackID string) (bool, error)

	// Lookup returns the postings for a hash in any order. Returns an
	// empty, non-nil slice if the hash has no postings.
	Lookup(hash fingerprint.LandmarkHash) ([]Posting, error)

	// GetTrack returns a track's metadata, or an error wrapping
	// fperrors.ErrUnknownTrack if trackID is not present.
	GetTrack(trackID string) (Track, error)

	// ListTracks returns a snapshot of all tracks, consistent with some
	// point in time.
	ListTracks() ([]Track, error)

	// Stats reports aggregate counts.
	Stats() (Stats, error)

	// Kind names the backend ("memory" or "sqlite"), restoring the
	// storage_type discriminator the Python original's get_stats()
	// exposes.
	Kind() string

	// Reset clears all tracks and postings, restoring the Python
	// original's StorageBackend.clear(). Used by tests; no command-line
	// tool in this repo calls it.
	Reset() error

	// Close releases any resources the backend holds (file handles,
	// connections). A no-op for Memory.
	Close() error
}
