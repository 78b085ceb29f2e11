// Package trackid derives the opaque, stable track_id spec.md §3 requires:
// a content-derived hex digest, so indexing the same bytes twice under the
// same call always yields the same id, and unrelated content doesn't
// collide. Grounded on the teacher's refrence_scripts/download_yt.go
// makeSongID, which salts a sha1 of a source-specific string — this repo
// generalizes that to the track's actual PCM bytes instead of just a
// YouTube id, since not every source is a YouTube URL.
package trackid

import (
	"crypto/sha256"
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

// FromSamples derives a track_id from the decoded PCM samples that will be
// fingerprinted. Two files that decode to identical samples get the same
// id; this is intentional — it's how "identical bit-for-bit audio indexed
// under two IDs" (spec.md §8) is meant to collide when a caller derives
// ids this way, and how a caller avoids double-indexing the same source.
func FromSamples(samples []float32) string {
	h := sha256.New()
	buf := make([]byte, 4)
	for _, s := range samples {
		bits := math.Float32bits(s)
		buf[0] = byte(bits)
		buf[1] = byte(bits >> 8)
		buf[2] = byte(bits >> 16)
		buf[3] = byte(bits >> 24)
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Random returns a fresh, non-content-derived id for callers that index
// ephemeral or synthetic tracks (tests, a live query kept for later
// re-matching) where no stable source bytes exist to hash. The teacher
// hand-rolls this with crypto/rand in pkg/utils/uuid.go; this repo wires
// the real google/uuid dependency instead, since using the library is the
// point of the exercise.
func Random() string {
	return uuid.NewString()
}
