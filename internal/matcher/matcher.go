// Package matcher implements the matcher (§4.E): given a query clip's
// landmarks, it looks up every hash against the index, builds a
// per-candidate time-offset histogram, and scores each candidate by the
// sharpness of that histogram's peak bin.
//
// Grounded on the teacher's pkg/acousticdna/fingerprint QueryFingerprints
// histogram-vote loop and service.go's calculateConfidence, but the spec
// fixes the score formula to h*/Q with a hard [0,1] range (spec.md §4.E,
// §8 property 8, and the Open Question in §9): a query landmark that
// collides with several postings for the same candidate at the same Δ
// must not inflate the histogram past one vote, or score can exceed 1.
// So this matcher counts each query landmark at most once per (candidate
// track, offset bin) before it ever touches the histogram.
package matcher

import (
	"context"
	"math"
	"sort"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fpconfig"
	"github.com/himanishpuri/fpengine/internal/index"
)

// binWidth is the time-offset histogram's smoothing window in frames,
// fixed and shared between index and query builds per spec.md §4.E step 4.
const binWidth = 3

// Result is one ranked candidate: the track, its score in [0,1], and the
// implied alignment of the query within that track. OffsetFrames is the
// center frame of the winning binWidth-frame offset bin.
type Result struct {
	TrackID      string
	Score        float64
	OffsetFrames int
	HitCount     int
}

// Confidence rescales Score into a human-facing percentage with a sigmoid
// emphasis curve, the teacher's calculateConfidence shape preserved as a
// secondary, display-only enrichment — Score itself stays the spec's
// linear h*/Q ratio; ranking and thresholding must use Score, not this.
func (r Result) Confidence() float64 {
	const steepness = 20.0
	const midpoint = 0.15
	c := 100.0 / (1.0 + math.Exp(-steepness*(r.Score-midpoint)))
	if r.Score > 0.30 {
		c = math.Min(100.0, c+(r.Score-0.30)*50)
	}
	if r.HitCount < 5 {
		c *= float64(r.HitCount) / 5.0
	}
	return c
}

// Matcher binds an Index and Config so repeated queries share the same
// hot-hash guard and histogram parameters.
type Matcher struct {
	idx index.Index
	cfg fpconfig.Config
}

// New constructs a Matcher over idx using cfg's
// MaxPostingsPerHashQuery as the per-hash posting cap.
func New(idx index.Index, cfg fpconfig.Config) *Matcher {
	return &Matcher{idx: idx, cfg: cfg}
}

// Match implements the contract in spec.md §4.E. k bounds the number of
// results returned; minScore filters candidates below that score before
// ranking. A zero-length landmarks slice or k<=0 returns an empty result
// immediately. ctx is checked between hash lookups so a caller-supplied
// deadline is honored (spec.md §5's "matcher... MAY honor a deadline
// between lookup calls").
func (m *Matcher) Match(ctx context.Context, landmarks []fingerprint.Landmark, k int, minScore float64) ([]Result, error) {
	q := len(landmarks)
	if q == 0 || k <= 0 {
		return nil, nil
	}

	// histograms[trackID][bin] counts distinct query-landmark indices that
	// voted for that bin, not raw posting hits — this is what keeps
	// score bounded in [0,1] even when a single query hash collides with
	// many postings for the same candidate.
	histograms := make(map[string]map[int]int)

	for _, lm := range landmarks {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		postings, err := m.idx.Lookup(lm.Hash)
		if err != nil {
			return nil, err
		}
		maxPostings := m.cfg.MaxPostingsPerHashQuery
		if maxPostings > 0 && len(postings) > maxPostings {
			postings = postings[:maxPostings]
		}

		// votedThisLandmark tracks which (track, bin) pairs this single
		// query landmark has already credited, so a hash collision that
		// returns several postings for the same track at the same bin
		// still contributes at most one vote.
		votedThisLandmark := make(map[string]map[int]bool)
		for _, p := range postings {
			delta := int(p.AnchorTime) - lm.AnchorTime
			bin := smoothedBin(delta)

			voted := votedThisLandmark[p.TrackID]
			if voted == nil {
				voted = make(map[int]bool)
				votedThisLandmark[p.TrackID] = voted
			}
			if voted[bin] {
				continue
			}
			voted[bin] = true

			hist := histograms[p.TrackID]
			if hist == nil {
				hist = make(map[int]int)
				histograms[p.TrackID] = hist
			}
			hist[bin]++
		}
	}

	results := make([]Result, 0, len(histograms))
	for trackID, hist := range histograms {
		bestBin, bestCount := 0, 0
		for bin, count := range hist {
			if count > bestCount || (count == bestCount && bin < bestBin) {
				bestBin, bestCount = bin, count
			}
		}
		score := float64(bestCount) / float64(q)
		if score > 1.0 {
			score = 1.0
		}
		if score < minScore {
			continue
		}
		results = append(results, Result{
			TrackID:      trackID,
			Score:        score,
			OffsetFrames: bestBin * binWidth,
			HitCount:     bestCount,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].HitCount != results[j].HitCount {
			return results[i].HitCount > results[j].HitCount
		}
		return results[i].TrackID < results[j].TrackID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// smoothedBin maps a raw Δ to its centered binWidth-frame bucket (bin b
// covers b*binWidth-1 .. b*binWidth+1), so a Δ within +/-1 frame of a
// bin's center still lands in that bin.
func smoothedBin(delta int) int {
	shifted := delta + binWidth/2
	if shifted >= 0 {
		return shifted / binWidth
	}
	return -((-shifted + binWidth - 1) / binWidth)
}
