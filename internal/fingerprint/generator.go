package fingerprint

import "github.com/himanishpuri/fpengine/internal/fpconfig"

// GenerateLandmarks implements the hash generator (§4.C): for each anchor
// peak, pair with up to cfg.FanOut later peaks whose Δt falls in
// (0, cfg.DtMax], stopping early once the fan-out is spent or Δt exceeds
// the window. Peaks must already be in time-then-frequency order (the
// order ExtractPeaks returns); this function does not sort them, since
// re-sorting here would make the hash generator hide unsorted input that
// a bug upstream should instead expose.
//
// Hashes are ordered, not symmetric: (f1, f2, dt) differs from (f2, f1,
// dt) by construction, which is what lets a landmark encode temporal
// direction. No deduplication is performed; duplicate (hash, anchor_time)
// entries from colliding peak pairs are permitted and the matcher
// tolerates them.
func GenerateLandmarks(peaks []Peak, cfg fpconfig.Config) []Landmark {
	if len(peaks) < 2 {
		return nil
	}

	var out []Landmark
	for i, anchor := range peaks {
		paired := 0
		for j := i + 1; j < len(peaks) && paired < cfg.FanOut; j++ {
			target := peaks[j]
			dt := target.Time - anchor.Time
			if dt <= 0 {
				continue
			}
			if dt > cfg.DtMax {
				break
			}
			h, ok := makeHash(anchor.Freq, target.Freq, dt)
			if !ok {
				continue
			}
			out = append(out, Landmark{Hash: h, AnchorTime: anchor.Time})
			paired++
		}
	}
	return out
}
