package fingerprint

import (
	"sort"

	"github.com/himanishpuri/fpengine/internal/fpconfig"
)

// rowMax computes, for every column of a [t][f] grid, the sliding maximum
// over a window of radius in both directions along the row (time) axis.
// This is the first of the two linear passes that make up the separable
// rectangular max filter.
func rowMax(spec Spectrogram, radius int) [][]float32 {
	nT := len(spec)
	if nT == 0 {
		return nil
	}
	nF := len(spec[0])
	out := make([][]float32, nT)
	for t := 0; t < nT; t++ {
		out[t] = make([]float32, nF)
	}
	for f := 0; f < nF; f++ {
		for t := 0; t < nT; t++ {
			lo := t - radius
			if lo < 0 {
				lo = 0
			}
			hi := t + radius
			if hi >= nT {
				hi = nT - 1
			}
			max := spec[lo][f]
			for tt := lo + 1; tt <= hi; tt++ {
				if spec[tt][f] > max {
					max = spec[tt][f]
				}
			}
			out[t][f] = max
		}
	}
	return out
}

// colMax runs the same sliding maximum along the frequency axis over an
// already row-maxed grid, completing the separable rectangular max filter:
// the combination gives the maximum over the full rectangular neighborhood
// of the given radius in both axes (the "morphological maximum" spec.md
// §4.B describes, reimplemented as two linear passes instead of a
// 2-D structuring-element scan — the option spec.md §9 calls out
// explicitly as acceptable).
func colMax(rowMaxed [][]float32, radius int) [][]float32 {
	nT := len(rowMaxed)
	if nT == 0 {
		return nil
	}
	nF := len(rowMaxed[0])
	out := make([][]float32, nT)
	for t := 0; t < nT; t++ {
		out[t] = make([]float32, nF)
		for f := 0; f < nF; f++ {
			lo := f - radius
			if lo < 0 {
				lo = 0
			}
			hi := f + radius
			if hi >= nF {
				hi = nF - 1
			}
			max := rowMaxed[t][lo]
			for ff := lo + 1; ff <= hi; ff++ {
				if rowMaxed[t][ff] > max {
					max = rowMaxed[t][ff]
				}
			}
			out[t][f] = max
		}
	}
	return out
}

// ExtractPeaks implements the constellation extractor (§4.B): a bin is a
// peak iff it equals the local maximum over a rectangular neighborhood of
// radius cfg.PeakRadius and it is at least cfg.MinAmplitude and strictly
// positive. Equal-magnitude plateaus are collapsed to a single peak,
// keeping the smallest time then smallest frequency in each connected
// equal-value region. Peaks are returned in time-then-frequency order.
func ExtractPeaks(spec Spectrogram, cfg fpconfig.Config) []Peak {
	nT := len(spec)
	if nT == 0 || len(spec[0]) == 0 {
		return nil
	}
	nF := len(spec[0])

	localMax := colMax(rowMax(spec, cfg.PeakRadius), cfg.PeakRadius)

	candidate := make([][]bool, nT)
	for t := 0; t < nT; t++ {
		candidate[t] = make([]bool, nF)
		for f := 0; f < nF; f++ {
			v := spec[t][f]
			if v > 0 && v >= float32(cfg.MinAmplitude) && v >= localMax[t][f] {
				candidate[t][f] = true
			}
		}
	}

	visited := make([][]bool, nT)
	for t := range visited {
		visited[t] = make([]bool, nF)
	}

	var peaks []Peak
	type coord struct{ t, f int }
	for t := 0; t < nT; t++ {
		for f := 0; f < nF; f++ {
			if !candidate[t][f] || visited[t][f] {
				continue
			}
			// Flood-fill the connected region of candidate bins sharing
			// this exact amplitude, the plateau this bin belongs to.
			value := spec[t][f]
			best := coord{t, f}
			stack := []coord{{t, f}}
			visited[t][f] = true
			for len(stack) > 0 {
				c := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if c.t < best.t || (c.t == best.t && c.f < best.f) {
					best = c
				}
				neighbors := [4]coord{
					{c.t - 1, c.f}, {c.t + 1, c.f},
					{c.t, c.f - 1}, {c.t, c.f + 1},
				}
				for _, n := range neighbors {
					if n.t < 0 || n.t >= nT || n.f < 0 || n.f >= nF {
						continue
					}
					if visited[n.t][n.f] || !candidate[n.t][n.f] {
						continue
					}
					if spec[n.t][n.f] != value {
						continue
					}
					visited[n.t][n.f] = true
					stack = append(stack, n)
				}
			}
			peaks = append(peaks, Peak{Time: best.t, Freq: best.f, Amp: value})
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Time == peaks[j].Time {
			return peaks[i].Freq < peaks[j].Freq
		}
		return peaks[i].Time < peaks[j].Time
	})
	return peaks
}
