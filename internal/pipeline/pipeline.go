// Package pipeline implements the indexing pipeline (§4.F): fan out
// decode -> spectrogram -> peaks -> hashes across a bounded worker pool
// and feed the results to a shared index.
//
// Grounded on mokele-mbembe-audio-loss-checker/internal/analyzer/analyzer.go's
// AnalyzeFiles: the same "spawn N workers draining a jobs channel, collect
// on a results channel, close both with a sync.WaitGroup" shape. The
// teacher (AcousticDNA) has no batch pipeline of its own — its CLI
// processes one file per invocation — so this component is grounded on
// the next-best pack example that implements exactly this fan-out.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/himanishpuri/fpengine/internal/audioio"
	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fpconfig"
	"github.com/himanishpuri/fpengine/internal/index"
	"github.com/himanishpuri/fpengine/internal/trackid"
)

// FileResult is the outcome of fingerprinting and indexing one path.
type FileResult struct {
	Path     string
	TrackID  string
	NumPeaks int
	NumHashes int
	Skipped  bool
	Err      error
}

// Summary aggregates the outcome of an IndexPaths call, the
// {indexed, skipped, errors} triple spec.md §4.F names.
type Summary struct {
	Indexed int
	Skipped int
	Errors  int
	Results []FileResult
}

// Progress is invoked after every completed file, in completion order
// (not necessarily path order, since files run concurrently).
type Progress func(done, total int, last FileResult)

// Options configures one IndexPaths call.
type Options struct {
	Concurrency int
	Decoder     audioio.Decoder
	Config      fpconfig.Config
	// TitleFor/ArtistFor default a track's metadata from its path when the
	// caller has nothing better (no id3/ffprobe tags looked up here; that
	// stays the caller's job per spec.md §1's scope boundary).
	TitleFor  func(path string) string
	ArtistFor func(path string) string
	Progress  Progress
	// ShowBar drives a human progress bar alongside Progress, the same
	// mechanism the callback uses — wired for the CLI's batch-index
	// command, left off for programmatic callers (e.g. the HTTP server).
	ShowBar bool
}

// IndexPaths fans out fingerprinting over paths across up to
// opts.Concurrency worker goroutines, each ending with idx.AddTrack.
// Per-file failures (decode error, empty fingerprint, duplicate id) are
// recorded in the returned Summary and do not abort the batch. ctx is
// checked at each file boundary (spec.md §5's cooperative-cancellation
// contract): a worker that observes ctx.Err() before starting a file does
// not start it and records it with ctx.Err() (counted under Errors); a
// file whose AddTrack has already begun still runs to completion.
func IndexPaths(ctx context.Context, idx index.Index, paths []string, opts Options) Summary {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan string, len(paths))
	results := make(chan FileResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if ctx.Err() != nil {
					results <- FileResult{Path: path, Skipped: true, Err: ctx.Err()}
					continue
				}
				results <- processOne(ctx, idx, path, opts)
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var bar *progressbar.ProgressBar
	if opts.ShowBar {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("indexing tracks"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
		)
	}

	summary := Summary{Results: make([]FileResult, 0, len(paths))}
	done := 0
	for r := range results {
		done++
		summary.Results = append(summary.Results, r)
		switch {
		case r.Err != nil:
			summary.Errors++
		case r.Skipped:
			summary.Skipped++
		default:
			summary.Indexed++
		}
		if bar != nil {
			bar.Add(1)
		}
		if opts.Progress != nil {
			opts.Progress(done, len(paths), r)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return summary
}

func processOne(ctx context.Context, idx index.Index, path string, opts Options) FileResult {
	samples, channels, sourceRate, err := opts.Decoder.Decode(ctx, path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("decoding %s: %w", path, err)}
	}

	spec := fingerprint.ToSpectrogram(samples, sourceRate, channels, opts.Config)
	if len(spec) == 0 {
		return FileResult{Path: path, Skipped: true}
	}

	peaks := fingerprint.ExtractPeaks(spec, opts.Config)
	landmarks := fingerprint.GenerateLandmarks(peaks, opts.Config)
	if len(landmarks) == 0 {
		return FileResult{Path: path, Skipped: true, NumPeaks: len(peaks)}
	}

	id := trackid.FromSamples(samples)
	title, artist := path, ""
	if opts.TitleFor != nil {
		title = opts.TitleFor(path)
	}
	if opts.ArtistFor != nil {
		artist = opts.ArtistFor(path)
	}

	track := index.Track{
		ID:              id,
		Title:           title,
		Artist:          artist,
		SourcePath:      path,
		DurationSeconds: float64(len(samples)) / float64(max(sourceRate, 1)),
		NumPeaks:        len(peaks),
		NumHashes:       len(landmarks),
	}
	if err := idx.AddTrack(track, landmarks); err != nil {
		return FileResult{Path: path, TrackID: id, Err: fmt.Errorf("indexing %s: %w", path, err)}
	}
	return FileResult{Path: path, TrackID: id, NumPeaks: len(peaks), NumHashes: len(landmarks)}
}
