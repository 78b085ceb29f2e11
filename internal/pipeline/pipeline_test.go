package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/himanishpuri/fpengine/internal/fpconfig"
	"github.com/himanishpuri/fpengine/internal/index"
)

// fakeDecoder synthesizes a sine sweep for any path not in failPaths, so
// tests exercise the real spectrogram/peak/hash stages without needing
// ffmpeg or real audio fixtures on disk.
type fakeDecoder struct {
	sampleRate int
	failPaths  map[string]bool
	silent     map[string]bool
}

func (d fakeDecoder) Decode(_ context.Context, path string) ([]float32, int, int, error) {
	if d.failPaths[path] {
		return nil, 0, 0, errors.New("simulated decode failure")
	}
	n := d.sampleRate * 3
	samples := make([]float32, n)
	if !d.silent[path] {
		for i := range samples {
			t := float64(i) / float64(d.sampleRate)
			samples[i] = float32(math.Sin(2 * math.Pi * 440 * t))
		}
	}
	return samples, 1, d.sampleRate, nil
}

func TestIndexPathsIndexesAndSkipsAndErrors(t *testing.T) {
	cfg := fpconfig.Default()
	idx := index.NewMemory()
	decoder := fakeDecoder{
		sampleRate: cfg.SampleRate,
		failPaths:  map[string]bool{"bad.wav": true},
		silent:     map[string]bool{"silent.wav": true},
	}

	paths := []string{"good.wav", "bad.wav", "silent.wav"}
	summary := IndexPaths(context.Background(), idx, paths, Options{
		Concurrency: 2,
		Decoder:     decoder,
		Config:      cfg,
		TitleFor:    func(p string) string { return p },
	})

	if summary.Indexed != 1 {
		t.Errorf("expected 1 indexed, got %d (%+v)", summary.Indexed, summary.Results)
	}
	if summary.Errors != 1 {
		t.Errorf("expected 1 error, got %d", summary.Errors)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped (silent), got %d", summary.Skipped)
	}

	stats, err := idx.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.NumTracks != 1 {
		t.Fatalf("expected 1 track in the index, got %d", stats.NumTracks)
	}
}

func TestIndexPathsProgressCallbackCoversEveryFile(t *testing.T) {
	cfg := fpconfig.Default()
	idx := index.NewMemory()
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = fmt.Sprintf("track-%d.wav", i)
	}
	decoder := fakeDecoder{sampleRate: cfg.SampleRate}

	seen := 0
	IndexPaths(context.Background(), idx, paths, Options{
		Concurrency: 3,
		Decoder:     decoder,
		Config:      cfg,
		Progress: func(done, total int, _ FileResult) {
			seen++
			if total != len(paths) {
				t.Errorf("expected total=%d, got %d", len(paths), total)
			}
			if done > total {
				t.Errorf("done %d exceeds total %d", done, total)
			}
		},
	})
	if seen != len(paths) {
		t.Fatalf("expected progress callback once per file, got %d calls", seen)
	}
}

func TestIndexPathsCancellation(t *testing.T) {
	cfg := fpconfig.Default()
	idx := index.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decoder := fakeDecoder{sampleRate: cfg.SampleRate}
	paths := []string{"a.wav", "b.wav"}
	summary := IndexPaths(ctx, idx, paths, Options{
		Concurrency: 1,
		Decoder:     decoder,
		Config:      cfg,
	})
	if summary.Indexed != 0 {
		t.Fatalf("expected no files indexed after cancellation, got %d", summary.Indexed)
	}
	stats, _ := idx.Stats()
	if stats.NumTracks != 0 {
		t.Fatalf("expected empty index after cancellation, got %d tracks", stats.NumTracks)
	}
}
