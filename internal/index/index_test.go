package index

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fperrors"
)

// backends returns one instance of each Index implementation so the
// invariant tests below run against both.
func backends(t *testing.T) map[string]Index {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.sqlite3")
	sql, err := NewSQLStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLStore failed: %v", err)
	}
	t.Cleanup(func() { sql.Close() })

	return map[string]Index{
		"memory": NewMemory(),
		"sqlite": sql,
	}
}

func TestAddTrackAndLookup(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			track := Track{ID: "t1", Title: "Song", Artist: "Artist", NumHashes: 2}
			landmarks := []fingerprint.Landmark{
				{Hash: 1000, AnchorTime: 5},
				{Hash: 1000, AnchorTime: 9},
				{Hash: 2000, AnchorTime: 5},
			}
			if err := idx.AddTrack(track, landmarks); err != nil {
				t.Fatalf("AddTrack failed: %v", err)
			}

			postings, err := idx.Lookup(1000)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if len(postings) != 2 {
				t.Fatalf("expected 2 postings for hash 1000, got %d", len(postings))
			}

			got, err := idx.GetTrack("t1")
			if err != nil {
				t.Fatalf("GetTrack failed: %v", err)
			}
			if got.Title != "Song" {
				t.Fatalf("unexpected track: %+v", got)
			}
		})
	}
}

func TestAddTrackDuplicateRejected(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			track := Track{ID: "dup"}
			if err := idx.AddTrack(track, nil); err != nil {
				t.Fatalf("first AddTrack failed: %v", err)
			}
			err := idx.AddTrack(track, nil)
			if !errors.Is(err, fperrors.ErrDuplicateTrack) {
				t.Fatalf("expected ErrDuplicateTrack, got %v", err)
			}
		})
	}
}

func TestForgetIsIdempotentAndComplete(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			track := Track{ID: "forgetme"}
			landmarks := []fingerprint.Landmark{{Hash: 42, AnchorTime: 1}}
			if err := idx.AddTrack(track, landmarks); err != nil {
				t.Fatalf("AddTrack failed: %v", err)
			}

			ok, err := idx.Forget("forgetme")
			if err != nil || !ok {
				t.Fatalf("Forget failed: ok=%v err=%v", ok, err)
			}

			ok, err = idx.Forget("forgetme")
			if err != nil || ok {
				t.Fatalf("second Forget should be a no-op: ok=%v err=%v", ok, err)
			}

			postings, err := idx.Lookup(42)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			for _, p := range postings {
				if p.TrackID == "forgetme" {
					t.Fatal("forgotten track still has a posting")
				}
			}

			if _, err := idx.GetTrack("forgetme"); !errors.Is(err, fperrors.ErrUnknownTrack) {
				t.Fatalf("expected ErrUnknownTrack, got %v", err)
			}
		})
	}
}

func TestForgetUnknownTrack(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := idx.Forget("never-existed")
			if err != nil || ok {
				t.Fatalf("expected idempotent no-op, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestZeroLandmarkTrackStillVisible(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			track := Track{ID: "silent", NumHashes: 0}
			if err := idx.AddTrack(track, nil); err != nil {
				t.Fatalf("AddTrack with zero landmarks failed: %v", err)
			}
			got, err := idx.GetTrack("silent")
			if err != nil {
				t.Fatalf("GetTrack failed: %v", err)
			}
			if got.NumHashes != 0 {
				t.Fatalf("expected NumHashes=0, got %d", got.NumHashes)
			}
			tracks, err := idx.ListTracks()
			if err != nil {
				t.Fatalf("ListTracks failed: %v", err)
			}
			found := false
			for _, tr := range tracks {
				if tr.ID == "silent" {
					found = true
				}
			}
			if !found {
				t.Fatal("zero-hash track should still be list_tracks-visible")
			}
		})
	}
}

func TestStats(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := idx.AddTrack(Track{ID: "a"}, []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}, {Hash: 2, AnchorTime: 1}}); err != nil {
				t.Fatal(err)
			}
			if err := idx.AddTrack(Track{ID: "b"}, []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}}); err != nil {
				t.Fatal(err)
			}
			stats, err := idx.Stats()
			if err != nil {
				t.Fatalf("Stats failed: %v", err)
			}
			if stats.NumTracks != 2 {
				t.Errorf("expected 2 tracks, got %d", stats.NumTracks)
			}
			if stats.NumPostings != 3 {
				t.Errorf("expected 3 postings, got %d", stats.NumPostings)
			}
			if stats.NumUniqueHashes != 2 {
				t.Errorf("expected 2 unique hashes, got %d", stats.NumUniqueHashes)
			}
		})
	}
}

func TestResetClearsIndex(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := idx.AddTrack(Track{ID: "x"}, []fingerprint.Landmark{{Hash: 7, AnchorTime: 0}}); err != nil {
				t.Fatal(err)
			}
			if err := idx.Reset(); err != nil {
				t.Fatalf("Reset failed: %v", err)
			}
			stats, err := idx.Stats()
			if err != nil {
				t.Fatal(err)
			}
			if stats.NumTracks != 0 || stats.NumPostings != 0 {
				t.Fatalf("expected empty index after Reset, got %+v", stats)
			}
		})
	}
}

// TestConcurrentAddTrackAndLookup exercises the concurrency contract of
// §5: many concurrent writers for distinct tracks, interleaved with many
// concurrent readers, and no reader ever observing a partial track.
func TestConcurrentAddTrackAndLookup(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const numTracks = 8
			var wg sync.WaitGroup

			for i := 0; i < numTracks; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := filepath.Join("track", string(rune('a'+i)))
					landmarks := []fingerprint.Landmark{
						{Hash: fingerprint.LandmarkHash(i), AnchorTime: 0},
						{Hash: fingerprint.LandmarkHash(i), AnchorTime: 1},
					}
					if err := idx.AddTrack(Track{ID: id, NumHashes: 2}, landmarks); err != nil {
						t.Errorf("AddTrack(%s) failed: %v", id, err)
					}
				}(i)
			}

			stop := make(chan struct{})
			var readerWg sync.WaitGroup
			for r := 0; r < 4; r++ {
				readerWg.Add(1)
				go func() {
					defer readerWg.Done()
					for {
						select {
						case <-stop:
							return
						default:
							tracks, err := idx.ListTracks()
							if err != nil {
								t.Errorf("ListTracks failed: %v", err)
								return
							}
							for _, tr := range tracks {
								if tr.NumHashes != 2 {
									t.Errorf("observed partially-described track: %+v", tr)
								}
							}
							for h := 0; h < numTracks; h++ {
								postings, err := idx.Lookup(fingerprint.LandmarkHash(h))
								if err != nil {
									t.Errorf("Lookup failed: %v", err)
									return
								}
								if len(postings) != 0 && len(postings) != 2 {
									t.Errorf("observed partial postings for hash %d: %d", h, len(postings))
								}
							}
						}
					}
				}()
			}

			wg.Wait()
			close(stop)
			readerWg.Wait()

			stats, err := idx.Stats()
			if err != nil {
				t.Fatal(err)
			}
			if stats.NumTracks != numTracks {
				t.Fatalf("expected %d tracks, got %d", numTracks, stats.NumTracks)
			}
		})
	}
}
