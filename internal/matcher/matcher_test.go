package matcher

import (
	"context"
	"testing"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fpconfig"
	"github.com/himanishpuri/fpengine/internal/index"
)

func TestMatchEmptyQuery(t *testing.T) {
	m := New(index.NewMemory(), fpconfig.Default())
	results, err := m.Match(context.Background(), nil, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Fatalf("expected nil results for empty query, got %v", results)
	}
}

func TestMatchSelfRecall(t *testing.T) {
	idx := index.NewMemory()
	trackLandmarks := []fingerprint.Landmark{
		{Hash: 1, AnchorTime: 10},
		{Hash: 2, AnchorTime: 15},
		{Hash: 3, AnchorTime: 20},
		{Hash: 4, AnchorTime: 25},
	}
	if err := idx.AddTrack(index.Track{ID: "t1", NumHashes: len(trackLandmarks)}, trackLandmarks); err != nil {
		t.Fatal(err)
	}

	// Query is the same track shifted by an offset of 100 frames: anchor
	// times in the query are trackAnchor-100.
	query := []fingerprint.Landmark{
		{Hash: 1, AnchorTime: 10 - 100},
		{Hash: 2, AnchorTime: 15 - 100},
		{Hash: 3, AnchorTime: 20 - 100},
	}

	m := New(idx, fpconfig.Default())
	results, err := m.Match(context.Background(), query, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].TrackID != "t1" {
		t.Fatalf("expected t1, got %s", results[0].TrackID)
	}
	if results[0].OffsetFrames < 98 || results[0].OffsetFrames > 102 {
		t.Fatalf("expected offset within 2 frames of 100, got %d", results[0].OffsetFrames)
	}
	if results[0].Score <= 0 || results[0].Score > 1 {
		t.Fatalf("score out of [0,1]: %f", results[0].Score)
	}
}

func TestMatchScoreBoundedByCollidingPostings(t *testing.T) {
	idx := index.NewMemory()
	// Two postings for the same track at the same anchor time under the
	// same hash: a colliding peak pair. A single query landmark must not
	// be able to push score above 1/Q * Q = 1.
	landmarks := []fingerprint.Landmark{
		{Hash: 9, AnchorTime: 5},
		{Hash: 9, AnchorTime: 5},
	}
	if err := idx.AddTrack(index.Track{ID: "dup", NumHashes: 2}, landmarks); err != nil {
		t.Fatal(err)
	}

	query := []fingerprint.Landmark{{Hash: 9, AnchorTime: 0}}
	m := New(idx, fpconfig.Default())
	results, err := m.Match(context.Background(), query, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Score > 1.0 {
		t.Fatalf("score exceeded 1.0: %f", results[0].Score)
	}
	if results[0].HitCount != 1 {
		t.Fatalf("expected a single query landmark to cast exactly one vote, got HitCount=%d", results[0].HitCount)
	}
}

func TestMatchNoCandidatesBelowMinScore(t *testing.T) {
	idx := index.NewMemory()
	if err := idx.AddTrack(index.Track{ID: "weak"}, []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}}); err != nil {
		t.Fatal(err)
	}
	query := []fingerprint.Landmark{
		{Hash: 1, AnchorTime: 0},
		{Hash: 2, AnchorTime: 1},
		{Hash: 3, AnchorTime: 2},
		{Hash: 4, AnchorTime: 3},
	}
	m := New(idx, fpconfig.Default())
	results, err := m.Match(context.Background(), query, 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected candidates below min_score to be pruned, got %v", results)
	}
}

func TestMatchTiesBrokenByTrackID(t *testing.T) {
	idx := index.NewMemory()
	for _, id := range []string{"zzz", "aaa"} {
		if err := idx.AddTrack(index.Track{ID: id}, []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}}); err != nil {
			t.Fatal(err)
		}
	}
	query := []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}}
	m := New(idx, fpconfig.Default())
	results, err := m.Match(context.Background(), query, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].TrackID != "aaa" {
		t.Fatalf("expected tie broken by lexicographically smaller track_id first, got %+v", results)
	}
}

func TestMatchRespectsK(t *testing.T) {
	idx := index.NewMemory()
	for _, id := range []string{"a", "b", "c"} {
		if err := idx.AddTrack(index.Track{ID: id}, []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}}); err != nil {
			t.Fatal(err)
		}
	}
	query := []fingerprint.Landmark{{Hash: 1, AnchorTime: 0}}
	m := New(idx, fpconfig.Default())
	results, err := m.Match(context.Background(), query, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected k=2 results, got %d", len(results))
	}
}
