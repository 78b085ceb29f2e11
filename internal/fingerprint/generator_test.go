package fingerprint

import (
	"testing"

	"github.com/himanishpuri/fpengine/internal/fpconfig"
)

func TestGenerateLandmarksTooFewPeaks(t *testing.T) {
	cfg := fpconfig.Default()
	if lm := GenerateLandmarks(nil, cfg); lm != nil {
		t.Error("expected no landmarks from zero peaks")
	}
	if lm := GenerateLandmarks([]Peak{{Time: 1, Freq: 1, Amp: 1}}, cfg); lm != nil {
		t.Error("expected no landmarks from a single peak")
	}
}

func TestGenerateLandmarksFanOut(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithFanOut(2), fpconfig.WithDtMax(200))
	peaks := []Peak{
		{Time: 0, Freq: 10, Amp: 1},
		{Time: 1, Freq: 20, Amp: 1},
		{Time: 2, Freq: 30, Amp: 1},
		{Time: 3, Freq: 40, Amp: 1},
	}
	landmarks := GenerateLandmarks(peaks, cfg)
	// Anchor 0 pairs with at most 2 of {1,2,3}; anchor 1 pairs with at most
	// 2 of {2,3}; anchor 2 pairs with 3; anchor 3 has nothing after it.
	if len(landmarks) != 2+2+1 {
		t.Fatalf("expected 5 landmarks, got %d", len(landmarks))
	}
	for _, lm := range landmarks {
		if lm.AnchorTime < 0 || lm.AnchorTime > 2 {
			t.Errorf("unexpected anchor time %d", lm.AnchorTime)
		}
	}
}

func TestGenerateLandmarksRespectsDtMax(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithFanOut(5), fpconfig.WithDtMax(10))
	peaks := []Peak{
		{Time: 0, Freq: 1, Amp: 1},
		{Time: 5, Freq: 2, Amp: 1},
		{Time: 500, Freq: 3, Amp: 1},
	}
	landmarks := GenerateLandmarks(peaks, cfg)
	if len(landmarks) != 1 {
		t.Fatalf("expected only the in-window pair, got %d", len(landmarks))
	}
	_, _, dt := decodeHash(landmarks[0].Hash)
	if dt != 5 {
		t.Fatalf("expected dt=5, got %d", dt)
	}
}

func TestGenerateLandmarksAsymmetricHash(t *testing.T) {
	cfg := fpconfig.Default()
	peaks := []Peak{
		{Time: 0, Freq: 100, Amp: 1},
		{Time: 5, Freq: 50, Amp: 1},
	}
	landmarks := GenerateLandmarks(peaks, cfg)
	if len(landmarks) != 1 {
		t.Fatalf("expected one landmark, got %d", len(landmarks))
	}
	f1, f2, _ := decodeHash(landmarks[0].Hash)
	if f1 != 100 || f2 != 50 {
		t.Fatalf("expected ordered pair (100,50), got (%d,%d)", f1, f2)
	}
}
