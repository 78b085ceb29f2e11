package fingerprint

import (
	"testing"

	"github.com/himanishpuri/fpengine/internal/fpconfig"
)

func gridSpectrogram(nT, nF int) Spectrogram {
	spec := make(Spectrogram, nT)
	for t := range spec {
		spec[t] = make([]float32, nF)
	}
	return spec
}

func TestExtractPeaksEmptySpectrogram(t *testing.T) {
	cfg := fpconfig.Default()
	if peaks := ExtractPeaks(nil, cfg); peaks != nil {
		t.Error("expected no peaks from a nil spectrogram")
	}
	if peaks := ExtractPeaks(Spectrogram{}, cfg); peaks != nil {
		t.Error("expected no peaks from an empty spectrogram")
	}
}

func TestExtractPeaksAllZero(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithMinAmplitude(0.1))
	spec := gridSpectrogram(50, 50)
	peaks := ExtractPeaks(spec, cfg)
	if len(peaks) != 0 {
		t.Fatalf("all-zero spectrogram should have no peaks, got %d", len(peaks))
	}
}

func TestExtractPeaksSingleSpike(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithPeakRadius(5), fpconfig.WithMinAmplitude(1.0))
	spec := gridSpectrogram(30, 30)
	spec[15][15] = 10.0

	peaks := ExtractPeaks(spec, cfg)
	if len(peaks) != 1 {
		t.Fatalf("expected exactly one peak, got %d", len(peaks))
	}
	if peaks[0].Time != 15 || peaks[0].Freq != 15 {
		t.Fatalf("unexpected peak location: %+v", peaks[0])
	}
}

func TestExtractPeaksBelowFloor(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithPeakRadius(5), fpconfig.WithMinAmplitude(5.0))
	spec := gridSpectrogram(30, 30)
	spec[10][10] = 2.0 // local max, but below the amplitude floor

	peaks := ExtractPeaks(spec, cfg)
	if len(peaks) != 0 {
		t.Fatalf("expected no peaks below the amplitude floor, got %d", len(peaks))
	}
}

func TestExtractPeaksPlateauTieBreak(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithPeakRadius(3), fpconfig.WithMinAmplitude(1.0))
	spec := gridSpectrogram(20, 20)
	// A 2x2 plateau of equal magnitude: only the smallest (t,f) should survive.
	spec[10][10] = 5.0
	spec[10][11] = 5.0
	spec[11][10] = 5.0
	spec[11][11] = 5.0

	peaks := ExtractPeaks(spec, cfg)
	if len(peaks) != 1 {
		t.Fatalf("expected plateau to collapse to one peak, got %d", len(peaks))
	}
	if peaks[0].Time != 10 || peaks[0].Freq != 10 {
		t.Fatalf("expected tie-break to keep (10,10), got %+v", peaks[0])
	}
}

func TestExtractPeaksOrdering(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithPeakRadius(2), fpconfig.WithMinAmplitude(1.0))
	spec := gridSpectrogram(30, 30)
	spec[5][20] = 9.0
	spec[5][5] = 8.0
	spec[20][5] = 7.0

	peaks := ExtractPeaks(spec, cfg)
	if len(peaks) != 3 {
		t.Fatalf("expected 3 peaks, got %d", len(peaks))
	}
	for i := 1; i < len(peaks); i++ {
		if peaks[i].Time < peaks[i-1].Time {
			t.Fatal("peaks not sorted by time")
		}
		if peaks[i].Time == peaks[i-1].Time && peaks[i].Freq < peaks[i-1].Freq {
			t.Fatal("peaks not sorted by frequency within same time")
		}
	}
}

func TestExtractPeaksBorderBin(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithPeakRadius(5), fpconfig.WithMinAmplitude(1.0))
	spec := gridSpectrogram(10, 10)
	spec[0][0] = 3.0 // dominates its clipped corner neighborhood

	peaks := ExtractPeaks(spec, cfg)
	if len(peaks) != 1 || peaks[0].Time != 0 || peaks[0].Freq != 0 {
		t.Fatalf("expected border peak to qualify, got %+v", peaks)
	}
}
