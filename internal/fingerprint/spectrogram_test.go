package fingerprint

import (
	"math"
	"testing"

	"github.com/himanishpuri/fpengine/internal/fpconfig"
)

func TestHannWindow(t *testing.T) {
	for _, size := range []int{128, 256, 1024} {
		w := hannWindow(size)
		if len(w) != size {
			t.Errorf("expected window size %d, got %d", size, len(w))
		}
		for i, val := range w {
			if val < 0 || val > 1 {
				t.Errorf("window value %d out of range [0,1]: %f", i, val)
			}
		}
		if w[0] >= w[size/2] {
			t.Error("Hann window should be lower at the edges than at the center")
		}
	}
}

func TestToSpectrogramSilence(t *testing.T) {
	cfg := fpconfig.Default()
	samples := make([]float32, cfg.SampleRate*2)
	spec := ToSpectrogram(samples, cfg.SampleRate, 1, cfg)
	if len(spec) != 0 {
		t.Fatalf("expected zero-frame spectrogram for all-silence input, got %d frames", len(spec))
	}
}

func TestToSpectrogramTooShort(t *testing.T) {
	cfg := fpconfig.Default()
	samples := make([]float32, cfg.NFFT-1)
	spec := ToSpectrogram(samples, cfg.SampleRate, 1, cfg)
	if len(spec) != 0 {
		t.Fatalf("expected zero-frame spectrogram for sub-window input, got %d frames", len(spec))
	}
}

func TestToSpectrogramEmpty(t *testing.T) {
	cfg := fpconfig.Default()
	spec := ToSpectrogram(nil, cfg.SampleRate, 1, cfg)
	if len(spec) != 0 {
		t.Fatalf("expected zero-frame spectrogram for empty input, got %d frames", len(spec))
	}
}

func TestToSpectrogramShape(t *testing.T) {
	cfg := fpconfig.New(fpconfig.WithNFFT(256), fpconfig.WithHop(128))
	samples := make([]float32, cfg.SampleRate)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / float64(cfg.SampleRate)))
	}
	spec := ToSpectrogram(samples, cfg.SampleRate, 1, cfg)
	if len(spec) == 0 {
		t.Fatal("expected non-empty spectrogram for a sine tone")
	}
	wantBins := cfg.FreqBins()
	for i, row := range spec {
		if len(row) != wantBins {
			t.Fatalf("frame %d: expected %d bins, got %d", i, wantBins, len(row))
		}
	}
}

func TestMixToMono(t *testing.T) {
	stereo := []float32{1, 3, 2, 4}
	mono := mixToMono(stereo, 2)
	if len(mono) != 2 {
		t.Fatalf("expected 2 mono frames, got %d", len(mono))
	}
	if mono[0] != 2 || mono[1] != 3 {
		t.Fatalf("unexpected mono mix: %v", mono)
	}
}

func TestNormalizePeak(t *testing.T) {
	samples := []float32{0.5, -2.0, 1.0}
	out := normalizePeak(samples)
	var maxAbs float32
	for _, s := range out {
		if s < 0 {
			s = -s
		}
		if s > maxAbs {
			maxAbs = s
		}
	}
	if maxAbs != 1.0 {
		t.Fatalf("expected normalized peak of 1.0, got %f", maxAbs)
	}
}

func TestResampleLinearNoop(t *testing.T) {
	samples := []float32{1, 2, 3}
	out := resampleLinear(samples, 11025, 11025)
	if len(out) != len(samples) {
		t.Fatalf("same-rate resample should be a no-op, got length %d", len(out))
	}
}
