package audioio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/fpengine/internal/fperrors"
)

// writeTestWAV builds a minimal canonical 16-bit PCM WAV file for a test,
// mirroring the shape the teacher's own fixtures use.
func writeTestWAV(t *testing.T, samples []int16, channels, sampleRate int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")

	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test WAV: %v", err)
	}
	return path
}

func TestReadWAVMono(t *testing.T) {
	path := writeTestWAV(t, []int16{0, 16384, -16384, 32767}, 1, 11025)

	samples, channels, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if channels != 1 {
		t.Fatalf("expected 1 channel, got %d", channels)
	}
	if rate != 11025 {
		t.Fatalf("expected sample rate 11025, got %d", rate)
	}
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("expected sample[0]=0, got %f", samples[0])
	}
	want := float32(16384) / 32768.0
	if samples[1] != want {
		t.Errorf("expected sample[1]=%f, got %f", want, samples[1])
	}
}

func TestReadWAVStereo(t *testing.T) {
	path := writeTestWAV(t, []int16{100, 200, 300, 400}, 2, 22050)

	samples, channels, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if channels != 2 {
		t.Fatalf("expected 2 channels, got %d", channels)
	}
	if rate != 22050 {
		t.Fatalf("expected sample rate 22050, got %d", rate)
	}
	if len(samples) != 4 {
		t.Fatalf("expected 4 interleaved samples, got %d", len(samples))
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	_, _, _, err := ReadWAV(filepath.Join(t.TempDir(), "does-not-exist.wav"))
	if !errors.Is(err, fperrors.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestReadWAVNotRIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := ReadWAV(path)
	if !errors.Is(err, fperrors.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}
