package audioio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/himanishpuri/fpengine/internal/fperrors"
	"github.com/himanishpuri/fpengine/pkg/utils"
)

// Decoder is the audio front end's external collaborator (spec.md §6):
// decode(path_or_bytes) → (samples_f32, source_rate). The core never
// depends on a container format directly; it asks a Decoder for PCM.
type Decoder interface {
	Decode(ctx context.Context, path string) (samples []float32, channels int, sourceRate int, err error)
}

// FFmpegDecoder shells out to ffmpeg to convert arbitrary input to mono
// PCM WAV at a fixed sample rate, then reads it back with ReadWAV. This is
// the teacher's ConvertToMonoWAV, generalized to take the sample rate from
// the caller instead of a hardcoded constant.
type FFmpegDecoder struct {
	// TempDir is where intermediate WAV files are written.
	TempDir string
	// SampleRate is the rate ffmpeg resamples to before this decoder hands
	// samples back; ToSpectrogram resamples again only if this differs
	// from the configured rate, so setting it to the config's SampleRate
	// avoids a redundant resample.
	SampleRate int
}

func (d FFmpegDecoder) Decode(ctx context.Context, path string) ([]float32, int, int, error) {
	wavPath, err := d.convertToMonoWAV(ctx, path)
	if err != nil {
		return nil, 0, 0, err
	}
	samples, channels, rate, err := ReadWAV(wavPath)
	if err != nil {
		return nil, 0, 0, err
	}
	return samples, channels, rate, nil
}

func (d FFmpegDecoder) convertToMonoWAV(ctx context.Context, inputPath string) (string, error) {
	sampleRate := d.SampleRate
	if sampleRate == 0 {
		sampleRate = 11025
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(d.TempDir); err != nil {
		return "", fmt.Errorf("%w: creating temp dir: %v", fperrors.ErrDecodeFailure, err)
	}

	outputPath := filepath.Join(d.TempDir, filepath.Base(inputPath)+".wav")
	tmpPath := outputPath + ".tmp"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", fperrors.ErrDecodeFailure, ctx.Err())
		}
		return "", fmt.Errorf("%w: ffmpeg failed: %v (%s)", fperrors.ErrDecodeFailure, err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", fmt.Errorf("%w: %v", fperrors.ErrDecodeFailure, err)
	}

	return outputPath, nil
}
