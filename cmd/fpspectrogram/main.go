// Command fpspectrogram renders a spectrogram PNG for one or more WAV
// files, with the constellation of extracted landmark peaks overlaid as
// colored dots — a visual debugging aid for tuning internal/fingerprint's
// PeakRadius and MinAmplitude parameters against real recordings.
//
// Adapted from the teacher's root-level make-spectorgram.go: the WAV
// decode (go-audio/wav, go-audio/audio) and background render
// (github.com/eligwz/spectrogram) are kept as-is, generalized from a
// single hardcoded input/output directory pair to flag-driven paths, and
// extended to draw internal/fingerprint.ExtractPeaks's output on top of
// the background instead of just saving the raw spectrogram.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/eligwz/spectrogram"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fpconfig"
)

func main() {
	inputPath := flag.String("in", "", "WAV file or directory of WAV files to render")
	outputDir := flag.String("out", "spectrograms", "directory to write PNG renders to")
	width := flag.Int("width", 2048, "rendered image width in pixels")
	height := flag.Int("height", 512, "rendered image height in pixels (also the FFT bin count)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("usage: fpspectrogram -in <file.wav|dir> [-out dir] [-width N] [-height N]")
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatal(err)
	}

	info, err := os.Stat(*inputPath)
	if err != nil {
		log.Fatal(err)
	}

	cfg := fpconfig.Default()

	render := func(path string) error {
		fmt.Printf("rendering %s...\n", path)
		return renderSpectrogram(path, *outputDir, *width, *height, cfg)
	}

	if !info.IsDir() {
		if err := render(*inputPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	err = filepath.WalkDir(*inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".wav" {
			return nil
		}
		if rerr := render(path); rerr != nil {
			log.Printf("error rendering %s: %v", path, rerr)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("done")
}

func renderSpectrogram(path, outputDir string, width, height int, cfg fpconfig.Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return fmt.Errorf("invalid WAV file: %s", path)
	}

	duration, err := decoder.Duration()
	if err != nil {
		return fmt.Errorf("reading duration: %w", err)
	}
	totalSamples := int(duration.Seconds() * float64(decoder.SampleRate))
	if totalSamples == 0 {
		return fmt.Errorf("no samples in %s", path)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(decoder.NumChans),
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, totalSamples*int(decoder.NumChans)),
		SourceBitDepth: int(decoder.BitDepth),
	}
	if _, err := decoder.PCMBuffer(buf); err != nil {
		return fmt.Errorf("reading samples: %w", err)
	}

	maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))
	samplesF64 := make([]float64, len(buf.Data))
	samplesF32 := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		s := float64(v) / maxVal
		samplesF64[i] = s
		samplesF32[i] = float32(s)
	}

	cfg.SampleRate = int(decoder.SampleRate)
	cfg.NFFT = height * 2

	spec := fingerprint.ToSpectrogram(samplesF32, int(decoder.SampleRate), int(decoder.NumChans), cfg)
	peaks := fingerprint.ExtractPeaks(spec, cfg)

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samplesF64,
		uint32(decoder.SampleRate),
		uint32(height),
		false, // RECTANGLE: use Hamming window
		false, // DFT: use FFT
		true,  // MAG: magnitude
		false, // LOG10: linear scale
	)

	overlayPeaks(img, peaks, len(spec), cfg.FreqBins(), width, height)

	baseName := filepath.Base(path)
	outputPath := filepath.Join(outputDir, baseName+".png")
	if err := spectrogram.SavePng(img, outputPath); err != nil {
		return fmt.Errorf("saving PNG: %w", err)
	}
	fmt.Printf("saved %s (%d peaks)\n", outputPath, len(peaks))
	return nil
}

// overlayPeaks draws a small cross at each extracted peak's position,
// scaled from spectrogram (time-frame, freq-bin) coordinates to the
// rendered image's (width, height) pixel grid.
func overlayPeaks(img draw.Image, peaks []fingerprint.Peak, numFrames, freqBins, width, height int) {
	if numFrames == 0 || freqBins == 0 {
		return
	}
	marker := color.RGBA{R: 255, G: 40, B: 40, A: 255}
	for _, p := range peaks {
		x := p.Time * width / numFrames
		y := height - 1 - (p.Freq * height / freqBins)
		drawCross(img, x, y, marker)
	}
}

func drawCross(img draw.Image, cx, cy int, c color.Color) {
	bounds := img.Bounds()
	for d := -2; d <= 2; d++ {
		setIfInBounds(img, bounds, cx+d, cy, c)
		setIfInBounds(img, bounds, cx, cy+d, c)
	}
}

func setIfInBounds(img draw.Image, bounds image.Rectangle, x, y int, c color.Color) {
	if image.Pt(x, y).In(bounds) {
		img.Set(x, y, c)
	}
}
