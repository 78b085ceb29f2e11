// Package audioio is the one trivial built-in decoder this repo ships:
// a manual WAV chunk walker for already-PCM input, plus the ffmpeg-based
// collaborator that turns arbitrary container/codec input into that PCM
// in the first place. Container/codec decoding itself stays an external
// collaborator (ffmpeg/ffprobe), per spec.md §1's scope boundary.
package audioio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/himanishpuri/fpengine/internal/fperrors"
)

// WavFormat holds the format fields read from a WAV's fmt chunk.
type WavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

type wavData struct {
	format WavFormat
	data   []byte
}

func readRIFFHeader(f *os.File) error {
	var riff [4]byte
	var fileSize uint32
	var wave [4]byte

	if err := binary.Read(f, binary.LittleEndian, &riff); err != nil {
		return fmt.Errorf("reading RIFF header: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &fileSize); err != nil {
		return fmt.Errorf("reading RIFF size: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &wave); err != nil {
		return fmt.Errorf("reading WAVE id: %w", err)
	}
	if string(riff[:]) != "RIFF" || string(wave[:]) != "WAVE" {
		return errors.New("not a WAV/RIFF file")
	}
	return nil
}

func readFmtChunk(f *os.File, chunkSize uint32) (*WavFormat, error) {
	var audioFormat, numChannels, blockAlign, bitsPerSample uint16
	var sampleRate, byteRate uint32

	if err := binary.Read(f, binary.LittleEndian, &audioFormat); err != nil {
		return nil, fmt.Errorf("reading fmt audioFormat: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &numChannels); err != nil {
		return nil, fmt.Errorf("reading fmt numChannels: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &sampleRate); err != nil {
		return nil, fmt.Errorf("reading fmt sampleRate: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &byteRate); err != nil {
		return nil, fmt.Errorf("reading fmt byteRate: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &blockAlign); err != nil {
		return nil, fmt.Errorf("reading fmt blockAlign: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &bitsPerSample); err != nil {
		return nil, fmt.Errorf("reading fmt bitsPerSample: %w", err)
	}

	remaining := int(chunkSize) - 16
	if remaining > 0 {
		if _, err := f.Seek(int64(remaining), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("seeking past fmt extras: %w", err)
		}
	}

	return &WavFormat{
		AudioFormat:   audioFormat,
		NumChannels:   numChannels,
		SampleRate:    sampleRate,
		BitsPerSample: bitsPerSample,
	}, nil
}

func readDataChunk(f *os.File, chunkSize uint32) ([]byte, error) {
	buf := make([]byte, chunkSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("reading data chunk: %w", err)
	}
	return buf, nil
}

func skipChunk(f *os.File, chunkSize uint32) error {
	_, err := f.Seek(int64(chunkSize), io.SeekCurrent)
	return err
}

// scanWavChunks walks chunks in arbitrary order until it has found both
// fmt and data, skipping anything else (LIST, INFO, junk, ...). It does
// not assume a canonical 44-byte header.
func scanWavChunks(f *os.File) (*wavData, error) {
	var format WavFormat
	var data []byte
	fmtFound, dataFound := false, false

	for {
		var chunkID [4]byte
		var chunkSize uint32

		if err := binary.Read(f, binary.LittleEndian, &chunkID); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading chunk header: %w", err)
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			return nil, fmt.Errorf("reading chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			f2, err := readFmtChunk(f, chunkSize)
			if err != nil {
				return nil, err
			}
			format = *f2
			fmtFound = true
		case "data":
			d, err := readDataChunk(f, chunkSize)
			if err != nil {
				return nil, err
			}
			data = d
			dataFound = true
		default:
			if err := skipChunk(f, chunkSize); err != nil {
				return nil, fmt.Errorf("skipping chunk: %w", err)
			}
		}

		if chunkSize%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seeking pad byte: %w", err)
			}
		}
		if fmtFound && dataFound {
			break
		}
	}

	if !fmtFound {
		return nil, errors.New("fmt chunk not found")
	}
	if !dataFound {
		return nil, errors.New("data chunk not found")
	}
	return &wavData{format: format, data: data}, nil
}

func int16Samples(data []byte) ([]int16, error) {
	out := make([]int16, len(data)/2)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("decoding PCM samples: %w", err)
	}
	return out, nil
}

// ReadWAV reads a 16-bit PCM WAV file and returns interleaved samples
// scaled to [-1, 1], the channel count and the sample rate. Unlike the
// teacher's version it does not mono-mix here; ToSpectrogram does that
// step explicitly per the front end's order of operations (§4.A).
// Anything other than 16-bit PCM fails with ErrDecodeFailure — this
// reader is the one trivial built-in decoder for already-PCM input, not a
// general codec.
func ReadWAV(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", fperrors.ErrDecodeFailure, err)
	}
	defer f.Close()

	if err := readRIFFHeader(f); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", fperrors.ErrDecodeFailure, err)
	}

	wd, err := scanWavChunks(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", fperrors.ErrDecodeFailure, err)
	}
	if wd.format.AudioFormat != 1 {
		return nil, 0, 0, fmt.Errorf("%w: only PCM (1) supported, got format %d", fperrors.ErrDecodeFailure, wd.format.AudioFormat)
	}
	if wd.format.BitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("%w: only 16-bit PCM supported, got %d bits", fperrors.ErrDecodeFailure, wd.format.BitsPerSample)
	}

	ints, err := int16Samples(wd.data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", fperrors.ErrDecodeFailure, err)
	}

	const scale = 1.0 / 32768.0
	samples := make([]float32, len(ints))
	for i, s := range ints {
		samples[i] = float32(s) * scale
	}

	return samples, int(wd.format.NumChannels), int(wd.format.SampleRate), nil
}
