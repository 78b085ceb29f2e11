//go:build js && wasm

// Command fpwasm exposes the fingerprinting front end to a browser via
// syscall/js, so a page can extract landmarks from microphone/file audio
// without a round trip for the raw samples, then POST only the hashes to
// /api/match/hashes. Adapted from the teacher's cmd/wasm/main.go, swapping
// pkg/acousticdna/fingerprint's ComputeSpectrogramFromSamples/Fingerprint
// pair for internal/fingerprint's Config-driven ToSpectrogram/ExtractPeaks/
// GenerateLandmarks pipeline and its 10/10/10-bit wire hash.
package main

import (
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fpconfig"
)

// Error codes returned to JavaScript, unchanged from the teacher.
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorSpectrogramFailed
	ErrorPeakExtraction
	ErrorHashGeneration
)

// generateFingerprint processes audio samples and returns landmark hashes.
// Returns: {error: number, data: array | string}
func generateFingerprint(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float32Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}
	if channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channels must be a number")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()

	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}

	samples := make([]float32, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = float32(val.Float())
	}

	cfg := fpconfig.Default()
	cfg.SampleRate = sampleRate

	spec := fingerprint.ToSpectrogram(samples, sampleRate, channels, cfg)
	if len(spec) == 0 {
		return makeErrorResponse(ErrorSpectrogramFailed, "failed to generate spectrogram")
	}

	peaks := fingerprint.ExtractPeaks(spec, cfg)
	if len(peaks) == 0 {
		return makeErrorResponse(ErrorPeakExtraction, "no peaks found in audio (audio may be silent or too short)")
	}

	landmarks := fingerprint.GenerateLandmarks(peaks, cfg)
	if len(landmarks) == 0 {
		return makeErrorResponse(ErrorHashGeneration, "no fingerprint hashes generated")
	}

	hashArray := js.Global().Get("Array").New()
	for i, lm := range landmarks {
		hashObj := js.Global().Get("Object").New()
		hashObj.Set("hash", uint32(lm.Hash))
		hashObj.Set("anchorTime", lm.AnchorTime)
		hashArray.SetIndex(i, hashObj)
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", hashArray)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "fpengine WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("generateFingerprint", js.FuncOf(generateFingerprint))

	if !console.IsUndefined() {
		console.Call("log", "generateFingerprint function registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "window object is undefined")
	}

	if !console.IsUndefined() {
		console.Call("log", "fpengine WASM module loaded and ready")
	}

	<-done
}
