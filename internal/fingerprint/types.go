// Package fingerprint implements the audio front end, constellation
// extractor and combinatorial hasher: turning PCM samples into landmark
// hashes that an index can store and a matcher can query.
package fingerprint

// Sample is a single PCM amplitude in [-1.0, 1.0].
type Sample = float32

// Spectrogram is a dense magnitude array indexed [t][f]: time-major, one
// row per STFT frame, each row F_BINS wide.
type Spectrogram [][]float32

// Peak is a spectral local maximum at frame Time and bin Freq, with
// magnitude Amp taken from the (possibly compressed) spectrogram.
type Peak struct {
	Time int
	Freq int
	Amp  float32
}

// LandmarkHash is the 32-bit packed (f1, f2, Δt) key described in hash.go.
type LandmarkHash uint32

// Landmark is a hash paired with the anchor peak's frame index within the
// owning track.
type Landmark struct {
	Hash       LandmarkHash
	AnchorTime int
}
