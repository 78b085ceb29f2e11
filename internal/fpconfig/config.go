// Package fpconfig holds the single immutable configuration record shared
// by the audio front end, peak extractor, hash generator, index and
// matcher. Index and query must be built from the same values or recall
// silently degrades.
package fpconfig

// Config is built once with New and passed by value to every stage of the
// pipeline. Its zero value is not meaningful; always construct it with New.
type Config struct {
	SampleRate              int
	NFFT                    int
	Hop                     int
	PeakRadius              int
	MinAmplitude            float64
	FanOut                  int
	DtMax                   int
	MaxPostingsPerHashQuery int
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithSampleRate overrides the canonical sample rate used by the audio
// front end (default 11025).
func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithNFFT overrides the STFT window length (default 2048).
func WithNFFT(n int) Option {
	return func(c *Config) { c.NFFT = n }
}

// WithHop overrides the STFT hop size in samples (default 512).
func WithHop(hop int) Option {
	return func(c *Config) { c.Hop = hop }
}

// WithPeakRadius overrides the peak neighborhood radius, in both axes
// (default 20).
func WithPeakRadius(radius int) Option {
	return func(c *Config) { c.PeakRadius = radius }
}

// WithMinAmplitude overrides the peak amplitude floor, applied after
// dynamic-range compression (default 10.0).
func WithMinAmplitude(min float64) Option {
	return func(c *Config) { c.MinAmplitude = min }
}

// WithFanOut overrides the maximum number of pairs emitted per anchor peak
// (default 5).
func WithFanOut(fanOut int) Option {
	return func(c *Config) { c.FanOut = fanOut }
}

// WithDtMax overrides the maximum Δt frame window considered when pairing
// peaks (default 200).
func WithDtMax(dtMax int) Option {
	return func(c *Config) { c.DtMax = dtMax }
}

// WithMaxPostingsPerHashQuery overrides the matcher's hot-hash guard
// (default 5000).
func WithMaxPostingsPerHashQuery(max int) Option {
	return func(c *Config) { c.MaxPostingsPerHashQuery = max }
}

// Default returns the configuration spec.md §6 names as defaults, unmodified.
func Default() Config {
	return Config{
		SampleRate:              11025,
		NFFT:                    2048,
		Hop:                     512,
		PeakRadius:              20,
		MinAmplitude:            10.0,
		FanOut:                  5,
		DtMax:                   200,
		MaxPostingsPerHashQuery: 5000,
	}
}

// New builds a Config starting from Default and applying opts in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FreqBins returns F_BINS = NFFT/2 + 1, the number of magnitude bins a
// spectrogram frame has under this configuration.
func (c Config) FreqBins() int {
	return c.NFFT/2 + 1
}
