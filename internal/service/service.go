// Package service wires the engine's components into the operations
// cmd/fpcli and cmd/fpserver share: add a track from a
// file, match a query clip, list/forget tracks, and run a batch index
// over a directory. It is the one place that owns a Config, an Index
// and a Decoder together, so every caller builds tracks and queries
// from identical parameters (spec.md §4.A's determinism requirement).
//
// Grounded on the teacher's pkg/acousticdna.Service/acousticService
// shape (options struct, storage abstraction, a single constructor),
// generalized from the teacher's song/fingerprint vocabulary to the
// spec's track/landmark vocabulary and from its single SQLite backend
// to either Index implementation.
package service

import (
	"context"
	"fmt"

	"github.com/himanishpuri/fpengine/internal/audioio"
	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fperrors"
	"github.com/himanishpuri/fpengine/internal/fpconfig"
	"github.com/himanishpuri/fpengine/internal/index"
	"github.com/himanishpuri/fpengine/internal/matcher"
	"github.com/himanishpuri/fpengine/internal/pipeline"
	"github.com/himanishpuri/fpengine/internal/trackid"
	"github.com/himanishpuri/fpengine/pkg/logger"
	"github.com/himanishpuri/fpengine/pkg/utils"
)

// Config holds everything a Service needs beyond the fingerprint
// parameters: where to store the index, where to stage decoded audio,
// and who to log through.
type Config struct {
	DBPath     string
	TempDir    string
	FP         fpconfig.Config
	Logger     *logger.Logger
	UseSQLite  bool // false uses the in-memory Index backend
}

// Option mutates a Config during construction, the teacher's
// functional-options pattern (pkg/acousticdna/config.go) generalized to
// the full fingerprinting parameter set.
type Option func(*Config)

func WithDBPath(path string) Option     { return func(c *Config) { c.DBPath = path } }
func WithTempDir(dir string) Option     { return func(c *Config) { c.TempDir = dir } }
func WithSampleRate(rate int) Option    { return func(c *Config) { c.FP.SampleRate = rate } }
func WithFingerprintConfig(fp fpconfig.Config) Option {
	return func(c *Config) { c.FP = fp }
}
func WithMemoryBackend() Option { return func(c *Config) { c.UseSQLite = false } }

func defaultConfig() Config {
	return Config{
		DBPath:    "fpengine.sqlite3",
		TempDir:   "/tmp/fpengine",
		FP:        fpconfig.Default(),
		UseSQLite: true,
	}
}

// Service is the engine's orchestration layer: a Config, an Index, a
// Decoder and a Matcher bound together.
type Service struct {
	cfg     Config
	idx     index.Index
	decoder audioio.Decoder
	match   *matcher.Matcher
	log     *logger.Logger
}

// New constructs a Service. By default it opens (or creates) a SQLite
// index at cfg.DBPath; WithMemoryBackend swaps in the in-memory Index for
// tests and ephemeral/CLI-only use.
func New(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if err := utils.MakeDir(cfg.TempDir); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	var idx index.Index
	var err error
	if cfg.UseSQLite {
		idx, err = index.NewSQLStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening index: %w", err)
		}
	} else {
		idx = index.NewMemory()
	}

	decoder := audioio.FFmpegDecoder{TempDir: cfg.TempDir, SampleRate: cfg.FP.SampleRate}

	return &Service{
		cfg:     cfg,
		idx:     idx,
		decoder: decoder,
		match:   matcher.New(idx, cfg.FP),
		log:     cfg.Logger,
	}, nil
}

// NewWithIndex wires a Service around a caller-provided Index and
// Decoder, bypassing New's SQLite/ffmpeg defaults. Used by tests that
// exercise the service against a Memory index and a synthetic decoder.
func NewWithIndex(idx index.Index, decoder audioio.Decoder, cfg fpconfig.Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		cfg:     Config{FP: cfg},
		idx:     idx,
		decoder: decoder,
		match:   matcher.New(idx, cfg),
		log:     log,
	}
}

// AddTrack fingerprints audioPath and commits it to the index. If title
// or artist are empty they default to the file path / "Unknown Artist".
// Returns the assigned track_id, derived from the decoded content
// (internal/trackid.FromSamples) so the same bytes always yield the same
// id and indexing them twice surfaces fperrors.ErrDuplicateTrack rather
// than a silent duplicate.
func (s *Service) AddTrack(ctx context.Context, audioPath, title, artist string) (string, error) {
	s.log.Infof("fingerprinting %s", audioPath)

	samples, channels, sourceRate, err := s.decoder.Decode(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", audioPath, err)
	}

	spec := fingerprint.ToSpectrogram(samples, sourceRate, channels, s.cfg.FP)
	if len(spec) == 0 {
		return "", fmt.Errorf("%s: %w", audioPath, fperrors.ErrEmptyFingerprint)
	}

	peaks := fingerprint.ExtractPeaks(spec, s.cfg.FP)
	landmarks := fingerprint.GenerateLandmarks(peaks, s.cfg.FP)
	s.log.Infof("%s: %d peaks, %d landmarks", audioPath, len(peaks), len(landmarks))

	id := trackid.FromSamples(samples)
	if title == "" {
		title = audioPath
	}
	if artist == "" {
		artist = "Unknown Artist"
	}

	track := index.Track{
		ID:              id,
		Title:           title,
		Artist:          artist,
		SourcePath:      audioPath,
		DurationSeconds: float64(len(samples)) / float64(sourceRateOrConfig(sourceRate, s.cfg.FP.SampleRate)),
		NumPeaks:        len(peaks),
		NumHashes:       len(landmarks),
	}
	if err := s.idx.AddTrack(track, landmarks); err != nil {
		return "", err
	}
	s.log.Infof("indexed track %s (%s by %s)", id, title, artist)
	return id, nil
}

func sourceRateOrConfig(sourceRate, configRate int) int {
	if sourceRate > 0 {
		return sourceRate
	}
	return configRate
}

// IndexDirectory fans fingerprinting out across paths using
// internal/pipeline, feeding this Service's Index and Config.
func (s *Service) IndexDirectory(ctx context.Context, paths []string, concurrency int, progress pipeline.Progress) pipeline.Summary {
	return pipeline.IndexPaths(ctx, s.idx, paths, pipeline.Options{
		Concurrency: concurrency,
		Decoder:     s.decoder,
		Config:      s.cfg.FP,
		Progress:    progress,
		ShowBar:     progress == nil,
	})
}

// Match fingerprints a query clip and returns its top-k ranked matches.
func (s *Service) Match(ctx context.Context, queryPath string, k int, minScore float64) ([]matcher.Result, error) {
	samples, channels, sourceRate, err := s.decoder.Decode(ctx, queryPath)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", queryPath, err)
	}

	spec := fingerprint.ToSpectrogram(samples, sourceRate, channels, s.cfg.FP)
	if len(spec) == 0 {
		return nil, nil
	}

	peaks := fingerprint.ExtractPeaks(spec, s.cfg.FP)
	landmarks := fingerprint.GenerateLandmarks(peaks, s.cfg.FP)
	s.log.Infof("query %s: %d peaks, %d landmarks", queryPath, len(peaks), len(landmarks))

	return s.match.Match(ctx, landmarks, k, minScore)
}

// MatchLandmarks matches pre-computed landmarks directly, the path
// cmd/fpserver's /api/match/hashes uses when the front end (cmd/fpwasm)
// already ran in the browser and only hands the engine hashes.
func (s *Service) MatchLandmarks(ctx context.Context, landmarks []fingerprint.Landmark, k int, minScore float64) ([]matcher.Result, error) {
	return s.match.Match(ctx, landmarks, k, minScore)
}

// GetTrack, ListTracks, Forget and Stats delegate to the Index.
func (s *Service) GetTrack(trackID string) (index.Track, error)  { return s.idx.GetTrack(trackID) }
func (s *Service) ListTracks() ([]index.Track, error)             { return s.idx.ListTracks() }
func (s *Service) Forget(trackID string) (bool, error)            { return s.idx.Forget(trackID) }
func (s *Service) Stats() (index.Stats, error)                    { return s.idx.Stats() }

// Close releases the underlying index's resources.
func (s *Service) Close() error { return s.idx.Close() }
