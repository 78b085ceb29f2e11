package main

import "fmt"

// Hash limit constants for validation, carried over from the teacher's
// cmd/server/types.go with the same soft/hard/warning tiers. The absolute
// bit widths change (10/10/10 below, not the teacher's 9/9/14) but the
// tiers themselves are about request size, not hash layout.
const (
	MaxHashesSoftLimit   = 10000
	MaxHashesHardLimit   = 50000
	HashWarningThreshold = 5000
)

// MatchHashesRequest is the request body for POST /api/match/hashes: a map
// from packed LandmarkHash to anchor time in frames, the same shape a
// browser-side WASM fingerprinter would send.
type MatchHashesRequest struct {
	Hashes map[uint32]uint32 `json:"hashes"`
}

func (r *MatchHashesRequest) Validate() error {
	if len(r.Hashes) == 0 {
		return fmt.Errorf("hashes cannot be empty")
	}
	if len(r.Hashes) > MaxHashesHardLimit {
		return fmt.Errorf("too many hashes: %d (maximum: %d)", len(r.Hashes), MaxHashesHardLimit)
	}
	for hash := range r.Hashes {
		if !isValidHash(hash) {
			return fmt.Errorf("invalid hash format: %d", hash)
		}
	}
	return nil
}

// isValidHash performs lightweight validation of hash structure.
// Hash format: [unused (2 bits) | f1 (10 bits) | f2 (10 bits) | deltaTime (10 bits)].
// f1 and f2 may be equal (two peaks in the same bin at different times);
// the unused top bits must be zero and deltaTime must be positive, since
// the hash generator never pairs peaks with Δt <= 0.
func isValidHash(hash uint32) bool {
	deltaTime := hash & 0x3FF
	if hash>>30 != 0 {
		return false
	}
	return deltaTime > 0
}

// MatchHashesResponse is the response for hash-based matching.
type MatchHashesResponse struct {
	Matches []MatchResultDTO `json:"matches"`
	Count   int              `json:"count"`
}

// MatchResultDTO represents one ranked match result in API responses.
type MatchResultDTO struct {
	TrackID      string  `json:"track_id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Score        float64 `json:"score"`
	OffsetFrames int     `json:"offset_frames"`
	Confidence   float64 `json:"confidence"`
}

// AddTrackYouTubeRequest is the request body for POST /api/tracks/youtube.
type AddTrackYouTubeRequest struct {
	YouTubeURL string `json:"youtube_url"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
}

func (r *AddTrackYouTubeRequest) Validate() error {
	if r.YouTubeURL == "" {
		return fmt.Errorf("youtube_url is required")
	}
	return nil
}

// AddTrackResponse is the response for successful track addition.
type AddTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
}

// TrackDTO represents a track in API responses.
type TrackDTO struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
	NumHashes       int     `json:"num_hashes"`
}

// ListTracksResponse is the response for GET /api/tracks.
type ListTracksResponse struct {
	Tracks []TrackDTO `json:"tracks"`
	Count  int        `json:"count"`
}

// DeleteTrackResponse is the response for DELETE /api/tracks/{id}.
type DeleteTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and index metrics.
type MetricsResponse struct {
	Status          string `json:"status"`
	IndexBackend    string `json:"index_backend"`
	TrackCount      int    `json:"track_count"`
	NumPostings     int    `json:"num_postings"`
	NumUniqueHashes int    `json:"num_unique_hashes"`
	SampleRate      int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
