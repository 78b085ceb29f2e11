package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
	"github.com/himanishpuri/fpengine/internal/fperrors"
	"github.com/himanishpuri/fpengine/internal/index"
	"github.com/himanishpuri/fpengine/internal/matcher"
	"github.com/himanishpuri/fpengine/internal/service"
	"github.com/himanishpuri/fpengine/internal/ytsource"
	"github.com/himanishpuri/fpengine/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies, generalized
// from the teacher's Server{service acousticdna.Service, ...} to wrap
// internal/service.Service directly rather than an interface, since this
// repo only ever has the one implementation.
type Server struct {
	svc    *service.Service
	config *ServerConfig
	log    *logger.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance.
func NewServer(svc *service.Service, config *ServerConfig) *Server {
	return &Server{
		svc:    svc,
		config: config,
		log:    logger.GetLogger(),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "fpengine API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":          "GET /health",
			"metrics":         "GET /api/health/metrics",
			"tracks":          "GET /api/tracks",
			"addTrackFile":    "POST /api/tracks",
			"addTrackYouTube": "POST /api/tracks/youtube",
			"getTrack":        "GET /api/tracks/{id}",
			"deleteTrack":     "DELETE /api/tracks/{id}",
			"matchFile":       "POST /api/match",
			"matchHashes":     "POST /api/match/hashes",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats()
	if err != nil {
		s.log.Errorf("failed to get stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:          "healthy",
		TrackCount:      stats.NumTracks,
		NumPostings:     stats.NumPostings,
		NumUniqueHashes: stats.NumUniqueHashes,
		SampleRate:      s.config.SampleRate,
	})
}

// handleTracks dispatches GET (list) and POST (add from uploaded file) on
// /api/tracks, the teacher's per-method-switch-in-one-handler shape.
func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTracks(w, r)
	case http.MethodPost:
		s.handleAddTrackFile(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleTrack dispatches GET/DELETE on /api/tracks/{id}.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/tracks/")
	if id == "" || id == "youtube" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetTrack(w, r, id)
	case http.MethodDelete:
		s.handleDeleteTrack(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.svc.ListTracks()
	if err != nil {
		s.log.Errorf("failed to list tracks: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve tracks")
		return
	}

	dtos := make([]TrackDTO, len(tracks))
	for i, tr := range tracks {
		dtos[i] = trackToDTO(tr)
	}
	s.respondJSON(w, http.StatusOK, ListTracksResponse{Tracks: dtos, Count: len(dtos)})
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request, id string) {
	tr, err := s.svc.GetTrack(id)
	if err != nil {
		s.log.Warnf("track not found: %s", id)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("track %s not found", id))
		return
	}
	s.respondJSON(w, http.StatusOK, trackToDTO(tr))
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request, id string) {
	ok, err := s.svc.Forget(id)
	if err != nil {
		s.log.Errorf("failed to delete track %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "failed to delete track")
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("track %s not found", id))
		return
	}

	s.log.Infof("deleted track %s", id)
	s.respondJSON(w, http.StatusOK, DeleteTrackResponse{Message: "track deleted", ID: id})
}

// handleAddTrackFile handles POST /api/tracks (multipart file upload).
func (s *Server) handleAddTrackFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(100 << 20); err != nil {
		s.log.Errorf("failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	title := r.FormValue("title")
	artist := r.FormValue("artist")

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing audio file field")
		return
	}
	defer file.Close()

	tmpPath := filepath.Join(s.config.TempDir, fmt.Sprintf("upload-%d-%s", time.Now().UnixNano(), header.Filename))
	out, err := os.Create(tmpPath)
	if err != nil {
		s.log.Errorf("failed to stage upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("failed to write upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to write upload")
		return
	}
	out.Close()
	defer os.Remove(tmpPath)

	id, err := s.svc.AddTrack(ctx, tmpPath, title, artist)
	if err != nil {
		s.respondTrackAddError(w, err)
		return
	}

	tr, _ := s.svc.GetTrack(id)
	s.respondJSON(w, http.StatusCreated, AddTrackResponse{
		Message: "track added", ID: id, Title: tr.Title, Artist: tr.Artist,
	})
}

// handleAddTrackYouTube handles POST /api/tracks/youtube.
func (s *Server) handleAddTrackYouTube(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AddTrackYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	track, err := ytsource.Fetch(ctx, req.YouTubeURL, s.config.TempDir)
	if err != nil {
		s.log.Errorf("youtube fetch failed: %v", err)
		s.respondError(w, http.StatusBadGateway, "failed to fetch YouTube audio")
		return
	}
	defer os.Remove(track.AudioPath)

	title, artist := req.Title, req.Artist
	if title == "" {
		title = track.Title
	}
	if artist == "" {
		artist = track.Artist
	}

	id, err := s.svc.AddTrack(ctx, track.AudioPath, title, artist)
	if err != nil {
		s.respondTrackAddError(w, err)
		return
	}

	tr, _ := s.svc.GetTrack(id)
	s.respondJSON(w, http.StatusCreated, AddTrackResponse{
		Message: "track added", ID: id, Title: tr.Title, Artist: tr.Artist,
	})
}

func (s *Server) respondTrackAddError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fperrors.ErrDuplicateTrack):
		s.respondError(w, http.StatusConflict, "track already indexed")
	case errors.Is(err, fperrors.ErrEmptyFingerprint):
		s.respondError(w, http.StatusUnprocessableEntity, "audio too short or silent to fingerprint")
	case errors.Is(err, fperrors.ErrDecodeFailure):
		s.respondError(w, http.StatusUnprocessableEntity, "could not decode audio file")
	default:
		s.log.Errorf("failed to add track: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to add track")
	}
}

// handleMatch handles POST /api/match (multipart query clip upload).
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing audio file field")
		return
	}
	defer file.Close()

	k, minScore := matchParams(r)

	tmpPath := filepath.Join(s.config.TempDir, fmt.Sprintf("query-%d-%s", time.Now().UnixNano(), header.Filename))
	out, err := os.Create(tmpPath)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to stage query")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.respondError(w, http.StatusInternalServerError, "failed to write query")
		return
	}
	out.Close()
	defer os.Remove(tmpPath)

	results, err := s.svc.Match(r.Context(), tmpPath, k, minScore)
	if err != nil {
		s.log.Errorf("match failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "match failed")
		return
	}

	s.respondMatches(w, results)
}

// handleMatchHashesRoute handles POST /api/match/hashes: a WASM front end
// already computed landmarks client-side and just wants them matched.
func (s *Server) handleMatchHashesRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req MatchHashesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	k, minScore := matchParams(r)

	landmarks := make([]fingerprint.Landmark, 0, len(req.Hashes))
	for hash, anchor := range req.Hashes {
		landmarks = append(landmarks, fingerprint.Landmark{
			Hash:       fingerprint.LandmarkHash(hash),
			AnchorTime: int(anchor),
		})
	}

	results, err := s.svc.MatchLandmarks(r.Context(), landmarks, k, minScore)
	if err != nil {
		s.log.Errorf("hash match failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "match failed")
		return
	}

	s.respondMatches(w, results)
}

func (s *Server) respondMatches(w http.ResponseWriter, results []matcher.Result) {
	dtos := make([]MatchResultDTO, len(results))
	for i, r := range results {
		dto := MatchResultDTO{
			TrackID:      r.TrackID,
			Score:        r.Score,
			OffsetFrames: r.OffsetFrames,
			Confidence:   r.Confidence(),
		}
		if tr, err := s.svc.GetTrack(r.TrackID); err == nil {
			dto.Title, dto.Artist = tr.Title, tr.Artist
		}
		dtos[i] = dto
	}
	s.respondJSON(w, http.StatusOK, MatchHashesResponse{Matches: dtos, Count: len(dtos)})
}

func matchParams(r *http.Request) (k int, minScore float64) {
	k = 5
	minScore = 0
	if v := r.URL.Query().Get("k"); v != "" {
		fmt.Sscanf(v, "%d", &k)
	}
	if v := r.URL.Query().Get("min_score"); v != "" {
		fmt.Sscanf(v, "%f", &minScore)
	}
	return k, minScore
}

func trackToDTO(tr index.Track) TrackDTO {
	return TrackDTO{
		ID:              tr.ID,
		Title:           tr.Title,
		Artist:          tr.Artist,
		DurationSeconds: tr.DurationSeconds,
		NumHashes:       tr.NumHashes,
	}
}
