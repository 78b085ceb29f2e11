// Package ytsource is an optional track source: it resolves a YouTube URL
// to a local audio file plus best-effort title/artist metadata, so the CLI
// can index a URL the same way it indexes a local path.
//
// Grounded on the teacher's refrence_scripts/download_yt.go, which shells
// out to the yt-dlp binary and parses its -J JSON. This repo uses the Go
// binding (github.com/lrstanley/go-ytdlp) instead of a raw exec.Command,
// a direct upgrade of the same concern the teacher's
// pkg/acousticdna/audio/processor.go also shells out for.
package ytsource

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/fpengine/pkg/utils"
)

// Track is what a resolved YouTube URL yields: a downloaded audio file
// ready for the audio front end, plus metadata to default a track's Title
// and Artist from when the caller doesn't supply them.
type Track struct {
	AudioPath string
	VideoID   string
	Title     string
	Artist    string
}

// Fetch downloads the best available audio stream for url into destDir and
// extracts title/uploader metadata, mirroring the teacher's
// fetchSongFromYT's ID/title/artist fallback chain (artist, then channel,
// then uploader, then "Unknown Artist").
func Fetch(ctx context.Context, url, destDir string) (Track, error) {
	if err := utils.MakeDir(destDir); err != nil {
		return Track{}, fmt.Errorf("creating download dir: %w", err)
	}

	outputTemplate := filepath.Join(destDir, "%(id)s.%(ext)s")
	dl := ytdlp.New().
		ExtractAudio().
		AudioFormat("wav").
		NoPlaylist().
		Output(outputTemplate).
		DumpJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return Track{}, fmt.Errorf("yt-dlp run failed: %w", err)
	}

	info, err := parseInfo(result.Stdout)
	if err != nil {
		return Track{}, err
	}
	if strings.TrimSpace(info.ID) == "" {
		return Track{}, fmt.Errorf("yt-dlp output missing video id")
	}

	return Track{
		AudioPath: filepath.Join(destDir, info.ID+".wav"),
		VideoID:   info.ID,
		Title:     info.Title,
		Artist:    pickArtist(info),
	}, nil
}

type videoInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Uploader string `json:"uploader"`
	Channel  string `json:"channel"`
}

// parseInfo decodes yt-dlp's --dump-json output. yt-dlp prints one JSON
// object per line; this repo only ever resolves a single video (playlists
// are rejected by NoPlaylist), so only the first line matters.
func parseInfo(stdout string) (videoInfo, error) {
	line := stdout
	if idx := strings.IndexByte(stdout, '\n'); idx >= 0 {
		line = stdout[:idx]
	}
	var info videoInfo
	if err := json.Unmarshal([]byte(line), &info); err != nil {
		return videoInfo{}, fmt.Errorf("parsing yt-dlp JSON: %w", err)
	}
	return info, nil
}

func pickArtist(info videoInfo) string {
	switch {
	case strings.TrimSpace(info.Artist) != "":
		return info.Artist
	case strings.TrimSpace(info.Channel) != "":
		return info.Channel
	case strings.TrimSpace(info.Uploader) != "":
		return info.Uploader
	default:
		return "Unknown Artist"
	}
}
