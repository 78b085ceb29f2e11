// Command fpcli is the per-track CLI: add/match/list/forget work on one
// file at a time through a hand-rolled flag.FlagSet subcommand dispatch,
// the same shape as the teacher's cmd/cli/main.go. The batch "index"
// subcommand is new (spec.md §4.F has no teacher precedent) and uses
// cobra instead, since its shape — a directory argument plus
// --concurrency and a progress bar — is a direct match for
// mokele-mbembe-audio-loss-checker's cmd/root.go; cobra is scoped to
// this one subcommand rather than replacing the working flag-based ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/fpengine/internal/service"
	"github.com/himanishpuri/fpengine/internal/ytsource"
	"github.com/himanishpuri/fpengine/pkg/logger"
	"github.com/himanishpuri/fpengine/pkg/utils"
)

var (
	dbPath     string
	tempDir    string
	sampleRate int
)

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func createService() (*service.Service, error) {
	return service.New(
		service.WithDBPath(dbPath),
		service.WithTempDir(tempDir),
		service.WithSampleRate(sampleRate),
	)
}

func main() {
	dbPath = getEnvOrDefault("FPENGINE_DB_PATH", "fpengine.sqlite3")
	tempDir = getEnvOrDefault("FPENGINE_TEMP_DIR", "/tmp/fpengine")
	sampleRate = 11025

	log := logger.GetLogger()
	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		handleAdd()
	case "match":
		handleMatch()
	case "list":
		handleList()
	case "forget":
		handleForget()
	case "index":
		// Hand off to cobra only for this subcommand: strip argv[0:2] so
		// cobra sees its own flags starting at what would be argv[1].
		rootCmd := newIndexCommand()
		rootCmd.SetArgs(os.Args[2:])
		if err := rootCmd.Execute(); err != nil {
			log.Errorf("index failed: %v", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println(`
  ____            _             ___  _   _    _
 / ___| _ __  ___| |_ _ __ __ _/ _ \| \ | |  / \
 \___ \| '_ \/ __| __| '__/ _' | | | |  \| | / _ \
  ___) | |_) \__ \ |_| | | (_| | |_| | |\  |/ ___ \
 |____/| .__/|___/\__|_|  \__, |\___/|_| \_/_/   \_\
       |_|                |___/
       fingerprint-and-match engine CLI`)
}

func handleAdd() {
	log := logger.GetLogger()
	args := os.Args[2:]

	var audioPath string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && audioPath == "" {
			audioPath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "track title")
	artist := addCmd.String("artist", "", "artist name")
	youtubeURL := addCmd.String("youtube-url", "", "YouTube URL to download and add instead of a local file")
	addCmd.Parse(flagArgs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// A bare positional argument that is itself a YouTube URL is treated as
	// --youtube-url, so `fpcli add https://youtu.be/...` works without the flag.
	if *youtubeURL == "" && audioPath != "" && utils.IsYouTubeURL(audioPath) {
		*youtubeURL = audioPath
		audioPath = ""
	}

	if *youtubeURL != "" {
		if audioPath != "" {
			fmt.Println("error: cannot specify both an audio file and --youtube-url")
			os.Exit(1)
		}
		fmt.Println("downloading audio from YouTube...")
		yt, err := ytsource.Fetch(ctx, *youtubeURL, tempDir)
		if err != nil {
			fmt.Printf("failed to fetch YouTube audio: %v\n", err)
			os.Exit(1)
		}
		audioPath = yt.AudioPath
		if *title == "" {
			*title = yt.Title
		}
		if *artist == "" {
			*artist = yt.Artist
		}
		fmt.Printf("downloaded: %s by %s\n", *title, *artist)
	}

	if audioPath == "" {
		fmt.Println("usage: fpcli add <audio_file> --title <title> --artist <artist>")
		fmt.Println("   or: fpcli add --youtube-url <url> [--title <title>] [--artist <artist>]")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		log.Fatalf("service initialization failed: %v", err)
	}
	defer svc.Close()

	id, err := svc.AddTrack(ctx, audioPath, *title, *artist)
	if err != nil {
		fmt.Printf("failed to add track: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nindexed:")
	fmt.Printf("  track_id: %s\n", id)
	fmt.Printf("  title:    %s\n", *title)
	fmt.Printf("  artist:   %s\n", *artist)
}

func handleMatch() {
	log := logger.GetLogger()
	if len(os.Args) < 3 {
		fmt.Println("usage: fpcli match <audio_file> [--k N] [--min-score S]")
		os.Exit(1)
	}
	audioPath := os.Args[2]

	matchCmd := flag.NewFlagSet("match", flag.ExitOnError)
	k := matchCmd.Int("k", 5, "max results to return")
	minScore := matchCmd.Float64("min-score", 0, "prune candidates below this score")
	if len(os.Args) > 3 {
		matchCmd.Parse(os.Args[3:])
	}

	svc, err := createService()
	if err != nil {
		log.Fatalf("service initialization failed: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := svc.Match(ctx, audioPath, *k, *minScore)
	if err != nil {
		fmt.Printf("match failed: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("no matches found")
		return
	}

	fmt.Printf("%d match(es):\n\n", len(results))
	for i, r := range results {
		track, err := svc.GetTrack(r.TrackID)
		title, artist := r.TrackID, ""
		if err == nil {
			title, artist = track.Title, track.Artist
		}
		fmt.Printf("%d. %q by %s\n", i+1, title, artist)
		fmt.Printf("   score=%.3f confidence=%.1f%% offset_frames=%d hits=%d\n",
			r.Score, r.Confidence(), r.OffsetFrames, r.HitCount)
	}
}

func handleList() {
	log := logger.GetLogger()
	svc, err := createService()
	if err != nil {
		log.Fatalf("service initialization failed: %v", err)
	}
	defer svc.Close()

	tracks, err := svc.ListTracks()
	if err != nil {
		fmt.Printf("failed to list tracks: %v\n", err)
		os.Exit(1)
	}
	if len(tracks) == 0 {
		fmt.Println("no tracks indexed")
		return
	}

	fmt.Printf("%d track(s):\n\n", len(tracks))
	for _, tr := range tracks {
		fmt.Printf("- %s: %q by %s (%s, %d hashes)\n",
			tr.ID, tr.Title, tr.Artist, humanize.FtoaWithDigits(tr.DurationSeconds, 1)+"s", tr.NumHashes)
	}
}

func handleForget() {
	log := logger.GetLogger()
	if len(os.Args) < 3 {
		fmt.Println("usage: fpcli forget <track_id>")
		os.Exit(1)
	}
	id := os.Args[2]

	svc, err := createService()
	if err != nil {
		log.Fatalf("service initialization failed: %v", err)
	}
	defer svc.Close()

	ok, err := svc.Forget(id)
	if err != nil {
		fmt.Printf("forget failed: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("track %s was not indexed\n", id)
		return
	}
	fmt.Printf("forgot track %s\n", id)
}

func printUsage() {
	fmt.Println("fpengine CLI")
	fmt.Println("\nGlobal env vars: FPENGINE_DB_PATH, FPENGINE_TEMP_DIR")
	fmt.Println("\nUsage:")
	fmt.Println("  fpcli add <audio_file> --title <title> --artist <artist>")
	fmt.Println("  fpcli add --youtube-url <url> [--title <title>] [--artist <artist>]")
	fmt.Println("  fpcli match <audio_file> [--k N] [--min-score S]")
	fmt.Println("  fpcli list")
	fmt.Println("  fpcli forget <track_id>")
	fmt.Println("  fpcli index <directory> [--concurrency N]")
}

func newIndexCommand() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "index <directory>",
		Short: "Batch-index every audio file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			paths, err := collectAudioFiles(dir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("no audio files found")
				return nil
			}

			svc, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
			defer cancel()

			fmt.Printf("indexing %s files from %s with concurrency %d\n",
				humanize.Comma(int64(len(paths))), dir, concurrency)

			summary := svc.IndexDirectory(ctx, paths, concurrency, nil)

			fmt.Printf("\nindexed=%s skipped=%s errors=%s\n",
				humanize.Comma(int64(summary.Indexed)),
				humanize.Comma(int64(summary.Skipped)),
				humanize.Comma(int64(summary.Errors)))
			for _, r := range summary.Results {
				if r.Err != nil {
					fmt.Printf("  error: %s: %v\n", r.Path, r.Err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of files to fingerprint in parallel")
	return cmd
}

var audioExts = map[string]bool{
	".wav": true, ".mp3": true, ".flac": true, ".m4a": true, ".ogg": true,
}

func collectAudioFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if audioExts[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
