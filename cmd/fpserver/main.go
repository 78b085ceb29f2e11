//go:build !js && !wasm

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/fpengine/internal/service"
)

var (
	port           int
	dbPath         string
	tempDir        string
	sampleRate     int
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("FPENGINE_DB_PATH", "fpengine.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("FPENGINE_TEMP_DIR", "/tmp/fpengine"), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", 11025, "Audio sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	svc, err := service.New(
		service.WithDBPath(dbPath),
		service.WithTempDir(tempDir),
		service.WithSampleRate(sampleRate),
	)
	if err != nil {
		log.Fatalf("failed to create service: %v", err)
	}
	defer svc.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: origins,
	}

	server := NewServer(svc, config)
	if err := server.Start(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
