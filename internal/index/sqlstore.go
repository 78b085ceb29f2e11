//go:build !js && !wasm

package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
)

// sqlTrack and sqlPosting are the GORM models for the persisted-state
// layout spec.md §6 names, directly descended from the teacher's
// storage.Song/storage.Fingerprint structs (storage/sqlite.go) with
// song/fingerprint vocabulary renamed to track/posting.
type sqlTrack struct {
	ID              string `gorm:"primaryKey;type:varchar(64)"`
	Title           string `gorm:"index:idx_track_meta,priority:1"`
	Artist          string `gorm:"index:idx_track_meta,priority:2"`
	SourcePath      string
	DurationSeconds float64
	NumPeaks        int
	NumHashes       int
	CreatedAt       time.Time
}

func (sqlTrack) TableName() string { return "tracks" }

type sqlPosting struct {
	ID         uint               `gorm:"primaryKey;autoIncrement"`
	Hash       uint32             `gorm:"index:idx_hash"`
	TrackID    string             `gorm:"type:varchar(64);index:idx_track_id"`
	AnchorTime uint32
}

func (sqlPosting) TableName() string { return "postings" }

// SQLStore is the persisted Index backend: same glebarez/sqlite +
// gorm.io/gorm stack the teacher uses in storage/sqlite.go, same batched
// CreateInBatches insert path, same cascading-delete transaction.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore opens (or creates) a sqlite database at dbPath and migrates
// the tracks/postings schema.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&sqlTrack{}, &sqlPosting{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) AddTrack(track Track, landmarks []fingerprint.Landmark) error {
	if s == nil || s.db == nil {
		return errClientNil
	}

	var existing sqlTrack
	err := s.db.Where("id = ?", track.ID).First(&existing).Error
	if err == nil {
		return duplicateTrackError(track.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return classifyStoreError("checking existing track", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		row := sqlTrack{
			ID:              track.ID,
			Title:           track.Title,
			Artist:          track.Artist,
			SourcePath:      track.SourcePath,
			DurationSeconds: track.DurationSeconds,
			NumPeaks:        track.NumPeaks,
			NumHashes:       track.NumHashes,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateTrackError(track.ID)
			}
			return classifyStoreError("creating track", err)
		}

		entries := make([]sqlPosting, 0, 1000)
		flush := func() error {
			if len(entries) == 0 {
				return nil
			}
			if err := tx.CreateInBatches(entries, 500).Error; err != nil {
				return classifyStoreError("batch insert postings", err)
			}
			entries = entries[:0]
			return nil
		}
		for _, lm := range landmarks {
			entries = append(entries, sqlPosting{
				Hash:       uint32(lm.Hash),
				TrackID:    track.ID,
				AnchorTime: uint32(lm.AnchorTime),
			})
			if len(entries) >= 1000 {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})
}

func (s *SQLStore) Forget(trackID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errClientNil
	}

	var existing sqlTrack
	err := s.db.Where("id = ?", trackID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, classifyStoreError("checking track before forget", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", trackID).Delete(&sqlPosting{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", trackID).Delete(&sqlTrack{}).Error
	})
	if err != nil {
		return false, classifyStoreError("forgetting track", err)
	}
	return true, nil
}

func (s *SQLStore) Lookup(hash fingerprint.LandmarkHash) ([]Posting, error) {
	if s == nil || s.db == nil {
		return nil, errClientNil
	}
	var rows []sqlPosting
	if err := s.db.Where("hash = ?", uint32(hash)).Find(&rows).Error; err != nil {
		return nil, classifyStoreError("querying postings", err)
	}
	out := make([]Posting, len(rows))
	for i, r := range rows {
		out[i] = Posting{TrackID: r.TrackID, AnchorTime: r.AnchorTime}
	}
	return out, nil
}

func (s *SQLStore) GetTrack(trackID string) (Track, error) {
	if s == nil || s.db == nil {
		return Track{}, errClientNil
	}
	var row sqlTrack
	if err := s.db.Where("id = ?", trackID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Track{}, unknownTrackError(trackID)
		}
		return Track{}, classifyStoreError("querying track", err)
	}
	return Track{
		ID:              row.ID,
		Title:           row.Title,
		Artist:          row.Artist,
		SourcePath:      row.SourcePath,
		DurationSeconds: row.DurationSeconds,
		NumPeaks:        row.NumPeaks,
		NumHashes:       row.NumHashes,
	}, nil
}

func (s *SQLStore) ListTracks() ([]Track, error) {
	if s == nil || s.db == nil {
		return nil, errClientNil
	}
	var rows []sqlTrack
	if err := s.db.Order("created_at").Find(&rows).Error; err != nil {
		return nil, classifyStoreError("listing tracks", err)
	}
	out := make([]Track, len(rows))
	for i, r := range rows {
		out[i] = Track{
			ID:              r.ID,
			Title:           r.Title,
			Artist:          r.Artist,
			SourcePath:      r.SourcePath,
			DurationSeconds: r.DurationSeconds,
			NumPeaks:        r.NumPeaks,
			NumHashes:       r.NumHashes,
		}
	}
	return out, nil
}

func (s *SQLStore) Stats() (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, errClientNil
	}
	var numTracks, numPostings, numUniqueHashes int64
	if err := s.db.Model(&sqlTrack{}).Count(&numTracks).Error; err != nil {
		return Stats{}, classifyStoreError("counting tracks", err)
	}
	if err := s.db.Model(&sqlPosting{}).Count(&numPostings).Error; err != nil {
		return Stats{}, classifyStoreError("counting postings", err)
	}
	if err := s.db.Model(&sqlPosting{}).Distinct("hash").Count(&numUniqueHashes).Error; err != nil {
		return Stats{}, classifyStoreError("counting unique hashes", err)
	}
	return Stats{
		NumTracks:       int(numTracks),
		NumPostings:     int(numPostings),
		NumUniqueHashes: int(numUniqueHashes),
	}, nil
}

func (s *SQLStore) Kind() string { return "sqlite" }

func (s *SQLStore) Reset() error {
	if s == nil || s.db == nil {
		return errClientNil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM postings").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM tracks").Error
	})
	if err != nil {
		return classifyStoreError("resetting index", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
