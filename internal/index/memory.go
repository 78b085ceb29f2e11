package index

import (
	"sync"

	"github.com/himanishpuri/fpengine/internal/fingerprint"
)

// Memory is an in-memory Index backend: a hash map from LandmarkHash to a
// dynamic array of postings, plus a side table of tracks, guarded by a
// sync.RWMutex. Grounded on the Python original's MemoryStore
// (fingerprint/storage/memory_store.py), which is exactly this shape —
// a dict-backed hash_table and song_metadata — translated into Go's
// reader/writer lock idiom; there's no ORM here serializing access the
// way GORM does for SQLStore, so the lock is explicit.
type Memory struct {
	mu       sync.RWMutex
	postings map[fingerprint.LandmarkHash][]Posting
	tracks   map[string]Track
	order    []string // insertion order, for ListTracks snapshot semantics
}

// NewMemory constructs an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{
		postings: make(map[fingerprint.LandmarkHash][]Posting),
		tracks:   make(map[string]Track),
	}
}

func (m *Memory) AddTrack(track Track, landmarks []fingerprint.Landmark) error {
	postings := make(map[fingerprint.LandmarkHash][]Posting, len(landmarks))
	for _, lm := range landmarks {
		postings[lm.Hash] = append(postings[lm.Hash], Posting{
			TrackID:    track.ID,
			AnchorTime: uint32(lm.AnchorTime),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tracks[track.ID]; exists {
		return duplicateTrackError(track.ID)
	}

	for hash, ps := range postings {
		m.postings[hash] = append(m.postings[hash], ps...)
	}
	m.tracks[track.ID] = track
	m.order = append(m.order, track.ID)
	return nil
}

func (m *Memory) Forget(trackID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tracks[trackID]; !exists {
		return false, nil
	}

	for hash, ps := range m.postings {
		filtered := ps[:0]
		for _, p := range ps {
			if p.TrackID != trackID {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(m.postings, hash)
		} else {
			m.postings[hash] = filtered
		}
	}
	delete(m.tracks, trackID)
	for i, id := range m.order {
		if id == trackID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Memory) Lookup(hash fingerprint.LandmarkHash) ([]Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ps := m.postings[hash]
	out := make([]Posting, len(ps))
	copy(out, ps)
	return out, nil
}

func (m *Memory) GetTrack(trackID string) (Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tracks[trackID]
	if !ok {
		return Track{}, unknownTrackError(trackID)
	}
	return t, nil
}

func (m *Memory) ListTracks() ([]Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Track, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tracks[id])
	}
	return out, nil
}

func (m *Memory) Stats() (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, ps := range m.postings {
		n += len(ps)
	}
	return Stats{
		NumTracks:       len(m.tracks),
		NumPostings:     n,
		NumUniqueHashes: len(m.postings),
	}, nil
}

func (m *Memory) Kind() string { return "memory" }

func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.postings = make(map[fingerprint.LandmarkHash][]Posting)
	m.tracks = make(map[string]Track)
	m.order = nil
	return nil
}

func (m *Memory) Close() error { return nil }
