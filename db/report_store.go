package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"gradestats-server-go/models"
)

// ErrReportNotFound is returned for unknown or expired report ids
var ErrReportNotFound = errors.New("report not found or expired")

// ArtifactKind selects one of the stored outputs of a run
type ArtifactKind string

const (
	KindWorkbook ArtifactKind = "xlsx"
	KindDocument ArtifactKind = "pdf"
)

// ParseArtifactKind validates a kind taken from a URL
func ParseArtifactKind(s string) (ArtifactKind, bool) {
	switch ArtifactKind(s) {
	case KindWorkbook, KindDocument:
		return ArtifactKind(s), true
	}
	return "", false
}

// ReportStore keeps the artifacts of one run long enough for the user to
// download them from the dashboard. Stored reports expire and are never
// shared between runs.
type ReportStore interface {
	Save(ctx context.Context, a *models.Artifacts) error
	Load(ctx context.Context, id string, kind ArtifactKind) ([]byte, string, error) // bytes and original file name
	Ping(ctx context.Context) error
}

type memoryEntry struct {
	artifacts *models.Artifacts
	expires   time.Time
}

// MemoryStore is a ReportStore for a single process, used when Redis is disabled
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore whose entries live for ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

// Save stores a run's artifacts and drops expired ones
func (s *MemoryStore) Save(_ context.Context, a *models.Artifacts) error {
	if a == nil || a.ID == "" {
		return errors.New("artifacts must have an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
	s.entries[a.ID] = memoryEntry{artifacts: a, expires: now.Add(s.ttl)}
	return nil
}

// Load returns one artifact of a stored run
func (s *MemoryStore) Load(_ context.Context, id string, kind ArtifactKind) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || s.now().After(e.expires) {
		delete(s.entries, id)
		return nil, "", ErrReportNotFound
	}
	switch kind {
	case KindWorkbook:
		return e.artifacts.Workbook, e.artifacts.FileName, nil
	case KindDocument:
		return e.artifacts.Document, e.artifacts.FileName, nil
	}
	return nil, "", ErrReportNotFound
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns how many runs are currently held, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
