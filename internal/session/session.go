// Package session binds opaque session identifiers to uploaded and processed sales data.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/pharmainsight/internal/domain"
	"github.com/dvloznov/pharmainsight/internal/ingest"
)

var (
	// ErrNotFound is returned for unknown session identifiers.
	ErrNotFound = errors.New("session not found")
	// ErrNotProcessed is returned when a session has no processed table yet.
	ErrNotProcessed = errors.New("data not processed yet")
)

// Session is one upload and, once processed, its transaction table.
// A processed session is never modified again.
type Session struct {
	ID        string
	CreatedAt time.Time
	Filename  string

	Raw      *domain.RawTable
	Source   []byte
	Detected ingest.ColumnMapping

	Mapping     ingest.ColumnMapping
	Table       *domain.Table
	ProcessedAt *time.Time
}

// Data returns the processed table.
func (s *Session) Data() (*domain.Table, error) {
	if s.Table == nil {
		return nil, ErrNotProcessed
	}
	return s.Table, nil
}

// DateRange returns the span of the processed table.
func (s *Session) DateRange() (domain.DateRange, error) {
	t, err := s.Data()
	if err != nil {
		return domain.DateRange{}, err
	}
	return t.Range(), nil
}

// Store keeps sessions by ID. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Put inserts or replaces a session.
	Put(ctx context.Context, s *Session) error

	// Exists reports whether a session is stored.
	Exists(ctx context.Context, id string) bool

	// Len returns the number of stored sessions.
	Len() int
}
