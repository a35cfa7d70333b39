// Package memory provides an in-memory guestbook store for development and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory store is closed")

// EntryStore keeps entries in a map keyed by email.
//
// The map has no native upsert, so the conditional insert-or-increment runs
// under the write lock; that lock is what keeps one row per email and no lost
// updates when the same email is recorded concurrently.
type EntryStore struct {
	mu      sync.RWMutex
	clock   guestbook.Clock
	entries map[string]*guestbook.Entry
	nextID  int64
	closed  bool
}

// NewEntryStore constructs an EntryStore stamping visits with clock.
func NewEntryStore(clock guestbook.Clock) *EntryStore {
	return &EntryStore{
		clock:   clock,
		entries: make(map[string]*guestbook.Entry),
	}
}

// Ping reports whether the store is still open.
func (s *EntryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// RecordVisit inserts or increments the entry for email.
func (s *EntryStore) RecordVisit(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(email)
}

// ListEntries returns a copy of every entry ordered by timestamp descending.
func (s *EntryStore) ListEntries(_ context.Context) ([]guestbook.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

// RecordVisitAndList records the visit and reads back under one lock hold.
func (s *EntryStore) RecordVisitAndList(_ context.Context, email string) ([]guestbook.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recordLocked(email); err != nil {
		return nil, err
	}
	return s.listLocked()
}

// Close marks the store closed.
func (s *EntryStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *EntryStore) recordLocked(email string) error {
	if s.closed {
		return ErrClosed
	}
	now := s.clock.Now()
	if entry, ok := s.entries[email]; ok {
		entry.Visits++
		entry.Timestamp = now
		return nil
	}
	s.nextID++
	s.entries[email] = &guestbook.Entry{
		ID:        s.nextID,
		Email:     email,
		Visits:    1,
		Timestamp: now,
	}
	return nil
}

func (s *EntryStore) listLocked() ([]guestbook.Entry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]guestbook.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	// Same ordering as the SQL backends: timestamp DESC, id DESC.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
