// Package store persists availability entries. Both implementations enforce
// the one-entry-per-donor invariant and return sentinel errors.
package store

import (
	"context"
	"sort"
	"sync"

	donormodels "lifelink/internal/donor/models"
	"lifelink/internal/donorlist/models"
	"lifelink/pkg/platform/sentinel"
)

type InMemoryListStore struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry // keyed by entry id
}

func NewMemory() *InMemoryListStore {
	return &InMemoryListStore{entries: make(map[string]*models.Entry)}
}

func (s *InMemoryListStore) Create(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.DonorID == entry.DonorID {
			return sentinel.ErrDuplicate
		}
	}
	c := *entry
	s.entries[entry.ID] = &c
	return nil
}

func (s *InMemoryListStore) GetByID(_ context.Context, id string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *entry
	return &c, nil
}

func (s *InMemoryListStore) GetByDonorID(_ context.Context, donorID string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.DonorID == donorID {
			c := *e
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// DeleteByDonorID removes a donor's entry if one exists. Deleting an absent
// entry is not an error; the eligibility transaction calls this
// unconditionally when a donor turns ineligible.
func (s *InMemoryListStore) DeleteByDonorID(_ context.Context, donorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.DonorID == donorID {
			delete(s.entries, id)
			return nil
		}
	}
	return nil
}

// Delete removes an entry by id and returns it so callers can mirror the
// donor record.
func (s *InMemoryListStore) Delete(_ context.Context, id string) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.entries, id)
	return entry, nil
}

func (s *InMemoryListStore) SetAvailability(_ context.Context, id string, isAvailable bool) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	entry.IsAvailable = isAvailable
	c := *entry
	return &c, nil
}

func (s *InMemoryListStore) ListAvailable(_ context.Context) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entry
	for _, e := range s.entries {
		if e.IsAvailable {
			c := *e
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryListStore) FindAvailableByBloodGroup(_ context.Context, group donormodels.BloodGroup) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entry
	for _, e := range s.entries {
		if e.IsAvailable && e.BloodGroup == group {
			c := *e
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(entries []*models.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AddedAt.After(entries[j].AddedAt)
	})
}
