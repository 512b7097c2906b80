// Package store provides donor persistence: an in-memory implementation for
// tests and small deployments, and a PostgreSQL implementation for
// production. Both speak sentinel errors; services translate.
package store

import (
	"context"
	"strings"
	"sync"

	"lifelink/internal/donor/models"
	"lifelink/pkg/platform/sentinel"
)

type InMemoryDonorStore struct {
	mu     sync.RWMutex
	donors map[string]*models.Donor
}

func NewMemory() *InMemoryDonorStore {
	return &InMemoryDonorStore{donors: make(map[string]*models.Donor)}
}

func (s *InMemoryDonorStore) Create(_ context.Context, donor *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.donors {
		if strings.EqualFold(existing.Email, donor.Email) || existing.MobileNumber == donor.MobileNumber {
			return sentinel.ErrDuplicate
		}
	}
	s.donors[donor.ID] = clone(donor)
	return nil
}

func (s *InMemoryDonorStore) GetByID(_ context.Context, id string) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	donor, ok := s.donors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(donor), nil
}

func (s *InMemoryDonorStore) GetByEmail(_ context.Context, email string) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, donor := range s.donors {
		if strings.EqualFold(donor.Email, email) {
			return clone(donor), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryDonorStore) Update(_ context.Context, donor *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.donors[donor.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.donors[donor.ID] = clone(donor)
	return nil
}

// SetInDonorList mirrors the availability flag onto the donor record. This is
// the second write path for the mirrored pair; it deliberately touches only
// the one field.
func (s *InMemoryDonorStore) SetInDonorList(_ context.Context, donorID string, inList bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	donor, ok := s.donors[donorID]
	if !ok {
		return sentinel.ErrNotFound
	}
	donor.IsInDonorList = inList
	return nil
}

func clone(d *models.Donor) *models.Donor {
	c := *d
	if d.LastDonation != nil {
		t := *d.LastDonation
		c.LastDonation = &t
	}
	if d.DonationHistory != nil {
		c.DonationHistory = append([]models.DonationRecord(nil), d.DonationHistory...)
	}
	return &c
}
