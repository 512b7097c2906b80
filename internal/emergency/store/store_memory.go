// Package store persists emergency requests. AppendResponse is the
// concurrency-critical operation: both implementations guarantee that the
// pending check, the duplicate-response check, the append and the status flip
// happen as one atomic step.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifelink/internal/emergency/models"
	"lifelink/pkg/platform/sentinel"
)

type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]*models.Request
}

func NewMemory() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[string]*models.Request)}
}

func (s *InMemoryRequestStore) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrDuplicate
	}
	s.requests[req.ID] = clone(req)
	return nil
}

func (s *InMemoryRequestStore) GetByID(_ context.Context, id string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(req), nil
}

func (s *InMemoryRequestStore) SetNotified(_ context.Context, id string, donorIDs []string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	req.NotifiedDonors = append([]string(nil), donorIDs...)
	req.UpdatedAt = updatedAt
	return nil
}

// AppendResponse records a donor's decision. The mutex is held across the
// guards and the append, so concurrent responders serialize: exactly one of
// two racing calls for the same donor succeeds, and the status flips to
// accepted in the same step that brings accepted decisions up to Units.
func (s *InMemoryRequestStore) AppendResponse(_ context.Context, id string, resp models.Response) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status != models.StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	if req.HasResponded(resp.DonorID) {
		return nil, sentinel.ErrAlreadyResponded
	}

	req.AcceptedBy = append(req.AcceptedBy, resp)
	if req.AcceptedCount() >= req.Units {
		req.Status = models.StatusAccepted
	}
	req.UpdatedAt = resp.RespondedAt
	return clone(req), nil
}

// ListPendingNotified returns pending requests whose fan-out reached the
// donor, newest first.
func (s *InMemoryRequestStore) ListPendingNotified(_ context.Context, donorID string) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Request
	for _, req := range s.requests {
		if req.Status != models.StatusPending {
			continue
		}
		for _, id := range req.NotifiedDonors {
			if id == donorID {
				out = append(out, clone(req))
				break
			}
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryRequestStore) ListAll(_ context.Context) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Request, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, clone(req))
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(reqs []*models.Request) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

func clone(req *models.Request) *models.Request {
	c := *req
	c.AcceptedBy = append([]models.Response(nil), req.AcceptedBy...)
	c.NotifiedDonors = append([]string(nil), req.NotifiedDonors...)
	return &c
}
