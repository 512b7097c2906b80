// Package service exposes the availability list: the queryable roster of
// eligible donors and the toggle that marks one temporarily unavailable.
package service

import (
	"context"
	"errors"
	"log/slog"

	donormodels "lifelink/internal/donor/models"
	"lifelink/internal/donorlist/models"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/audit"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

type ListStore interface {
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	SetAvailability(ctx context.Context, id string, isAvailable bool) (*models.Entry, error)
	Delete(ctx context.Context, id string) (*models.Entry, error)
	ListAvailable(ctx context.Context) ([]*models.Entry, error)
	FindAvailableByBloodGroup(ctx context.Context, group donormodels.BloodGroup) ([]*models.Entry, error)
}

type DonorStore interface {
	SetInDonorList(ctx context.Context, donorID string, inList bool) error
}

type Service struct {
	list   ListStore
	donors DonorStore
	logger *slog.Logger
	audit  *audit.Publisher
}

func New(list ListStore, donors DonorStore, logger *slog.Logger, auditor *audit.Publisher) *Service {
	return &Service{list: list, donors: donors, logger: logger, audit: auditor}
}

// ListAvailable returns every available entry, newest first.
func (s *Service) ListAvailable(ctx context.Context) ([]*models.Entry, error) {
	entries, err := s.list.ListAvailable(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list available donors", err)
	}
	return entries, nil
}

// ListByBloodGroup returns available entries for one blood group.
func (s *Service) ListByBloodGroup(ctx context.Context, group donormodels.BloodGroup) ([]*models.Entry, error) {
	if !group.Valid() {
		return nil, dErrors.WithDetails(dErrors.CodeValidation, "invalid blood group", map[string]string{
			"bloodGroup": "must be one of A+, A-, B+, B-, AB+, AB-, O+, O-",
		})
	}
	entries, err := s.list.FindAvailableByBloodGroup(ctx, group)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list donors by blood group", err)
	}
	return entries, nil
}

// SetAvailability flips an entry's availability and mirrors the new value
// onto the donor record's IsInDonorList flag.
func (s *Service) SetAvailability(ctx context.Context, entryID string, isAvailable bool) (*models.Entry, error) {
	entry, err := s.list.SetAvailability(ctx, entryID, isAvailable)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor list entry not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update availability", err)
	}
	if err := s.donors.SetInDonorList(ctx, entry.DonorID, isAvailable); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "mirror availability onto donor", err)
	}

	s.emit(ctx, audit.EventAvailabilityToggled, entry)
	s.logger.InfoContext(ctx, "availability updated",
		"entry_id", entry.ID, "donor_id", entry.DonorID, "is_available", isAvailable)
	return entry, nil
}

// Remove deletes an entry and clears the donor's IsInDonorList flag.
func (s *Service) Remove(ctx context.Context, entryID string) error {
	entry, err := s.list.Delete(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "donor list entry not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "remove donor list entry", err)
	}
	if err := s.donors.SetInDonorList(ctx, entry.DonorID, false); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "clear donor list flag", err)
	}

	s.emit(ctx, audit.EventDonorListRemoval, entry)
	s.logger.InfoContext(ctx, "donor removed from list",
		"entry_id", entry.ID, "donor_id", entry.DonorID)
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, entry *models.Entry) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		DonorID:   entry.DonorID,
		Action:    string(action),
		Subject:   string(entry.BloodGroup),
		RequestID: requestcontext.RequestID(ctx),
	})
}
