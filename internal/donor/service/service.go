// Package service implements donor profile operations and the donation-report
// transaction that keeps eligibility and the availability list in sync.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lifelink/internal/donor/eligibility"
	"lifelink/internal/donor/models"
	listmodels "lifelink/internal/donorlist/models"
	"lifelink/internal/platform/metrics"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/audit"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

type DonorStore interface {
	GetByID(ctx context.Context, id string) (*models.Donor, error)
	Update(ctx context.Context, donor *models.Donor) error
}

type ListStore interface {
	GetByDonorID(ctx context.Context, donorID string) (*listmodels.Entry, error)
	Create(ctx context.Context, entry *listmodels.Entry) error
	DeleteByDonorID(ctx context.Context, donorID string) error
}

type Service struct {
	donors  DonorStore
	list    ListStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher

	// locks serializes eligibility updates per donor so the donor record and
	// the availability list cannot diverge under concurrent reports.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(donors DonorStore, list ListStore, logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{
		donors:  donors,
		list:    list,
		logger:  logger,
		metrics: m,
		audit:   auditor,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockDonor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

// RecordDonation sets the donor's last donation to monthsAgo months before
// now, recomputes eligibility, and mirrors the result into both the donor
// record and the availability list. Idempotent: repeating with the same
// monthsAgo yields the same eligible/listed outcome.
func (s *Service) RecordDonation(ctx context.Context, donorID string, monthsAgo int) (*models.Donor, error) {
	if monthsAgo < 0 {
		return nil, dErrors.WithDetails(dErrors.CodeValidation, "invalid months value", map[string]string{
			"months": "must be a non-negative number of months",
		})
	}

	mu := s.lockDonor(donorID)
	mu.Lock()
	defer mu.Unlock()

	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load donor", err)
	}

	if !donor.Location.HasCoordinates() {
		return nil, dErrors.New(dErrors.CodeMissingLocation,
			"location coordinates are required; update your profile with a valid location")
	}

	now := requestcontext.Now(ctx)
	last := now.AddDate(0, -monthsAgo, 0)
	donor.LastDonation = &last

	eligible := eligibility.EvaluateDonor(donor, now)
	s.metrics.IncEligibility(eligible)

	// Both flags mirror one computation; this is the only place the pair is
	// written together.
	donor.IsEligible = eligible
	donor.IsInDonorList = eligible

	if eligible {
		if err := s.ensureListed(ctx, donor); err != nil {
			return nil, err
		}
	} else {
		if err := s.list.DeleteByDonorID(ctx, donor.ID); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "remove donor list entry", err)
		}
	}

	donor.UpdatedAt = now
	if err := s.donors.Update(ctx, donor); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist donor", err)
	}

	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Timestamp: now,
			DonorID:   donor.ID,
			Action:    string(audit.EventEligibilityUpdated),
			Subject:   string(donor.BloodGroup),
			Reason:    "eligible=" + strconv.FormatBool(eligible),
			RequestID: requestcontext.RequestID(ctx),
		})
	}

	s.logger.InfoContext(ctx, "donation recorded",
		"donor_id", donor.ID,
		"months_ago", monthsAgo,
		"eligible", eligible,
	)
	return donor, nil
}

// ensureListed creates an availability entry unless the donor already has
// one. An existing entry keeps its availability and snapshot untouched.
func (s *Service) ensureListed(ctx context.Context, donor *models.Donor) error {
	_, err := s.list.GetByDonorID(ctx, donor.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeInternal, "look up donor list entry", err)
	}

	entry := &listmodels.Entry{
		ID:           uuid.NewString(),
		DonorID:      donor.ID,
		FullName:     donor.FullName,
		BloodGroup:   donor.BloodGroup,
		Location:     donor.Location,
		LastDonation: *donor.LastDonation,
		IsAvailable:  true,
		AddedAt:      requestcontext.Now(ctx),
	}
	if err := s.list.Create(ctx, entry); err != nil && !errors.Is(err, sentinel.ErrDuplicate) {
		return dErrors.Wrap(dErrors.CodeInternal, "create donor list entry", err)
	}
	return nil
}

// Profile returns the donor's own record.
func (s *Service) Profile(ctx context.Context, donorID string) (*models.Donor, error) {
	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load donor", err)
	}
	return donor, nil
}

// UpdateProfileInput carries optional profile changes; zero-valued fields are
// left untouched.
type UpdateProfileInput struct {
	FullName     string
	Email        string
	MobileNumber string
	Location     *models.Location
	Password     string
}

func (s *Service) UpdateProfile(ctx context.Context, donorID string, in UpdateProfileInput) (*models.Donor, error) {
	donor, err := s.Profile(ctx, donorID)
	if err != nil {
		return nil, err
	}

	if in.FullName != "" {
		donor.FullName = in.FullName
	}
	if in.Email != "" {
		donor.Email = in.Email
	}
	if in.MobileNumber != "" {
		donor.MobileNumber = in.MobileNumber
	}
	if in.Location != nil {
		donor.Location = *in.Location
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
		}
		donor.PasswordHash = string(hash)
	}

	donor.UpdatedAt = requestcontext.Now(ctx)
	if err := s.donors.Update(ctx, donor); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist donor", err)
	}
	return donor, nil
}

// History returns the donor's donation history, empty slice when none.
func (s *Service) History(ctx context.Context, donorID string) ([]models.DonationRecord, error) {
	donor, err := s.Profile(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if donor.DonationHistory == nil {
		return []models.DonationRecord{}, nil
	}
	return donor.DonationHistory, nil
}
