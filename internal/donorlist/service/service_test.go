package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	donormodels "lifelink/internal/donor/models"
	donorstore "lifelink/internal/donor/store"
	"lifelink/internal/donorlist/models"
	liststore "lifelink/internal/donorlist/store"
	dErrors "lifelink/pkg/domain-errors"
)

type AvailabilitySuite struct {
	suite.Suite
	donors *donorstore.InMemoryDonorStore
	list   *liststore.InMemoryListStore
	svc    *Service
	ctx    context.Context
}

func TestAvailabilitySuite(t *testing.T) {
	suite.Run(t, new(AvailabilitySuite))
}

func (s *AvailabilitySuite) SetupTest() {
	s.donors = donorstore.NewMemory()
	s.list = liststore.NewMemory()
	s.svc = New(s.list, s.donors, slog.New(slog.DiscardHandler), nil)
	s.ctx = context.Background()
}

func (s *AvailabilitySuite) seedListedDonor(group donormodels.BloodGroup) (*donormodels.Donor, *models.Entry) {
	donor := &donormodels.Donor{
		ID:            uuid.NewString(),
		FullName:      "Ravi Kumar",
		Age:           30,
		Gender:        donormodels.GenderMale,
		BloodGroup:    group,
		MobileNumber:  "9876543210",
		Email:         uuid.NewString() + "@example.com",
		Location:      donormodels.Location{Latitude: 12.9, Longitude: 77.6, Address: "Springfield"},
		IsEligible:    true,
		IsInDonorList: true,
	}
	s.Require().NoError(s.donors.Create(s.ctx, donor))

	entry := &models.Entry{
		ID:          uuid.NewString(),
		DonorID:     donor.ID,
		FullName:    donor.FullName,
		BloodGroup:  group,
		Location:    donor.Location,
		IsAvailable: true,
		AddedAt:     time.Now(),
	}
	s.Require().NoError(s.list.Create(s.ctx, entry))
	return donor, entry
}

func (s *AvailabilitySuite) TestToggleMirrorsOntoDonor() {
	donor, entry := s.seedListedDonor(donormodels.BloodOPos)

	updated, err := s.svc.SetAvailability(s.ctx, entry.ID, false)
	s.Require().NoError(err)
	s.False(updated.IsAvailable)

	stored, err := s.donors.GetByID(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.False(stored.IsInDonorList)

	_, err = s.svc.SetAvailability(s.ctx, entry.ID, true)
	s.Require().NoError(err)
	stored, err = s.donors.GetByID(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.True(stored.IsInDonorList)
}

func (s *AvailabilitySuite) TestToggleUnknownEntry() {
	_, err := s.svc.SetAvailability(s.ctx, uuid.NewString(), false)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *AvailabilitySuite) TestUnavailableEntriesHiddenFromQueries() {
	_, entry := s.seedListedDonor(donormodels.BloodOPos)
	s.seedListedDonor(donormodels.BloodOPos)

	_, err := s.svc.SetAvailability(s.ctx, entry.ID, false)
	s.Require().NoError(err)

	entries, err := s.svc.ListAvailable(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 1)

	entries, err = s.svc.ListByBloodGroup(s.ctx, donormodels.BloodOPos)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *AvailabilitySuite) TestListByInvalidBloodGroup() {
	_, err := s.svc.ListByBloodGroup(s.ctx, "Z+")
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *AvailabilitySuite) TestRemoveClearsDonorFlag() {
	donor, entry := s.seedListedDonor(donormodels.BloodABPos)

	s.Require().NoError(s.svc.Remove(s.ctx, entry.ID))

	stored, err := s.donors.GetByID(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.False(stored.IsInDonorList)

	_, err = s.list.GetByID(s.ctx, entry.ID)
	s.Require().Error(err)

	err = s.svc.Remove(s.ctx, entry.ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}
