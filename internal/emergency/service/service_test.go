package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	donormodels "lifelink/internal/donor/models"
	donorstore "lifelink/internal/donor/store"
	listmodels "lifelink/internal/donorlist/models"
	liststore "lifelink/internal/donorlist/store"
	"lifelink/internal/emergency/models"
	emergencystore "lifelink/internal/emergency/store"
	dErrors "lifelink/pkg/domain-errors"
)

// fakeNotifier records sends and fails destinations listed in failFor.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentSMS
	failFor map[string]bool
}

type sentSMS struct {
	to      string
	message string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]bool)}
}

func (f *fakeNotifier) Send(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to] {
		return errors.New("gateway unavailable")
	}
	f.sent = append(f.sent, sentSMS{to: to, message: message})
	return nil
}

func (f *fakeNotifier) sentTo(to string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sent {
		if s.to == to {
			return true
		}
	}
	return false
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type EmergencySuite struct {
	suite.Suite
	donors   *donorstore.InMemoryDonorStore
	list     *liststore.InMemoryListStore
	requests *emergencystore.InMemoryRequestStore
	notifier *fakeNotifier
	svc      *Service
	ctx      context.Context
	now      time.Time
}

func TestEmergencySuite(t *testing.T) {
	suite.Run(t, new(EmergencySuite))
}

func (s *EmergencySuite) SetupTest() {
	s.donors = donorstore.NewMemory()
	s.list = liststore.NewMemory()
	s.requests = emergencystore.NewMemory()
	s.notifier = newFakeNotifier()
	s.svc = New(s.requests, s.donors, s.list, s.notifier,
		slog.New(slog.DiscardHandler), nil, nil)
	s.ctx = context.Background()
	s.now = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)
}

// seedAvailableDonor registers a donor profile and its availability entry.
func (s *EmergencySuite) seedAvailableDonor(group donormodels.BloodGroup, address, mobile string) *donormodels.Donor {
	donor := &donormodels.Donor{
		ID:           uuid.NewString(),
		FullName:     "Donor " + mobile,
		Age:          30,
		Gender:       donormodels.GenderMale,
		BloodGroup:   group,
		MobileNumber: mobile,
		Email:        uuid.NewString() + "@example.com",
		Location:     donormodels.Location{Latitude: 12.9, Longitude: 77.6, Address: address},
	}
	s.Require().NoError(s.donors.Create(s.ctx, donor))

	entry := &listmodels.Entry{
		ID:           uuid.NewString(),
		DonorID:      donor.ID,
		FullName:     donor.FullName,
		BloodGroup:   group,
		Location:     donor.Location,
		LastDonation: s.now.AddDate(0, -6, 0),
		IsAvailable:  true,
		AddedAt:      s.now,
	}
	s.Require().NoError(s.list.Create(s.ctx, entry))
	return donor
}

func (s *EmergencySuite) validInput() CreateInput {
	return CreateInput{
		BloodGroup:   donormodels.BloodOPos,
		Units:        2,
		Address:      "Springfield",
		FullName:     "Meera Shah",
		MobileNumber: "9876500000",
	}
}

func (s *EmergencySuite) TestCreateValidationCollectsAllMissingFields() {
	_, err := s.svc.Create(s.ctx, uuid.NewString(), CreateInput{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Len(de.Details, 5)
	s.Contains(de.Details, "bloodGroup")
	s.Contains(de.Details, "units")
	s.Contains(de.Details, "address")
	s.Contains(de.Details, "fullName")
	s.Contains(de.Details, "mobileNumber")
}

func (s *EmergencySuite) TestCreateRejectsInvalidEnumAndRange() {
	in := s.validInput()
	in.BloodGroup = "Z+"
	in.Units = 11
	_, err := s.svc.Create(s.ctx, uuid.NewString(), in)
	s.Require().Error(err)

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Equal("invalid blood group", de.Details["bloodGroup"])
	s.Equal("units must be between 1 and 10", de.Details["units"])
}

func (s *EmergencySuite) TestCreateFansOutToMatchingDonors() {
	match := s.seedAvailableDonor(donormodels.BloodOPos, "123 Main St, Springfield", "9000000001")
	alsoMatch := s.seedAvailableDonor(donormodels.BloodOPos, "springfield", "9000000002")
	s.seedAvailableDonor(donormodels.BloodOPos, "Shelbyville", "9000000003")
	s.seedAvailableDonor(donormodels.BloodANeg, "Springfield", "9000000004")

	res, err := s.svc.Create(s.ctx, uuid.NewString(), s.validInput())
	s.Require().NoError(err)

	s.Equal(3, res.TotalEligible, "wrong blood group is not a candidate")
	s.Equal(2, res.Nearby)
	s.Equal(2, res.Notified)
	s.ElementsMatch([]string{match.ID, alsoMatch.ID}, res.Request.NotifiedDonors)

	s.True(s.notifier.sentTo("9000000001"))
	s.True(s.notifier.sentTo("9000000002"))
	s.False(s.notifier.sentTo("9000000003"))
	s.False(s.notifier.sentTo("9000000004"))

	stored, err := s.requests.GetByID(s.ctx, res.Request.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.ElementsMatch(res.Request.NotifiedDonors, stored.NotifiedDonors)
}

func (s *EmergencySuite) TestCreateSMSCarriesRequestDetails() {
	s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000001")

	_, err := s.svc.Create(s.ctx, uuid.NewString(), s.validInput())
	s.Require().NoError(err)

	s.Require().Equal(1, s.notifier.count())
	msg := s.notifier.sent[0].message
	s.True(strings.Contains(msg, "Springfield"))
	s.True(strings.Contains(msg, "O+"))
	s.True(strings.Contains(msg, "Units: 2"))
	s.True(strings.Contains(msg, "Meera Shah"))
	s.True(strings.Contains(msg, "9876500000"))
}

func (s *EmergencySuite) TestCreateSkipsFailedSendOnly() {
	ok := s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000001")
	s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000002")
	s.notifier.failFor["9000000002"] = true

	res, err := s.svc.Create(s.ctx, uuid.NewString(), s.validInput())
	s.Require().NoError(err)

	s.Equal(2, res.Nearby)
	s.Equal(1, res.Notified)
	s.Equal([]string{ok.ID}, res.Request.NotifiedDonors)
}

func (s *EmergencySuite) TestCreateSkipsDonorWithoutMobile() {
	s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "")
	reachable := s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000001")

	res, err := s.svc.Create(s.ctx, uuid.NewString(), s.validInput())
	s.Require().NoError(err)

	// Counted as nearby, never notified.
	s.Equal(2, res.Nearby)
	s.Equal(1, res.Notified)
	s.Equal([]string{reachable.ID}, res.Request.NotifiedDonors)
}

func (s *EmergencySuite) TestCreateWithNoCandidates() {
	res, err := s.svc.Create(s.ctx, uuid.NewString(), s.validInput())
	s.Require().NoError(err)
	s.Equal(0, res.TotalEligible)
	s.Equal(0, res.Nearby)
	s.Equal(0, res.Notified)
	s.Empty(res.Request.NotifiedDonors)
	s.Equal(0, s.notifier.count())
}

func (s *EmergencySuite) createRequest(units int) (*models.Request, []*donormodels.Donor) {
	donors := []*donormodels.Donor{
		s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000001"),
		s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000002"),
		s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000003"),
	}
	in := s.validInput()
	in.Units = units
	res, err := s.svc.Create(s.ctx, uuid.NewString(), in)
	s.Require().NoError(err)
	return res.Request, donors
}

func (s *EmergencySuite) TestAcceptFulfillsAtUnitCount() {
	req, donors := s.createRequest(2)

	first, err := s.svc.Accept(s.ctx, req.ID, donors[0].ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, first.Request.Status)

	second, err := s.svc.Accept(s.ctx, req.ID, donors[1].ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, second.Request.Status)
	s.Equal(2, second.Request.AcceptedCount())

	// The fulfilled request rejects further responses.
	_, err = s.svc.Accept(s.ctx, req.ID, donors[2].ID)
	s.True(dErrors.Is(err, dErrors.CodeInvalidState))
}

func (s *EmergencySuite) TestAcceptSendsContactDetailsBothWays() {
	req, donors := s.createRequest(2)
	fanOutSends := s.notifier.count()

	res, err := s.svc.Accept(s.ctx, req.ID, donors[0].ID)
	s.Require().NoError(err)

	s.Equal(fanOutSends+2, s.notifier.count())
	s.True(s.notifier.sentTo("9876500000"), "requester is told who accepted")
	s.Equal(donors[0].FullName, res.Donor.Name)
	s.Equal("Meera Shah", res.Requester.Name)
	s.Equal("Springfield", res.Requester.Location)
}

func (s *EmergencySuite) TestAcceptSurvivesSMSFailure() {
	req, donors := s.createRequest(2)
	s.notifier.failFor["9876500000"] = true

	res, err := s.svc.Accept(s.ctx, req.ID, donors[0].ID)
	s.Require().NoError(err)
	s.True(res.Request.HasResponded(donors[0].ID))
}

func (s *EmergencySuite) TestDoubleResponseRejected() {
	req, donors := s.createRequest(3)

	_, err := s.svc.Accept(s.ctx, req.ID, donors[0].ID)
	s.Require().NoError(err)

	_, err = s.svc.Accept(s.ctx, req.ID, donors[0].ID)
	s.True(dErrors.Is(err, dErrors.CodeAlreadyResponded))

	_, err = s.svc.Decline(s.ctx, req.ID, donors[0].ID)
	s.True(dErrors.Is(err, dErrors.CodeAlreadyResponded))
}

func (s *EmergencySuite) TestDeclineNeverChangesStatusAndSendsNoSMS() {
	req, donors := s.createRequest(1)
	fanOutSends := s.notifier.count()

	updated, err := s.svc.Decline(s.ctx, req.ID, donors[0].ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, updated.Status)
	s.Require().Len(updated.AcceptedBy, 1)
	s.Equal(models.DecisionRejected, updated.AcceptedBy[0].Decision)
	s.Equal(fanOutSends, s.notifier.count())

	// A later acceptance still fulfills the request.
	final, err := s.svc.Accept(s.ctx, req.ID, donors[1].ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, final.Request.Status)
}

func (s *EmergencySuite) TestRespondToUnknownRequest() {
	donors := []*donormodels.Donor{
		s.seedAvailableDonor(donormodels.BloodOPos, "Springfield", "9000000001"),
	}
	_, err := s.svc.Accept(s.ctx, uuid.NewString(), donors[0].ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	_, err = s.svc.Decline(s.ctx, uuid.NewString(), donors[0].ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *EmergencySuite) TestAcceptByUnknownDonor() {
	req, _ := s.createRequest(1)
	_, err := s.svc.Accept(s.ctx, req.ID, uuid.NewString())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *EmergencySuite) TestListForDonorShowsPendingNotifiedOnly() {
	req, donors := s.createRequest(1)

	views, err := s.svc.ListForDonor(s.ctx, donors[0].ID)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(req.ID, views[0].ID)
	s.Equal("Meera Shah", views[0].Requester.Name)
	s.Equal("9876500000", views[0].Requester.Mobile)

	// Fulfillment empties the inbox.
	_, err = s.svc.Accept(s.ctx, req.ID, donors[1].ID)
	s.Require().NoError(err)
	views, err = s.svc.ListForDonor(s.ctx, donors[0].ID)
	s.Require().NoError(err)
	s.Empty(views)
}

func (s *EmergencySuite) TestListForDonorExcludesUnnotified() {
	_, _ = s.createRequest(1)
	stranger := s.seedAvailableDonor(donormodels.BloodABNeg, "Nowhere", "9000000009")

	views, err := s.svc.ListForDonor(s.ctx, stranger.ID)
	s.Require().NoError(err)
	s.Empty(views)
}
