package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	donormodels "lifelink/internal/donor/models"
	donorstore "lifelink/internal/donor/store"
	listmodels "lifelink/internal/donorlist/models"
	liststore "lifelink/internal/donorlist/store"
	"lifelink/internal/emergency/models"
	"lifelink/internal/emergency/service"
	emergencystore "lifelink/internal/emergency/store"
	"lifelink/internal/notify/mocks"
	"lifelink/pkg/testutil"
)

type fixture struct {
	router   chi.Router
	donors   *donorstore.InMemoryDonorStore
	list     *liststore.InMemoryListStore
	requests *emergencystore.InMemoryRequestStore
	gateway  *mocks.MockGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		donors:   donorstore.NewMemory(),
		list:     liststore.NewMemory(),
		requests: emergencystore.NewMemory(),
		gateway:  mocks.NewMockGateway(ctrl),
	}
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(f.requests, f.donors, f.list, f.gateway, logger, nil, nil)
	f.router = chi.NewRouter()
	New(svc, logger).Register(f.router)
	return f
}

func (f *fixture) seedAvailableDonor(t *testing.T, mobile string) *donormodels.Donor {
	t.Helper()
	donor := &donormodels.Donor{
		ID:           mobile + "-id",
		FullName:     "Donor " + mobile,
		Age:          30,
		Gender:       donormodels.GenderMale,
		BloodGroup:   donormodels.BloodOPos,
		MobileNumber: mobile,
		Email:        mobile + "@example.com",
		Location:     donormodels.Location{Latitude: 12.9, Longitude: 77.6, Address: "Springfield"},
	}
	require.NoError(t, f.donors.Create(context.Background(), donor))
	entry := &listmodels.Entry{
		ID:          mobile + "-entry",
		DonorID:     donor.ID,
		FullName:    donor.FullName,
		BloodGroup:  donor.BloodGroup,
		Location:    donor.Location,
		IsAvailable: true,
		AddedAt:     time.Now(),
	}
	require.NoError(t, f.list.Create(context.Background(), entry))
	return donor
}

func createBody() map[string]any {
	return map[string]any{
		"bloodGroup":   "O+",
		"units":        1,
		"fullName":     "Meera Shah",
		"mobileNumber": "9876500000",
		"location":     map[string]any{"address": "Springfield"},
	}
}

func TestCreateEmergencyRequest(t *testing.T) {
	f := newFixture(t)
	f.seedAvailableDonor(t, "9000000001")
	f.gateway.EXPECT().Send(gomock.Any(), "9000000001", gomock.Any()).Return(nil)

	req := testutil.WithDonor(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/emergency/request", createBody()),
		"requester-1")
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	res := testutil.UnmarshalResponse[createResponse](t, rr)
	assert.Equal(t, 1, res.NotifiedDonors)
	assert.Equal(t, 1, res.TotalEligibleDonors)
	assert.Equal(t, 1, res.NearbyDonors)
	assert.Equal(t, models.StatusPending, res.Request.Status)
}

func TestCreateEmergencyRequestValidation(t *testing.T) {
	f := newFixture(t)

	req := testutil.WithDonor(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/emergency/request", map[string]any{}),
		"requester-1")
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	env := testutil.UnmarshalErrorResponse(t, rr)
	assert.Contains(t, env.Details, "bloodGroup")
	assert.Contains(t, env.Details, "units")
	assert.Contains(t, env.Details, "address")
}

func TestCreateEmergencyRequestMalformedBody(t *testing.T) {
	f := newFixture(t)

	req := testutil.WithDonor(
		testutil.NewRequestWithBody(t, http.MethodPost, "/api/emergency/request", "{not json"),
		"requester-1")
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestAcceptAndDeclineFlow(t *testing.T) {
	f := newFixture(t)
	donor := f.seedAvailableDonor(t, "9000000001")
	other := f.seedAvailableDonor(t, "9000000002")
	f.gateway.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	body := createBody()
	body["units"] = 2
	created := testutil.UnmarshalResponse[createResponse](t, testutil.DoRequest(f.router,
		testutil.WithDonor(testutil.NewJSONRequest(t, http.MethodPost, "/api/emergency/request", body), "requester-1")))
	requestID := created.Request.ID

	// Donor inbox shows the pending request.
	rr := testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewRequest(t, http.MethodGet, "/api/emergency/donor/requests"), donor.ID))
	testutil.AssertStatus(t, rr, http.StatusOK)
	views := testutil.UnmarshalResponse[[]models.DonorView](t, rr)
	require.Len(t, *views, 1)
	assert.Equal(t, "Meera Shah", (*views)[0].Requester.Name)

	// Accept.
	rr = testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewRequest(t, http.MethodPost, "/api/emergency/request/"+requestID+"/accept"), donor.ID))
	testutil.AssertStatus(t, rr, http.StatusOK)
	accepted := testutil.UnmarshalResponse[acceptResponse](t, rr)
	assert.Equal(t, models.StatusPending, accepted.Request.Status, "one of two units")
	assert.Equal(t, donor.FullName, accepted.Donor.Name)

	// Responding twice conflicts.
	rr = testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewRequest(t, http.MethodPost, "/api/emergency/request/"+requestID+"/accept"), donor.ID))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "already_responded")

	// Decline from the second donor leaves the request pending.
	rr = testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewRequest(t, http.MethodPost, "/api/emergency/request/"+requestID+"/decline"), other.ID))
	testutil.AssertStatus(t, rr, http.StatusOK)
	declined := testutil.UnmarshalResponse[declineResponse](t, rr)
	assert.Equal(t, models.StatusPending, declined.Request.Status)
}

func TestAcceptUnknownRequest(t *testing.T) {
	f := newFixture(t)
	donor := f.seedAvailableDonor(t, "9000000001")

	rr := testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewRequest(t, http.MethodPost, "/api/emergency/request/nope/accept"), donor.ID))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestListAllRequests(t *testing.T) {
	f := newFixture(t)
	f.seedAvailableDonor(t, "9000000001")
	f.gateway.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/emergency/request", createBody()), "requester-1"))

	rr := testutil.DoRequest(f.router, testutil.WithDonor(
		testutil.NewRequest(t, http.MethodGet, "/api/emergency/requests"), "requester-1"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	reqs := testutil.UnmarshalResponse[[]*models.Request](t, rr)
	require.Len(t, *reqs, 1)
}
