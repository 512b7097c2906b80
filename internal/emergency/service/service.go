// Package service implements the emergency request workflow: raise a request,
// fan SMS out to matching available donors, and collect accept/decline
// decisions until the unit count is met.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	donormodels "lifelink/internal/donor/models"
	listmodels "lifelink/internal/donorlist/models"
	"lifelink/internal/emergency/models"
	"lifelink/internal/platform/metrics"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/audit"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

// smsFanOutLimit bounds concurrent gateway calls during a fan-out.
const smsFanOutLimit = 8

type RequestStore interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	SetNotified(ctx context.Context, id string, donorIDs []string, updatedAt time.Time) error
	AppendResponse(ctx context.Context, id string, resp models.Response) (*models.Request, error)
	ListPendingNotified(ctx context.Context, donorID string) ([]*models.Request, error)
	ListAll(ctx context.Context) ([]*models.Request, error)
}

type DonorStore interface {
	GetByID(ctx context.Context, id string) (*donormodels.Donor, error)
}

type ListStore interface {
	FindAvailableByBloodGroup(ctx context.Context, group donormodels.BloodGroup) ([]*listmodels.Entry, error)
}

// Notifier delivers one SMS. Implementations live in internal/notify.
type Notifier interface {
	Send(ctx context.Context, to, message string) error
}

type Service struct {
	requests RequestStore
	donors   DonorStore
	list     ListStore
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Publisher
}

func New(requests RequestStore, donors DonorStore, list ListStore, notifier Notifier,
	logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{
		requests: requests,
		donors:   donors,
		list:     list,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		audit:    auditor,
	}
}

// CreateInput carries the request fields as submitted by the requester.
type CreateInput struct {
	BloodGroup   donormodels.BloodGroup
	Units        int
	Address      string
	FullName     string
	MobileNumber string
}

// CreateResult is the request plus the fan-out counts reported back to the
// requester.
type CreateResult struct {
	Request       *models.Request
	TotalEligible int
	Nearby        int
	Notified      int
}

// Create validates the input, persists a pending request, finds available
// donors with the matching blood group whose profile address matches the
// request address, and fans SMS out to them. Per-donor delivery failures skip
// that donor only; the request itself never fails because of SMS.
func (s *Service) Create(ctx context.Context, requesterID string, in CreateInput) (*CreateResult, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	req := &models.Request{
		ID:              uuid.NewString(),
		RequesterID:     requesterID,
		RequesterName:   in.FullName,
		RequesterMobile: in.MobileNumber,
		BloodGroup:      in.BloodGroup,
		Units:           in.Units,
		Location:        donormodels.Location{Address: in.Address},
		Status:          models.StatusPending,
		AcceptedBy:      []models.Response{},
		NotifiedDonors:  []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist emergency request", err)
	}
	s.metrics.IncEmergencyEvent("created")
	s.emit(ctx, audit.EventRequestCreated, requesterID, req.ID,
		string(in.BloodGroup), fmt.Sprintf("units=%d", in.Units))

	candidates, err := s.list.FindAvailableByBloodGroup(ctx, in.BloodGroup)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find available donors", err)
	}

	nearby := s.matchNearby(ctx, candidates, in.Address)
	notified := s.fanOut(ctx, req, nearby)

	req.NotifiedDonors = notified
	req.UpdatedAt = now
	if err := s.requests.SetNotified(ctx, req.ID, notified, now); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record notified donors", err)
	}

	s.logger.InfoContext(ctx, "emergency request created",
		"request_id", req.ID,
		"blood_group", in.BloodGroup,
		"units", in.Units,
		"eligible", len(candidates),
		"nearby", len(nearby),
		"notified", len(notified),
	)
	return &CreateResult{
		Request:       req,
		TotalEligible: len(candidates),
		Nearby:        len(nearby),
		Notified:      len(notified),
	}, nil
}

func validateCreate(in CreateInput) error {
	details := map[string]string{}
	switch {
	case in.BloodGroup == "":
		details["bloodGroup"] = "blood group is required"
	case !in.BloodGroup.Valid():
		details["bloodGroup"] = "invalid blood group"
	}
	switch {
	case in.Units == 0:
		details["units"] = "units are required"
	case in.Units < 1 || in.Units > 10:
		details["units"] = "units must be between 1 and 10"
	}
	if strings.TrimSpace(in.Address) == "" {
		details["address"] = "address is required"
	}
	if strings.TrimSpace(in.FullName) == "" {
		details["fullName"] = "full name is required"
	}
	if strings.TrimSpace(in.MobileNumber) == "" {
		details["mobileNumber"] = "mobile number is required"
	}
	if len(details) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "missing required fields", details)
	}
	return nil
}

// smsTarget is a resolved candidate: the availability entry joined with the
// donor profile the address filter and the SMS need.
type smsTarget struct {
	donorID string
	name    string
	mobile  string
}

func (s *Service) matchNearby(ctx context.Context, candidates []*listmodels.Entry, address string) []smsTarget {
	var nearby []smsTarget
	for _, entry := range candidates {
		donor, err := s.donors.GetByID(ctx, entry.DonorID)
		if err != nil {
			s.logger.WarnContext(ctx, "candidate has no donor profile",
				"donor_id", entry.DonorID, "error", err)
			continue
		}
		if !addressMatches(donor.Location.Address, address) {
			continue
		}
		nearby = append(nearby, smsTarget{
			donorID: donor.ID,
			name:    donor.FullName,
			mobile:  donor.MobileNumber,
		})
	}
	return nearby
}

func (s *Service) fanOut(ctx context.Context, req *models.Request, targets []smsTarget) []string {
	message := fmt.Sprintf(
		"URGENT: Blood required at %s. Blood Group: %s, Units: %d. Requester: %s (%s). "+
			"Please login to your portal and accept/reject the request.",
		req.Location.Address, req.BloodGroup, req.Units, req.RequesterName, req.RequesterMobile,
	)

	var (
		mu       sync.Mutex
		notified = []string{}
	)
	var g errgroup.Group
	g.SetLimit(smsFanOutLimit)
	for _, t := range targets {
		if t.mobile == "" {
			s.logger.WarnContext(ctx, "skipping donor without mobile number",
				"request_id", req.ID, "donor_id", t.donorID)
			continue
		}
		g.Go(func() error {
			if err := s.notifier.Send(ctx, t.mobile, message); err != nil {
				s.logger.WarnContext(ctx, "emergency sms failed",
					"request_id", req.ID, "donor_id", t.donorID, "error", err)
				s.emit(ctx, audit.EventNotificationFailed, t.donorID, req.ID, t.name, err.Error())
				return nil
			}
			mu.Lock()
			notified = append(notified, t.donorID)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(notified)
	return notified
}

// AcceptResult carries the contact blocks each side needs to reach the other.
type AcceptResult struct {
	Request   *models.Request
	Requester models.Requester
	Donor     DonorContact
}

type DonorContact struct {
	Name       string                 `json:"name"`
	Mobile     string                 `json:"mobile"`
	BloodGroup donormodels.BloodGroup `json:"bloodGroup"`
	Location   string                 `json:"location"`
}

// Accept records the donor's accepted decision. The store append is atomic;
// once it succeeds both sides get a best-effort SMS with the other's contact
// details. SMS failures are logged and never undo the acceptance.
func (s *Service) Accept(ctx context.Context, requestID, donorID string) (*AcceptResult, error) {
	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load donor", err)
	}

	now := requestcontext.Now(ctx)
	req, err := s.requests.AppendResponse(ctx, requestID, models.Response{
		DonorID:     donorID,
		Decision:    models.DecisionAccepted,
		RespondedAt: now,
	})
	if err != nil {
		return nil, classifyResponseErr(err)
	}
	s.metrics.IncEmergencyEvent("accepted")
	if req.Status == models.StatusAccepted {
		s.metrics.IncEmergencyEvent("fulfilled")
	}
	s.emit(ctx, audit.EventRequestAccepted, donorID, req.ID,
		string(req.BloodGroup), string(req.Status))

	requesterMsg := fmt.Sprintf(
		"Your blood request has been accepted by %s (%s). Blood Group: %s. Please contact them immediately.",
		donor.FullName, donor.MobileNumber, donor.BloodGroup,
	)
	if err := s.notifier.Send(ctx, req.RequesterMobile, requesterMsg); err != nil {
		s.logger.WarnContext(ctx, "acceptance sms to requester failed",
			"request_id", req.ID, "error", err)
	}
	donorMsg := fmt.Sprintf(
		"You have accepted a blood request from %s (%s). Location: %s. Please contact them immediately.",
		req.RequesterName, req.RequesterMobile, req.Location.Address,
	)
	if err := s.notifier.Send(ctx, donor.MobileNumber, donorMsg); err != nil {
		s.logger.WarnContext(ctx, "acceptance sms to donor failed",
			"request_id", req.ID, "donor_id", donorID, "error", err)
	}

	s.logger.InfoContext(ctx, "emergency request accepted",
		"request_id", req.ID, "donor_id", donorID, "status", req.Status)
	return &AcceptResult{
		Request: req,
		Requester: models.Requester{
			Name:     req.RequesterName,
			Mobile:   req.RequesterMobile,
			Location: req.Location.Address,
		},
		Donor: DonorContact{
			Name:       donor.FullName,
			Mobile:     donor.MobileNumber,
			BloodGroup: donor.BloodGroup,
			Location:   donor.Location.Address,
		},
	}, nil
}

// Decline records a rejected decision. Rejections never change the request
// status and trigger no SMS.
func (s *Service) Decline(ctx context.Context, requestID, donorID string) (*models.Request, error) {
	now := requestcontext.Now(ctx)
	req, err := s.requests.AppendResponse(ctx, requestID, models.Response{
		DonorID:     donorID,
		Decision:    models.DecisionRejected,
		RespondedAt: now,
	})
	if err != nil {
		return nil, classifyResponseErr(err)
	}
	s.metrics.IncEmergencyEvent("declined")
	s.emit(ctx, audit.EventRequestDeclined, donorID, req.ID,
		string(req.BloodGroup), string(req.Status))

	s.logger.InfoContext(ctx, "emergency request declined",
		"request_id", req.ID, "donor_id", donorID)
	return req, nil
}

// ListForDonor returns the donor's inbox: pending requests whose fan-out
// reached them, newest first.
func (s *Service) ListForDonor(ctx context.Context, donorID string) ([]models.DonorView, error) {
	reqs, err := s.requests.ListPendingNotified(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list donor requests", err)
	}
	views := make([]models.DonorView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, models.DonorView{
			ID:         req.ID,
			BloodGroup: req.BloodGroup,
			Units:      req.Units,
			Location:   req.Location,
			Status:     req.Status,
			CreatedAt:  req.CreatedAt,
			Requester: models.Requester{
				Name:     req.RequesterName,
				Mobile:   req.RequesterMobile,
				Location: req.Location.Address,
			},
		})
	}
	return views, nil
}

// ListAll returns every request, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*models.Request, error) {
	reqs, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list emergency requests", err)
	}
	return reqs, nil
}

func classifyResponseErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "emergency request not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "this request is no longer pending")
	case errors.Is(err, sentinel.ErrAlreadyResponded):
		return dErrors.New(dErrors.CodeAlreadyResponded, "you have already responded to this request")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "record response", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, donorID, requestID, subject, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Timestamp:          requestcontext.Now(ctx),
		DonorID:            donorID,
		EmergencyRequestID: requestID,
		Action:             string(action),
		Subject:            subject,
		Reason:             reason,
		RequestID:          requestcontext.RequestID(ctx),
	})
}
