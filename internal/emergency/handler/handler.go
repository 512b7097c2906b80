// Package handler exposes the emergency request workflow.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	donormodels "lifelink/internal/donor/models"
	"lifelink/internal/emergency/models"
	"lifelink/internal/emergency/service"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, requesterID string, in service.CreateInput) (*service.CreateResult, error)
	Accept(ctx context.Context, requestID, donorID string) (*service.AcceptResult, error)
	Decline(ctx context.Context, requestID, donorID string) (*models.Request, error)
	ListForDonor(ctx context.Context, donorID string) ([]models.DonorView, error)
	ListAll(ctx context.Context) ([]*models.Request, error)
}

type Handler struct {
	emergency Service
	logger    *slog.Logger
}

func New(emergency Service, logger *slog.Logger) *Handler {
	return &Handler{emergency: emergency, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/emergency/request", h.handleCreate)
	r.Get("/api/emergency/requests", h.handleListAll)
	r.Get("/api/emergency/donor/requests", h.handleDonorRequests)
	r.Post("/api/emergency/request/{requestID}/accept", h.handleAccept)
	r.Post("/api/emergency/request/{requestID}/decline", h.handleDecline)
}

type createRequest struct {
	BloodGroup   string `json:"bloodGroup"`
	Units        int    `json:"units"`
	FullName     string `json:"fullName"`
	MobileNumber string `json:"mobileNumber"`
	Location     struct {
		Address string `json:"address"`
	} `json:"location"`
}

type createResponse struct {
	Message             string          `json:"message"`
	Request             *models.Request `json:"request"`
	NotifiedDonors      int             `json:"notifiedDonors"`
	TotalEligibleDonors int             `json:"totalEligibleDonors"`
	NearbyDonors        int             `json:"nearbyDonors"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	res, err := h.emergency.Create(ctx, middleware.GetDonorID(ctx), service.CreateInput{
		BloodGroup:   donormodels.BloodGroup(req.BloodGroup),
		Units:        req.Units,
		Address:      req.Location.Address,
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		h.writeError(ctx, w, err, "create emergency request")
		return
	}

	shared.WriteJSON(w, http.StatusCreated, createResponse{
		Message:             "Emergency request created successfully",
		Request:             res.Request,
		NotifiedDonors:      res.Notified,
		TotalEligibleDonors: res.TotalEligible,
		NearbyDonors:        res.Nearby,
	})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.emergency.ListAll(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "list emergency requests")
		return
	}
	shared.WriteJSON(w, http.StatusOK, reqs)
}

func (h *Handler) handleDonorRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.emergency.ListForDonor(ctx, middleware.GetDonorID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "list donor requests")
		return
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

type acceptResponse struct {
	Message   string               `json:"message"`
	Request   *models.Request      `json:"request"`
	Requester models.Requester     `json:"requester"`
	Donor     service.DonorContact `json:"donor"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.emergency.Accept(ctx, chi.URLParam(r, "requestID"), middleware.GetDonorID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "accept emergency request")
		return
	}

	shared.WriteJSON(w, http.StatusOK, acceptResponse{
		Message:   "Request accepted successfully",
		Request:   res.Request,
		Requester: res.Requester,
		Donor:     res.Donor,
	})
}

type declineResponse struct {
	Message string          `json:"message"`
	Request *models.Request `json:"request"`
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.emergency.Decline(ctx, chi.URLParam(r, "requestID"), middleware.GetDonorID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "decline emergency request")
		return
	}

	shared.WriteJSON(w, http.StatusOK, declineResponse{
		Message: "Request declined successfully",
		Request: req,
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err, "request_id", requestcontext.RequestID(ctx))
	}
	shared.WriteError(w, err)
}
