// Package handler exposes the authenticated donor's own profile, donation
// reporting and history.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/donor/models"
	"lifelink/internal/donor/service"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/requestcontext"
)

type Service interface {
	Profile(ctx context.Context, donorID string) (*models.Donor, error)
	UpdateProfile(ctx context.Context, donorID string, in service.UpdateProfileInput) (*models.Donor, error)
	RecordDonation(ctx context.Context, donorID string, monthsAgo int) (*models.Donor, error)
	History(ctx context.Context, donorID string) ([]models.DonationRecord, error)
}

type Handler struct {
	donors Service
	logger *slog.Logger
}

func New(donors Service, logger *slog.Logger) *Handler {
	return &Handler{donors: donors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/donor/profile", h.handleGetProfile)
	r.Put("/api/donor/profile", h.handleUpdateProfile)
	r.Post("/api/donor/donation", h.handleRecordDonation)
	r.Get("/api/donor/history", h.handleHistory)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor, err := h.donors.Profile(ctx, middleware.GetDonorID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "load profile")
		return
	}
	shared.WriteJSON(w, http.StatusOK, donor)
}

type updateProfileRequest struct {
	FullName     string           `json:"fullName"`
	Email        string           `json:"email"`
	MobileNumber string           `json:"mobileNumber"`
	Location     *models.Location `json:"location"`
	Password     string           `json:"password"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	donor, err := h.donors.UpdateProfile(ctx, middleware.GetDonorID(ctx), service.UpdateProfileInput{
		FullName:     req.FullName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Location:     req.Location,
		Password:     req.Password,
	})
	if err != nil {
		h.writeError(ctx, w, err, "update profile")
		return
	}
	shared.WriteJSON(w, http.StatusOK, donor)
}

type recordDonationRequest struct {
	Months *int `json:"months"`
}

func (h *Handler) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Months == nil {
		shared.WriteError(w, dErrors.WithDetails(dErrors.CodeValidation, "invalid request body",
			map[string]string{"months": "a number of months is required"}))
		return
	}

	donor, err := h.donors.RecordDonation(ctx, middleware.GetDonorID(ctx), *req.Months)
	if err != nil {
		h.writeError(ctx, w, err, "record donation")
		return
	}
	shared.WriteJSON(w, http.StatusOK, donor)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history, err := h.donors.History(ctx, middleware.GetDonorID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "load history")
		return
	}
	shared.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err, "request_id", requestcontext.RequestID(ctx))
	}
	shared.WriteError(w, err)
}
