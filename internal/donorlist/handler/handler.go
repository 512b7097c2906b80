// Package handler exposes the availability list.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	donormodels "lifelink/internal/donor/models"
	"lifelink/internal/donorlist/models"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/requestcontext"
)

type Service interface {
	ListAvailable(ctx context.Context) ([]*models.Entry, error)
	ListByBloodGroup(ctx context.Context, group donormodels.BloodGroup) ([]*models.Entry, error)
	SetAvailability(ctx context.Context, entryID string, isAvailable bool) (*models.Entry, error)
	Remove(ctx context.Context, entryID string) error
}

type Handler struct {
	list   Service
	logger *slog.Logger
}

func New(list Service, logger *slog.Logger) *Handler {
	return &Handler{list: list, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/donor-list", h.handleList)
	r.Get("/api/donor-list/blood-group/{bloodGroup}", h.handleListByBloodGroup)
	r.Patch("/api/donor-list/{entryID}/availability", h.handleSetAvailability)
	r.Delete("/api/donor-list/{entryID}", h.handleRemove)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.list.ListAvailable(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "list donors")
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleListByBloodGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	group := donormodels.BloodGroup(chi.URLParam(r, "bloodGroup"))
	entries, err := h.list.ListByBloodGroup(ctx, group)
	if err != nil {
		h.writeError(ctx, w, err, "list donors by blood group")
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

type setAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}

func (h *Handler) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsAvailable == nil {
		shared.WriteError(w, dErrors.WithDetails(dErrors.CodeValidation, "invalid request body",
			map[string]string{"isAvailable": "a boolean is required"}))
		return
	}

	entry, err := h.list.SetAvailability(ctx, chi.URLParam(r, "entryID"), *req.IsAvailable)
	if err != nil {
		h.writeError(ctx, w, err, "update availability")
		return
	}
	shared.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.list.Remove(ctx, chi.URLParam(r, "entryID")); err != nil {
		h.writeError(ctx, w, err, "remove donor list entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err, "request_id", requestcontext.RequestID(ctx))
	}
	shared.WriteError(w, err)
}
