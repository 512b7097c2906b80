// Package handler exposes registration and login over HTTP. These are the
// only unauthenticated API routes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/auth/service"
	"lifelink/internal/donor/models"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
}

type registerRequest struct {
	FullName     string          `json:"fullName"`
	Age          int             `json:"age"`
	Gender       string          `json:"gender"`
	BloodGroup   string          `json:"bloodGroup"`
	MobileNumber string          `json:"mobileNumber"`
	Email        string          `json:"email"`
	Password     string          `json:"password"`
	Location     models.Location `json:"location"`
}

type registerResponse struct {
	ID            string `json:"_id"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	BloodGroup    string `json:"bloodGroup"`
	IsEligible    bool   `json:"isEligible"`
	IsInDonorList bool   `json:"isInDonorList"`
	Token         string `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	res, err := h.auth.Register(ctx, service.RegisterInput{
		FullName:     req.FullName,
		Age:          req.Age,
		Gender:       models.Gender(req.Gender),
		BloodGroup:   models.BloodGroup(req.BloodGroup),
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
		Password:     req.Password,
		Location:     req.Location,
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "registration failed",
				"error", err, "request_id", requestcontext.RequestID(ctx))
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, registerResponse{
		ID:            res.Donor.ID,
		FullName:      res.Donor.FullName,
		Email:         res.Donor.Email,
		BloodGroup:    string(res.Donor.BloodGroup),
		IsEligible:    res.Donor.IsEligible,
		IsInDonorList: res.Donor.IsInDonorList,
		Token:         res.Token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the donor profile plus the token, the shape the donor
// dashboard bootstraps from.
type loginResponse struct {
	*models.Donor
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "login failed",
				"error", err, "request_id", requestcontext.RequestID(ctx))
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, loginResponse{Donor: res.Donor, Token: res.Token})
}
