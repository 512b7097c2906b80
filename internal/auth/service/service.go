// Package service handles donor registration and login.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lifelink/internal/donor/models"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/audit"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

// Registration accepts donors up to 65; the donation eligibility rules apply
// their own, stricter age band.
const (
	minRegistrationAge = 18
	maxRegistrationAge = 65
	minPasswordLength  = 6
)

type DonorStore interface {
	Create(ctx context.Context, donor *models.Donor) error
	GetByEmail(ctx context.Context, email string) (*models.Donor, error)
}

type TokenIssuer interface {
	Issue(donorID string, now time.Time) (string, error)
}

type Service struct {
	donors DonorStore
	tokens TokenIssuer
	logger *slog.Logger
	audit  *audit.Publisher
}

func New(donors DonorStore, tokens TokenIssuer, logger *slog.Logger, auditor *audit.Publisher) *Service {
	return &Service{donors: donors, tokens: tokens, logger: logger, audit: auditor}
}

type RegisterInput struct {
	FullName     string
	Age          int
	Gender       models.Gender
	BloodGroup   models.BloodGroup
	MobileNumber string
	Email        string
	Password     string
	Location     models.Location
}

// AuthResult is a donor plus the bearer token issued for them.
type AuthResult struct {
	Donor *models.Donor
	Token string
}

// Register creates a donor account. New donors start eligible but not listed;
// they join the availability list by confirming when they last donated.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	now := requestcontext.Now(ctx)
	donor := &models.Donor{
		ID:            uuid.NewString(),
		FullName:      strings.TrimSpace(in.FullName),
		Age:           in.Age,
		Gender:        in.Gender,
		BloodGroup:    in.BloodGroup,
		MobileNumber:  strings.TrimSpace(in.MobileNumber),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:  string(hash),
		Location:      in.Location,
		IsEligible:    true,
		IsInDonorList: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.donors.Create(ctx, donor); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "donor already exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create donor", err)
	}

	token, err := s.tokens.Issue(donor.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Timestamp: now,
			DonorID:   donor.ID,
			Action:    string(audit.EventDonorRegistered),
			Subject:   string(donor.BloodGroup),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	s.logger.InfoContext(ctx, "donor registered",
		"donor_id", donor.ID, "blood_group", donor.BloodGroup)
	return &AuthResult{Donor: donor, Token: token}, nil
}

func validateRegister(in RegisterInput) error {
	details := map[string]string{}
	if strings.TrimSpace(in.FullName) == "" {
		details["fullName"] = "full name is required"
	}
	if in.Age < minRegistrationAge || in.Age > maxRegistrationAge {
		details["age"] = "age must be between 18 and 65"
	}
	if !in.Gender.Valid() {
		details["gender"] = "must be one of Male, Female, Other"
	}
	if !in.BloodGroup.Valid() {
		details["bloodGroup"] = "must be one of A+, A-, B+, B-, AB+, AB-, O+, O-"
	}
	if strings.TrimSpace(in.MobileNumber) == "" {
		details["mobileNumber"] = "mobile number is required"
	}
	if !govalidator.IsEmail(in.Email) {
		details["email"] = "a valid email address is required"
	}
	if len(in.Password) < minPasswordLength {
		details["password"] = "password must be at least 6 characters"
	}
	if !in.Location.HasCoordinates() {
		details["location"] = "location with valid latitude and longitude is required"
	}
	if len(details) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "invalid registration", details)
	}
	return nil
}

// Login verifies credentials. Unknown email and wrong password fail the same
// way so the response does not reveal which was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	donor, err := s.donors.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.auditLoginFailure(ctx, email, "unknown email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load donor", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(donor.PasswordHash), []byte(password)); err != nil {
		s.auditLoginFailure(ctx, email, "wrong password")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.Issue(donor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	s.logger.InfoContext(ctx, "donor logged in", "donor_id", donor.ID)
	return &AuthResult{Donor: donor, Token: token}, nil
}

func (s *Service) auditLoginFailure(ctx context.Context, email, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(audit.EventLoginFailed),
		Subject:   email,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}
