package testutil

import (
	"net/http"

	"lifelink/internal/platform/middleware"
)

// WithDonor marks the request as authenticated for the given donor,
// simulating what the auth middleware does.
func WithDonor(req *http.Request, donorID string) *http.Request {
	return req.WithContext(middleware.WithDonorID(req.Context(), donorID))
}
