package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"lifelink/pkg/requestcontext"
)

// Claims are what the token validator hands back for an authenticated donor.
type Claims struct {
	DonorID string
	JTI     string
}

// TokenValidator checks a bearer token and extracts its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type contextKeyDonorID struct{}

// GetDonorID retrieves the authenticated donor id from the context, or ""
// when the request was not authenticated.
func GetDonorID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyDonorID{}).(string)
	return id
}

// WithDonorID injects an authenticated donor id. Used by handler tests that
// bypass the middleware chain.
func WithDonorID(ctx context.Context, donorID string) context.Context {
	return context.WithValue(ctx, contextKeyDonorID{}, donorID)
}

func writeJSONError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"message":%q}`, code, desc))
}

// RequireAuth rejects requests without a valid Bearer token and stores the
// donor id in the context for handlers.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Not authorized, no token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyDonorID{}, claims.DonorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
