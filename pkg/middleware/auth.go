package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/Abdallah85/Collaborative-Notes-App/pkg/errors"
	"github.com/Abdallah85/Collaborative-Notes-App/pkg/httputil"
	"github.com/Abdallah85/Collaborative-Notes-App/pkg/logger"
)

type contextKeyType string

const identityKey contextKeyType = "identity"

// Identity is the authenticated user attached to the request context.
// It is resolved from the live user record, not just the token claims,
// so role changes and deletions take effect on the next request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionResolver resolves a bearer token into an authenticated identity.
// The auth service injects its ResolveSession here.
type SessionResolver func(ctx context.Context, token string) (*Identity, error)

// Authenticate validates the Authorization header and attaches the resolved
// identity to the request context. Resolution failures are written with
// their own error kind so an expired token is distinguishable from an
// invalid one.
func Authenticate(resolve SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeGuardError(w, apperrors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeGuardError(w, apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			identity, err := resolve(r.Context(), parts[1])
			if err != nil {
				var appErr *apperrors.AppError
				if !errors.As(err, &appErr) {
					appErr = apperrors.Unauthorized("invalid or expired token")
				}
				writeGuardError(w, appErr)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = logger.WithUserID(ctx, identity.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole checks that the authenticated identity has one of the allowed
// roles. It must be mounted after Authenticate. An absent identity is a 401;
// an authenticated identity with the wrong role is a 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeGuardError(w, apperrors.Unauthorized("user not authenticated"))
				return
			}

			if _, allowed := roleSet[identity.Role]; !allowed {
				writeGuardError(w, apperrors.Forbidden("you do not have permission to perform this action"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. Intended for
// tests and internal handlers that bypass the Authenticate middleware.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func writeGuardError(w http.ResponseWriter, appErr *apperrors.AppError) {
	httputil.WriteJSON(w, appErr.Status, httputil.Response{
		Error: &httputil.ErrorResponse{Code: appErr.Code, Message: appErr.Message},
	})
}
