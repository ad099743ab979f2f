package chi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
	"github.com/kailas-cloud/moviemaster/internal/logger"
)

type identityKey struct{}

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, id domuser.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity placed by BearerAuthMiddleware.
func IdentityFromContext(ctx context.Context) (domuser.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domuser.Identity)
	return id, ok
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens with verifier
// and stores the resulting identity in the request context.
func BearerAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			id, err := verifier.Verify(strings.TrimSpace(auth[len(bearerPrefix):]))
			if err != nil {
				logger.FromContext(r.Context()).Debug("token rejected", zap.Error(err))
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired token")
				return
			}

			ctx := ContextWithIdentity(r.Context(), id)
			ctx = logger.With(ctx, zap.String("user_id", id.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
