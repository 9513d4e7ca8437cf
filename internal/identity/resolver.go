package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/logging"
	"github.com/example/classroom-scheduler/internal/persistence"
)

// UserStore loads accounts by id.
type UserStore interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
}

// Resolver turns bearer tokens into principals.
type Resolver struct {
	users  UserStore
	cache  *principalCache
	logger *slog.Logger
}

// NewResolver creates a resolver. A cacheTTL of zero or less disables caching.
func NewResolver(users UserStore, cacheTTL time.Duration, logger *slog.Logger) *Resolver {
	r := &Resolver{users: users, logger: logger}
	if cacheTTL > 0 {
		r.cache = newPrincipalCache(cacheTTL, 0, nil)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// ResolveCaller verifies credential and returns the principal it belongs to.
// Every rejection is reported as application.ErrUnauthenticated; storage
// failures are returned wrapped.
func (r *Resolver) ResolveCaller(ctx context.Context, credential string) (application.Principal, error) {
	if principal, ok := r.cache.Get(credential); ok {
		return principal, nil
	}

	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = r.logger
	}

	userID, secret, err := ParseToken(credential)
	if err != nil {
		return application.Principal{}, application.ErrUnauthenticated
	}

	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.WarnContext(ctx, "credential for unknown user", "user_id", userID)
			return application.Principal{}, application.ErrUnauthenticated
		}
		return application.Principal{}, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	if user.TokenHash == "" {
		return application.Principal{}, application.ErrUnauthenticated
	}
	if err := VerifySecret(user.TokenHash, secret); err != nil {
		logger.WarnContext(ctx, "credential rejected", "user_id", userID, "error", err)
		return application.Principal{}, application.ErrUnauthenticated
	}

	principal := application.Principal{UserID: user.ID, Role: application.Role(user.Role)}
	if !principal.Role.Valid() {
		return application.Principal{}, application.ErrUnauthenticated
	}

	r.cache.Store(credential, principal)
	return principal, nil
}
