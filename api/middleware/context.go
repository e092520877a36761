package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
)

type contextKey string

const ctxActorID contextKey = "actor_user_id"

// ActorFromContext returns the user authenticated by a bearer token, if any.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxActorID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithActor injects the authenticated user into the context.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, userID)
}

// ResolveActor picks the acting user for a request. A token identity wins and
// must match claimed when both are present; without a token the claimed id
// from the request is trusted.
func ResolveActor(ctx context.Context, claimed uuid.UUID) (uuid.UUID, error) {
	if actor, ok := ActorFromContext(ctx); ok {
		if claimed != uuid.Nil && claimed != actor {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "user id does not match the authenticated user")
		}
		return actor, nil
	}
	if claimed == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required").
			WithDetails(map[string]string{"user_id": "is required"})
	}
	return claimed, nil
}

// RequireParticipant rejects an authenticated actor that is neither a nor b.
func RequireParticipant(ctx context.Context, a, b uuid.UUID) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor == a || actor == b {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a participant")
}
