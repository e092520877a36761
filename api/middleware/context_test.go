package middleware

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
)

func TestResolveActor(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()
	authed := WithActor(context.Background(), actor)

	got, err := ResolveActor(authed, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, actor, got)

	got, err = ResolveActor(authed, actor)
	require.NoError(t, err)
	assert.Equal(t, actor, got)

	_, err = ResolveActor(authed, other)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	got, err = ResolveActor(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, other, got)

	_, err = ResolveActor(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRequireParticipant(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.NoError(t, RequireParticipant(context.Background(), a, b))
	assert.NoError(t, RequireParticipant(WithActor(context.Background(), b), a, b))
	err := RequireParticipant(WithActor(context.Background(), uuid.New()), a, b)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
