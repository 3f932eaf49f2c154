package context

import (
	"context"

	"condowater/infrastructure/backend"
	"condowater/infrastructure/session"
	"condowater/models"
)

type sessionKey struct{}

type backendKey struct{}

type tokensKey struct{}

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// NewContextWithBackend stores the backend client bound to the request's
// token session.
func NewContextWithBackend(ctx context.Context, client *backend.Client, tokens *session.TokenSession) context.Context {
	ctx = context.WithValue(ctx, backendKey{}, client)
	return context.WithValue(ctx, tokensKey{}, tokens)
}

func GetBackendFromContext(ctx context.Context) (*backend.Client, bool) {
	c, ok := ctx.Value(backendKey{}).(*backend.Client)
	return c, ok && c != nil
}

func GetTokensFromContext(ctx context.Context) (*session.TokenSession, bool) {
	ts, ok := ctx.Value(tokensKey{}).(*session.TokenSession)
	return ts, ok && ts != nil
}
