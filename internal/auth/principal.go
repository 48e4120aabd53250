// Package auth resolves the caller identity for every authenticated request.
// Identity is a pure function of the credential presented with the request:
// HTTP basic credentials checked against the user directory, or a signed
// bearer token minted by TokenIssuer. No session state is kept.
package auth

import (
	"context"

	"quiz-engine/internal/domain"
)

// Principal is what the gate knows about an authenticated caller.
type Principal interface {
	Identifier() string
	CredentialHash() string
	Authority() string
}

var _ Principal = domain.User{}

type ctxKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(domain.User)
	return user, ok
}
