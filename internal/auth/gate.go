package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quiz-engine/internal/domain"
)

// UserDirectory is the part of the user service the gate consults.
type UserDirectory interface {
	VerifyCredentials(ctx context.Context, email, password string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
}

// Credentials is what a request presented. Exactly one of Basic or Bearer is set.
type Credentials struct {
	Email    string
	Password string
	Bearer   string
}

func (c Credentials) empty() bool {
	return c.Email == "" && c.Password == "" && c.Bearer == ""
}

// Gate authenticates each request independently.
type Gate struct {
	users  UserDirectory
	tokens *TokenIssuer
}

// NewGate builds a gate; tokens may be nil to accept basic credentials only.
func NewGate(users UserDirectory, tokens *TokenIssuer) *Gate {
	return &Gate{users: users, tokens: tokens}
}

// Authenticate resolves the caller or returns domain.ErrAuthenticationFailed.
func (g *Gate) Authenticate(ctx context.Context, creds Credentials) (domain.User, error) {
	if creds.empty() {
		return domain.User{}, domain.ErrAuthenticationFailed
	}
	if creds.Bearer != "" {
		return g.authenticateBearer(ctx, creds.Bearer)
	}
	return g.users.VerifyCredentials(ctx, creds.Email, creds.Password)
}

func (g *Gate) authenticateBearer(ctx context.Context, raw string) (domain.User, error) {
	if g.tokens == nil {
		return domain.User{}, domain.ErrAuthenticationFailed
	}
	email, err := g.tokens.Parse(raw)
	if err != nil {
		return domain.User{}, domain.ErrAuthenticationFailed
	}
	user, ok, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("find token subject: %w", err)
	}
	if !ok {
		return domain.User{}, domain.ErrAuthenticationFailed
	}
	return user, nil
}

// IssueToken mints a bearer token for an already authenticated user.
func (g *Gate) IssueToken(user domain.User) (string, error) {
	if g.tokens == nil {
		return "", errors.New("token issuing disabled")
	}
	return g.tokens.Issue(user.Email)
}

// Tokens exposes the issuer, nil when bearer tokens are disabled.
func (g *Gate) Tokens() *TokenIssuer { return g.tokens }

// CredentialsFromRequest reads an Authorization header of either scheme.
func CredentialsFromRequest(r *http.Request) Credentials {
	if email, password, ok := r.BasicAuth(); ok {
		return Credentials{Email: email, Password: password}
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return Credentials{Bearer: strings.TrimSpace(h[7:])}
	}
	return Credentials{}
}
