package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig configures login through an external OpenID Connect provider
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether enough settings are present to build a provider
func (c OIDCConfig) Enabled() bool {
	return c.IssuerURL != "" && c.ClientID != ""
}

// OIDCClaims are the ID token claims used to map an external identity
type OIDCClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name"`
}

// OIDCProvider performs the authorization-code flow and maps verified ID
// tokens onto local accounts
type OIDCProvider struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	service      *Service
}

// NewOIDCProvider discovers the issuer and builds the verifier
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig, service *Service) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &OIDCProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		service: service,
	}, nil
}

// AuthCodeURL returns the provider login URL for state
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a verified identity and opens a
// local session for it. The local role is never taken from the provider.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*Session, string, *User, error) {
	if code == "" {
		return nil, "", nil, fmt.Errorf("%w: missing authorization code", ErrUnauthenticated)
	}

	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: failed to exchange code: %v", ErrUnauthenticated, err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: missing id_token in response", ErrUnauthenticated)
	}

	claims, err := p.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", nil, err
	}

	user, err := p.service.FindOrProvision(ctx, claims.Email, claims.Name)
	if err != nil {
		return nil, "", nil, err
	}

	session, token, err := p.service.OpenSession(ctx, user)
	if err != nil {
		return nil, "", nil, err
	}
	return session, token, user, nil
}

// Verify checks an ID token signature, issuer and audience and returns its claims
func (p *OIDCProvider) Verify(ctx context.Context, rawIDToken string) (*OIDCClaims, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to verify ID token: %v", ErrUnauthenticated, err)
	}

	var claims OIDCClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrUnauthenticated, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email in ID token", ErrUnauthenticated)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, fmt.Errorf("%w: email not verified", ErrUnauthenticated)
	}
	return &claims, nil
}
