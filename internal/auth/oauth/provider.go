// Package oauth runs the authorization code flow against an external
// provider. Token exchange is delegated to golang.org/x/oauth2.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

const (
	ProviderGoogle = "google"

	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// Provider is a Google OAuth client.
type Provider struct {
	conf        *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}

	return &Provider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     cfg.Endpoint,
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

func (p *Provider) Name() string {
	return ProviderGoogle
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades an authorization code for tokens and fetches the profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("user info: status %d: %s", resp.StatusCode, body)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("user info: missing subject")
	}

	profile := &domain.OAuthProfile{
		Provider:          ProviderGoogle,
		ProviderAccountID: info.Sub,
		Email:             info.Email,
		EmailVerified:     info.EmailVerified,
		Name:              info.Name,
		Image:             info.Picture,
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		TokenType:         tok.TokenType,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		profile.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		profile.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC().Truncate(time.Second)
		profile.ExpiresAt = &exp
	}
	return profile, nil
}
