package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// KakaoPurpose selects which configured redirect URI a flow uses.
type KakaoPurpose int

const (
	KakaoSignUp KakaoPurpose = iota
	KakaoSignIn
)

func (p KakaoPurpose) String() string {
	if p == KakaoSignIn {
		return "sign_in"
	}
	return "sign_up"
}

const maxProfileBytes = 1 << 20

// KakaoToken is the token endpoint answer. Only AccessToken is interpreted;
// the rest is passed through.
type KakaoToken struct {
	AccessToken           string
	TokenType             string
	RefreshToken          string
	Expiry                time.Time
	Scope                 string
	RefreshTokenExpiresIn int64
}

type kakaoTokenError struct {
	ErrorCode string `json:"error_code"`
}

type kakaoProfile struct {
	ID           int64 `json:"id"`
	KakaoAccount *struct {
		Email *string `json:"email"`
	} `json:"kakao_account"`

	// set on API errors
	Code *int   `json:"code"`
	Msg  string `json:"msg"`
}

// KakaoClient runs the three independent legs of the Kakao login. Nothing is
// retried; each leg reports a typed error and the caller decides.
type KakaoClient struct {
	cfg        config.KakaoConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewKakaoClient(cfg config.KakaoConfig) *KakaoClient {
	return &KakaoClient{
		cfg:        cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: jsonBodyTransport{base: http.DefaultTransport},
		},
		now:        time.Now,
	}
}

func (c *KakaoClient) oauthConfig(purpose KakaoPurpose) (*oauth2.Config, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	redirectURI := c.cfg.SignUpRedirectURI
	if purpose == KakaoSignIn {
		redirectURI = c.cfg.RedirectURI
	}

	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.cfg.Host + "/oauth/authorize",
			TokenURL:  c.cfg.Host + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// requestContext bounds a provider call by the configured timeout and makes
// oauth2 use our HTTP client.
func (c *KakaoClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), cancel
}

// BuildAuthorizationRedirect returns the provider authorize URL. It does no I/O.
func (c *KakaoClient) BuildAuthorizationRedirect(purpose KakaoPurpose) (string, error) {
	conf, err := c.oauthConfig(purpose)
	if err != nil {
		return "", err
	}

	var state string
	if c.cfg.StateSecret != "" {
		state, err = c.issueState(purpose)
		if err != nil {
			return "", fmt.Errorf("failed to sign oauth state: %w", err)
		}
	}
	return conf.AuthCodeURL(state), nil
}

// ExchangeCodeForToken trades an authorization code for an access token.
// state is checked only when a state secret is configured.
func (c *KakaoClient) ExchangeCodeForToken(ctx context.Context, code, state string, purpose KakaoPurpose) (token *KakaoToken, err error) {
	start := time.Now()
	defer func() { observeProvider("token", start, err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, malformed("code is required")
	}

	conf, err := c.oauthConfig(purpose)
	if err != nil {
		return nil, err
	}

	if c.cfg.StateSecret != "" {
		if err := c.verifyState(state, purpose); err != nil {
			return nil, malformed("%v", err)
		}
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			rejected := &ProviderRejectedError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
			var body kakaoTokenError
			if json.Unmarshal(retrieveErr.Body, &body) == nil {
				rejected.ProviderCode = body.ErrorCode
			}
			return nil, rejected
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	token = &KakaoToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		token.Scope = scope
	}
	if ttl, ok := tok.Extra("refresh_token_expires_in").(float64); ok {
		token.RefreshTokenExpiresIn = int64(ttl)
	}
	return token, nil
}

// FetchProfileEmail reads kakao_account.email from the user profile.
func (c *KakaoClient) FetchProfileEmail(ctx context.Context, accessToken string) (email string, err error) {
	start := time.Now()
	defer func() { observeProvider("profile", start, err) }()

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", malformed("access_token is required")
	}

	conf, err := c.oauthConfig(KakaoSignUp)
	if err != nil {
		return "", err
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	client := conf.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIHost+"/v2/user/me", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read profile: %v", ErrProviderUnavailable, err)
	}

	var profile kakaoProfile
	decodeErr := json.Unmarshal(body, &profile)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && profile.Code != nil {
			return "", &ProviderRejectedError{
				Code:        strconv.Itoa(*profile.Code),
				Description: profile.Msg,
			}
		}
		return "", fmt.Errorf("%w: profile endpoint returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: failed to decode profile: %v", ErrProviderUnavailable, decodeErr)
	}

	if profile.KakaoAccount == nil || profile.KakaoAccount.Email == nil || *profile.KakaoAccount.Email == "" {
		slog.WarnContext(ctx, "kakao profile has no email", "kakao_id", profile.ID)
		return "", ErrProfileFieldMissing
	}
	return *profile.KakaoAccount.Email, nil
}

func observeProvider(step string, start time.Time, err error) {
	metrics.ProviderDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	metrics.ProviderRequests.WithLabelValues(step, Outcome(err)).Inc()
}
