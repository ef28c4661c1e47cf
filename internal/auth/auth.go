// Package auth manages the OAuth2 token lifecycle: interactive
// authorization, silent refresh, persistence, and revocation.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vishwaraja/gmail-cli/internal/store"
)

// Scopes requested during interactive authorization.
var Scopes = []string{
	gmailapi.GmailReadonlyScope,
	gmailapi.GmailSendScope,
	gmailapi.GmailModifyScope,
	gmailapi.GmailComposeScope,
}

const revokeEndpoint = "https://oauth2.googleapis.com/revoke"

// State describes the persisted token record at process start.
type State int

const (
	StateNoToken State = iota
	StateValid
	StateExpiredRefreshable
	StateExpiredTerminal
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "NO_TOKEN"
	case StateValid:
		return "VALID"
	case StateExpiredRefreshable:
		return "EXPIRED_REFRESHABLE"
	case StateExpiredTerminal:
		return "EXPIRED_TERMINAL"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateOf derives the lifecycle state from a token record.
func StateOf(tok *store.Token, now time.Time) State {
	switch {
	case tok == nil:
		return StateNoToken
	case now.Before(tok.Expiry):
		return StateValid
	case tok.RefreshToken != "":
		return StateExpiredRefreshable
	default:
		return StateExpiredTerminal
	}
}

// exchanger is the seam between the authenticator and the provider's token
// endpoint, so tests can drive every transition without a browser.
type exchanger interface {
	AuthCodeURL(state, redirectURL string) string
	Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type oauthExchanger struct {
	cfg *oauth2.Config
}

func (e *oauthExchanger) withRedirect(redirectURL string) *oauth2.Config {
	cfg := *e.cfg
	cfg.RedirectURL = redirectURL
	return &cfg
}

func (e *oauthExchanger) AuthCodeURL(state, redirectURL string) string {
	return e.withRedirect(redirectURL).AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (e *oauthExchanger) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Token, error) {
	return e.withRedirect(redirectURL).Exchange(ctx, code)
}

func (e *oauthExchanger) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return e.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

// Authenticator owns the persisted token record and drives it to a valid
// session. One per process.
type Authenticator struct {
	store *store.Store
	cfg   *oauth2.Config
	log   *zap.Logger

	exch        exchanger
	openBrowser func(url string) error
	now         func() time.Time
	listenAddr  string
	flowTimeout time.Duration
	httpClient  *http.Client
	revokeURL   string
}

// New loads the client descriptor and builds an authenticator. The
// descriptor's endpoints take precedence over the provider defaults.
func New(st *store.Store, log *zap.Logger) (*Authenticator, error) {
	creds, err := st.LoadCredentials()
	if err != nil {
		return nil, err
	}

	endpoint := google.Endpoint
	if creds.AuthURI != "" && creds.TokenURI != "" {
		endpoint = oauth2.Endpoint{AuthURL: creds.AuthURI, TokenURL: creds.TokenURI}
	}

	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}

	a := &Authenticator{
		store:       st,
		cfg:         cfg,
		log:         log,
		exch:        &oauthExchanger{cfg: cfg},
		openBrowser: launchBrowser,
		now:         time.Now,
		listenAddr:  "127.0.0.1:0",
		flowTimeout: 5 * time.Minute,
		httpClient:  http.DefaultClient,
		revokeURL:   revokeEndpoint,
	}
	return a, nil
}

// Session attaches a valid access token to outgoing requests.
type Session struct {
	cfg   *oauth2.Config
	token *store.Token
}

// Client returns an HTTP client that injects the access token.
func (s *Session) Client(ctx context.Context) *http.Client {
	return s.cfg.Client(ctx, &oauth2.Token{
		AccessToken:  s.token.AccessToken,
		RefreshToken: s.token.RefreshToken,
		Expiry:       s.token.Expiry,
	})
}

// Service builds a Gmail API service from the session.
func (s *Session) Service(ctx context.Context) (*gmailapi.Service, error) {
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(s.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// Token returns the record backing the session.
func (s *Session) Token() *store.Token { return s.token }

// EnsureValidSession drives the token record to a valid state, refreshing
// silently or running the interactive flow as needed, and returns a session.
// A valid on-disk record produces no network calls.
func (a *Authenticator) EnsureValidSession(ctx context.Context) (*Session, error) {
	tok, err := a.store.LoadToken()
	if err != nil {
		return nil, err
	}

	st := StateOf(tok, a.now())
	a.log.Debug("token state", zap.Stringer("state", st))

	switch st {
	case StateValid:
		return &Session{cfg: a.cfg, token: tok}, nil

	case StateExpiredRefreshable:
		refreshed, err := a.refresh(ctx, tok)
		if err == nil {
			return &Session{cfg: a.cfg, token: refreshed}, nil
		}
		// Refresh token revoked or invalid: drop to NO_TOKEN and go
		// interactive rather than failing.
		a.log.Warn("silent refresh failed, falling back to interactive authorization",
			zap.Error(err))
		fallthrough

	default:
		tok, err := a.authorize(ctx)
		if err != nil {
			return nil, err
		}
		return &Session{cfg: a.cfg, token: tok}, nil
	}
}

// refresh performs exactly one refresh exchange and persists the result.
func (a *Authenticator) refresh(ctx context.Context, old *store.Token) (*store.Token, error) {
	newTok, err := a.exch.Refresh(ctx, old.RefreshToken)
	if err != nil {
		return nil, &TokenRefreshError{Err: err}
	}

	tok := a.recordFrom(newTok, old)
	if err := a.store.SaveToken(tok); err != nil {
		return nil, err
	}
	a.log.Info("access token refreshed", zap.Time("expiry", tok.Expiry))
	return tok, nil
}

// recordFrom converts a provider token into a persistable record. Refresh
// responses may omit the refresh token and the granted scopes; carry both
// over from the previous record rather than inventing them.
func (a *Authenticator) recordFrom(t *oauth2.Token, prev *store.Token) *store.Token {
	rec := &store.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
		Scopes:       a.cfg.Scopes,
	}
	if prev != nil {
		if rec.RefreshToken == "" {
			rec.RefreshToken = prev.RefreshToken
		}
		if len(prev.Scopes) > 0 {
			rec.Scopes = prev.Scopes
		}
	}
	if scope, ok := t.Extra("scope").(string); ok && scope != "" {
		rec.Scopes = strings.Fields(scope)
	}
	return rec
}

// Revoke notifies the provider's revocation endpoint (best effort) and
// deletes the persisted record. Safe to call in any state; deleting an
// absent record is a no-op.
func (a *Authenticator) Revoke(ctx context.Context) error {
	tok, err := a.store.LoadToken()
	if err != nil {
		// A malformed record still gets deleted.
		a.log.Warn("token record unreadable, deleting anyway", zap.Error(err))
	}

	if tok != nil {
		if err := a.revokeRemote(ctx, tok); err != nil {
			a.log.Warn("provider revocation failed", zap.Error(err))
		}
	}

	return a.store.DeleteToken()
}

func (a *Authenticator) revokeRemote(ctx context.Context, tok *store.Token) error {
	credential := tok.RefreshToken
	if credential == "" {
		credential = tok.AccessToken
	}

	form := url.Values{"token": {credential}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation endpoint returned %s", resp.Status)
	}
	return nil
}
