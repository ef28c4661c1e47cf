package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/vishwaraja/gmail-cli/internal/store"
)

type fakeExchanger struct {
	mu            sync.Mutex
	refreshCalls  int
	exchangeCalls int

	refreshErr     error
	refreshResult  *oauth2.Token
	exchangeErr    error
	exchangeResult *oauth2.Token

	lastState    string
	lastRedirect string
	lastCode     string
}

func (f *fakeExchanger) AuthCodeURL(state, redirectURL string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastState = state
	f.lastRedirect = redirectURL
	return "https://auth.example.com/consent?state=" + state
}

func (f *fakeExchanger) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	f.lastCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.exchangeResult != nil {
		return f.exchangeResult, nil
	}
	return &oauth2.Token{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeExchanger) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.refreshResult != nil {
		return f.refreshResult, nil
	}
	return &oauth2.Token{
		AccessToken: "refreshed-access",
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeExchanger) counts() (refresh, exchange int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.exchangeCalls
}

const testCredentials = `{"installed":{
	"client_id":"test-client",
	"client_secret":"test-secret",
	"auth_uri":"https://accounts.google.com/o/oauth2/auth",
	"token_uri":"https://oauth2.googleapis.com/token"}}`

func testAuthenticator(t *testing.T) (*Authenticator, *fakeExchanger, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(credPath, []byte(testCredentials), 0600); err != nil {
		t.Fatal(err)
	}
	st := store.New(credPath, filepath.Join(dir, "token.json"))

	a, err := New(st, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	fe := &fakeExchanger{}
	a.exch = fe
	a.openBrowser = nil
	a.flowTimeout = 5 * time.Second
	return a, fe, st
}

// completeCallback simulates the user finishing consent: it hits the
// loopback listener with the given query once the auth URL is issued.
func completeCallback(fe *fakeExchanger, query func(state string) string) func(string) error {
	return func(string) error {
		go func() {
			fe.mu.Lock()
			redirect := fe.lastRedirect
			state := fe.lastState
			fe.mu.Unlock()
			resp, err := http.Get(redirect + "?" + query(state))
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestStateOf(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tok  *store.Token
		want State
	}{
		{"no record", nil, StateNoToken},
		{
			"valid",
			&store.Token{AccessToken: "a", Expiry: now.Add(time.Hour)},
			StateValid,
		},
		{
			"expired with refresh token",
			&store.Token{AccessToken: "a", RefreshToken: "r", Expiry: now.Add(-time.Hour)},
			StateExpiredRefreshable,
		},
		{
			"expired without refresh token",
			&store.Token{AccessToken: "a", Expiry: now.Add(-time.Hour)},
			StateExpiredTerminal,
		},
		{
			"expiry equal to now counts as expired",
			&store.Token{AccessToken: "a", RefreshToken: "r", Expiry: now},
			StateExpiredRefreshable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateOf(tt.tok, now); got != tt.want {
				t.Errorf("StateOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureValidSession_ValidTokenNoNetwork(t *testing.T) {
	a, fe, st := testAuthenticator(t)

	if err := st.SaveToken(&store.Token{
		AccessToken: "current",
		Expiry:      time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	sess, err := a.EnsureValidSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureValidSession() error = %v", err)
	}
	if sess.Token().AccessToken != "current" {
		t.Errorf("AccessToken = %q, want current", sess.Token().AccessToken)
	}

	refresh, exchange := fe.counts()
	if refresh != 0 || exchange != 0 {
		t.Errorf("network calls = %d refresh, %d exchange; want none", refresh, exchange)
	}
}

func TestEnsureValidSession_SilentRefresh(t *testing.T) {
	a, fe, st := testAuthenticator(t)

	if err := st.SaveToken(&store.Token{
		AccessToken:  "stale",
		RefreshToken: "long-lived",
		Expiry:       time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	before := time.Now()
	sess, err := a.EnsureValidSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureValidSession() error = %v", err)
	}

	refresh, exchange := fe.counts()
	if refresh != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", refresh)
	}
	if exchange != 0 {
		t.Errorf("exchange calls = %d, want 0", exchange)
	}

	if sess.Token().AccessToken != "refreshed-access" {
		t.Errorf("AccessToken = %q, want refreshed-access", sess.Token().AccessToken)
	}
	// The provider omitted a refresh token in the response; the old one
	// must be retained.
	if sess.Token().RefreshToken != "long-lived" {
		t.Errorf("RefreshToken = %q, want long-lived", sess.Token().RefreshToken)
	}

	persisted, err := st.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if !persisted.Expiry.After(before) {
		t.Errorf("persisted expiry %v is not after %v", persisted.Expiry, before)
	}
	if persisted.AccessToken != "refreshed-access" {
		t.Errorf("persisted AccessToken = %q, want refreshed-access", persisted.AccessToken)
	}
}

func TestEnsureValidSession_RefreshKeepsGrantedScopes(t *testing.T) {
	a, _, st := testAuthenticator(t)

	// The record reflects a narrower grant than the configured scope set.
	granted := []string{"https://www.googleapis.com/auth/gmail.readonly"}
	if err := st.SaveToken(&store.Token{
		AccessToken:  "stale",
		RefreshToken: "long-lived",
		Expiry:       time.Now().Add(-time.Hour),
		Scopes:       granted,
	}); err != nil {
		t.Fatal(err)
	}

	// The fake's refresh response carries no scope extra, like a provider
	// that omits it; the persisted record must keep the granted set.
	if _, err := a.EnsureValidSession(context.Background()); err != nil {
		t.Fatalf("EnsureValidSession() error = %v", err)
	}

	persisted, err := st.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if len(persisted.Scopes) != 1 || persisted.Scopes[0] != granted[0] {
		t.Errorf("persisted Scopes = %v, want %v", persisted.Scopes, granted)
	}
}

func TestEnsureValidSession_RefreshFailureFallsBackToInteractive(t *testing.T) {
	a, fe, st := testAuthenticator(t)
	fe.refreshErr = fmt.Errorf("oauth2: %q", "invalid_grant")
	a.openBrowser = completeCallback(fe, func(state string) string {
		return "state=" + state + "&code=consent-code"
	})

	if err := st.SaveToken(&store.Token{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	sess, err := a.EnsureValidSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureValidSession() error = %v, want fallback to interactive", err)
	}

	refresh, exchange := fe.counts()
	if refresh != 1 || exchange != 1 {
		t.Errorf("calls = %d refresh, %d exchange; want 1 and 1", refresh, exchange)
	}
	if sess.Token().AccessToken != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", sess.Token().AccessToken)
	}
	if fe.lastCode != "consent-code" {
		t.Errorf("exchanged code = %q, want consent-code", fe.lastCode)
	}
}

func TestEnsureValidSession_NoTokenRunsInteractive(t *testing.T) {
	a, fe, st := testAuthenticator(t)
	a.openBrowser = completeCallback(fe, func(state string) string {
		return "state=" + state + "&code=first-code"
	})

	sess, err := a.EnsureValidSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureValidSession() error = %v", err)
	}
	if sess.Token().AccessToken != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", sess.Token().AccessToken)
	}

	// The token record must now exist on disk.
	persisted, err := st.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if persisted == nil {
		t.Fatal("no token record persisted after interactive authorization")
	}
	if persisted.RefreshToken != "new-refresh" {
		t.Errorf("persisted RefreshToken = %q, want new-refresh", persisted.RefreshToken)
	}
	if len(persisted.Scopes) == 0 {
		t.Error("persisted record has no scopes")
	}
}

func TestAuthorize_StateMismatch(t *testing.T) {
	a, fe, _ := testAuthenticator(t)
	a.openBrowser = completeCallback(fe, func(string) string {
		return "state=forged&code=evil"
	})

	_, err := a.EnsureValidSession(context.Background())
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("EnsureValidSession() error = %v, want *AuthenticationError", err)
	}

	_, exchange := fe.counts()
	if exchange != 0 {
		t.Errorf("exchange calls = %d, want 0 after state mismatch", exchange)
	}
}

func TestAuthorize_Declined(t *testing.T) {
	a, fe, _ := testAuthenticator(t)
	a.openBrowser = completeCallback(fe, func(state string) string {
		return "state=" + state + "&error=access_denied"
	})

	_, err := a.EnsureValidSession(context.Background())
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("EnsureValidSession() error = %v, want *AuthenticationError", err)
	}
}

func TestAuthorize_Timeout(t *testing.T) {
	a, _, _ := testAuthenticator(t)
	a.flowTimeout = 50 * time.Millisecond
	// Browser never completes the flow.
	a.openBrowser = func(string) error { return nil }

	_, err := a.EnsureValidSession(context.Background())
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("EnsureValidSession() error = %v, want *AuthenticationError", err)
	}
}

func TestAuthorize_ContextCancelled(t *testing.T) {
	a, _, _ := testAuthenticator(t)
	a.openBrowser = func(string) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.EnsureValidSession(ctx)
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("EnsureValidSession() error = %v, want *AuthenticationError", err)
	}
}

func TestRevoke_DeletesTokenAndNotifiesProvider(t *testing.T) {
	a, _, st := testAuthenticator(t)

	var revokeRequests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revokeRequests++
		if got := r.FormValue("token"); got != "long-lived" {
			t.Errorf("revoked token = %q, want long-lived", got)
		}
	}))
	defer srv.Close()
	a.revokeURL = srv.URL

	if err := st.SaveToken(&store.Token{
		AccessToken:  "current",
		RefreshToken: "long-lived",
		Expiry:       time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	if err := a.Revoke(context.Background()); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if revokeRequests != 1 {
		t.Errorf("revocation endpoint calls = %d, want 1", revokeRequests)
	}
	if _, err := os.Stat(st.TokenPath()); !os.IsNotExist(err) {
		t.Fatal("token file still exists after Revoke()")
	}

	// A subsequent EnsureValidSession starts from NO_TOKEN.
	tok, err := st.LoadToken()
	if err != nil || tok != nil {
		t.Fatalf("LoadToken() = %v, %v; want nil, nil", tok, err)
	}
}

func TestRevoke_IdempotentWithoutToken(t *testing.T) {
	a, _, st := testAuthenticator(t)
	a.revokeURL = "http://127.0.0.1:0/unreachable"

	if err := a.Revoke(context.Background()); err != nil {
		t.Fatalf("Revoke() with no token error = %v", err)
	}
	if _, err := os.Stat(st.TokenPath()); !os.IsNotExist(err) {
		t.Fatal("token file exists after Revoke() on empty state")
	}
}

func TestRevoke_DeletesMalformedToken(t *testing.T) {
	a, _, st := testAuthenticator(t)

	if err := os.WriteFile(st.TokenPath(), []byte("{corrupt"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := a.Revoke(context.Background()); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := os.Stat(st.TokenPath()); !os.IsNotExist(err) {
		t.Fatal("malformed token file still exists after Revoke()")
	}
}

func TestEnsureValidSession_MalformedTokenIsLocalStateError(t *testing.T) {
	a, _, st := testAuthenticator(t)

	if err := os.WriteFile(st.TokenPath(), []byte("{corrupt"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := a.EnsureValidSession(context.Background())
	var lsErr *store.LocalStateError
	if !errors.As(err, &lsErr) {
		t.Fatalf("EnsureValidSession() error = %v, want *store.LocalStateError", err)
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("state length = %d, want 32", len(a))
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	if a == b {
		t.Fatal("two generated states are identical")
	}
}
