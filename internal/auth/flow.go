package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/vishwaraja/gmail-cli/internal/store"
)

// GenerateState returns a random hex state parameter for the consent URL.
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// authorize runs the interactive flow: start a loopback listener on an
// ephemeral port, direct the user to the consent page, exchange the
// returned code, and persist the new record.
func (a *Authenticator) authorize(ctx context.Context) (*store.Token, error) {
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", a.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	redirectURL := fmt.Sprintf("http://%s/callback", ln.Addr().String())

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	sendErr := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	mux := http.NewServeMux()
	server := &http.Server{Handler: mux}

	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errCode := r.URL.Query().Get("error"); errCode != "" {
			sendErr(&AuthenticationError{Reason: "provider returned " + errCode})
			http.Error(w, "Error: authorization denied", http.StatusBadRequest)
			return
		}

		if got := r.URL.Query().Get("state"); got != state {
			sendErr(&AuthenticationError{Reason: "state mismatch in callback"})
			http.Error(w, "Error: invalid state", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			sendErr(&AuthenticationError{Reason: "no authorization code in callback"})
			http.Error(w, "Error: no code received", http.StatusBadRequest)
			return
		}

		select {
		case codeChan <- code:
		default:
		}

		_, _ = fmt.Fprint(w, "Authorization successful! You can close this window.")
	})

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := a.exch.AuthCodeURL(state, redirectURL)
	a.log.Info("waiting for authorization",
		zap.String("url", authURL),
		zap.String("redirect", redirectURL))
	fmt.Printf("Open the following URL in your browser to authorize:\n\n  %s\n\n", authURL)

	if a.openBrowser != nil {
		if err := a.openBrowser(authURL); err != nil {
			a.log.Debug("could not launch browser", zap.Error(err))
		}
	}

	timeout := time.NewTimer(a.flowTimeout)
	defer timeout.Stop()

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		var authErr *AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &AuthenticationError{Reason: "callback listener failed", Err: err}
	case <-timeout.C:
		return nil, &AuthenticationError{Reason: "timed out waiting for authorization"}
	case <-ctx.Done():
		return nil, &AuthenticationError{Reason: "authorization cancelled", Err: ctx.Err()}
	}

	oauthTok, err := a.exch.Exchange(ctx, code, redirectURL)
	if err != nil {
		return nil, &AuthenticationError{Reason: "code exchange failed", Err: err}
	}

	tok := a.recordFrom(oauthTok, nil)
	if err := a.store.SaveToken(tok); err != nil {
		return nil, err
	}

	a.log.Info("authorization complete", zap.Time("expiry", tok.Expiry))
	return tok, nil
}

// launchBrowser opens the default browser at url. Failures are non-fatal;
// the URL is always printed as well.
func launchBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
