package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	defaultCallbackAddr = "localhost:8089"
	authTimeout         = 5 * time.Minute
)

// OAuth2Config holds OAuth2 configuration.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	// TokenFile is where the token is cached between runs.
	TokenFile string
	// CallbackAddr is the local address receiving the redirect.
	CallbackAddr string
}

func newOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

type callbackResult struct {
	err  error
	code string
}

// callbackHandler accepts exactly one redirect carrying the expected state.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("state mismatch in OAuth2 callback")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("no authorization code received")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, "Authentication failed. Return to the terminal for details.", http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprint(w, "Authentication successful. You can close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
	return mux
}

// AuthenticateOAuth2Interactive runs the browser consent flow and returns a
// token with a refresh token.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	addr := config.CallbackAddr
	if addr == "" {
		addr = defaultCallbackAddr
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = server.Serve(listener) }()
	defer func() { _ = server.Shutdown(context.Background()) }()

	oauthConfig := newOAuthConfig(config.ClientID, config.ClientSecret, "http://"+addr+"/callback")
	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	slog.Info("Google Sheets authentication required")
	slog.Info("Open this URL to authenticate", "url", authURL)

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authentication timed out after %s", authTimeout)
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := oauthConfig.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, token); err != nil {
			slog.Warn("Failed to save token", "error", err, "file", config.TokenFile)
		} else {
			slog.Info("Token saved", "file", config.TokenFile)
		}
	}
	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// GetOrCreateToken returns the cached token, refreshed if needed, or runs
// the interactive flow when there is none.
func GetOrCreateToken(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err == nil {
			if token.Valid() {
				return token, nil
			}
			refreshed, err := newOAuthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token).Token()
			if err != nil {
				return nil, fmt.Errorf("failed to refresh token: %w", err)
			}
			if err := saveToken(config.TokenFile, refreshed); err != nil {
				slog.Warn("Failed to save refreshed token", "error", err)
			}
			return refreshed, nil
		}
		slog.Info("No cached token found, starting OAuth2 flow")
	}

	return AuthenticateOAuth2Interactive(ctx, config)
}
