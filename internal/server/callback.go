package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// CallbackResult contains the outcome of an authorization redirect.
type CallbackResult struct {
	RedirectURL string
	err         error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler captures the OAuth2 authorization redirect.
// Implements the Handler interface for registration with a Router.
type CallbackHandler struct {
	state       string
	path        string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a new callback handler serving the given path.
// The state token should be cryptographically random for CSRF protection.
func NewCallbackHandler(path, state string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		state:      state,
		path:       path,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the authorization redirect.
//
// Validates the state parameter and sends the full redirect URL through the result channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if state := query.Get("state"); state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(CallbackResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if query.Get("code") == "" {
		errParam := query.Get("error")
		errDesc := query.Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{RedirectURL: r.URL.String()})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving the captured redirect.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// CaptureRedirect serves the redirect URI until the provider calls back,
// returning the full redirect URL.
//
// The listen address and callback path are derived from redirectURI. The
// server shuts down once a callback arrives or ctx is cancelled.
func CaptureRedirect(ctx context.Context, redirectURI, state string, logger *log.Logger) (string, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI: %w", err)
	}

	handler := NewCallbackHandler(parsed.Path, state)

	router := NewBasicRouter()
	if logger != nil {
		router.Use(RequestLogger(logger))
	}
	router.Handler(handler)

	srv := &http.Server{
		Addr:    parsed.Host,
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.RedirectURL, nil
	case err := <-errChan:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
