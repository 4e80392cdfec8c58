package auth

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// CallbackServer receives the authorization redirect on the loopback
// address of the redirect URI.
type CallbackServer struct {
	// Out receives the authorization URL and status messages.
	Out io.Writer
	// OpenBrowser opens the authorization URL. Defaults to the platform
	// browser launcher.
	OpenBrowser func(string) error

	redirect *url.URL
	listener net.Listener
	result   chan string
	once     sync.Once
}

// NewCallbackServer validates redirectURI, which must be an http URL on a
// loopback host with an explicit port.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URI %q must use http on a loopback address", redirectURI)
	}
	host := u.Hostname()
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil, fmt.Errorf("redirect URI %q must point to a loopback address", redirectURI)
	}
	if u.Port() == "" {
		return nil, fmt.Errorf("redirect URI %q must include a port", redirectURI)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &CallbackServer{
		Out:         os.Stderr,
		OpenBrowser: openBrowser,
		redirect:    u,
		result:      make(chan string, 1),
	}, nil
}

// Listen binds the redirect address. Authorize calls it when needed.
func (s *CallbackServer) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Authorize shows authURL, opens it in the browser and waits for the
// redirect. It returns the full redirect URL, including the query that
// carries the code and state.
func (s *CallbackServer) Authorize(ctx context.Context, authURL string) (string, error) {
	if err := s.Listen(); err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.redirect.Path, s.handleCallback)
	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		_ = server.Serve(s.listener)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close() // Force close if graceful shutdown fails
		}
		s.listener = nil
	}()

	// Print URL first so user can open manually if needed
	_, _ = fmt.Fprintf(s.Out, "Open this URL in your browser to authorize:\n  %s\n", authURL)
	if s.OpenBrowser != nil {
		if err := s.OpenBrowser(authURL); err != nil {
			_, _ = fmt.Fprintf(s.Out, "Could not open browser automatically: %v\n", err)
		}
	}

	select {
	case redirect := <-s.result:
		return redirect, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	if !q.Has("code") && !q.Has("error") {
		http.Error(w, "Missing authorization response", http.StatusBadRequest)
		return
	}

	redirect := *s.redirect
	redirect.Host = r.Host
	redirect.RawQuery = r.URL.RawQuery
	s.once.Do(func() {
		s.result <- redirect.String()
	})

	page, data := successTemplate, map[string]any{"CSS": template.CSS(pageCSS)}
	if reason := q.Get("error"); reason != "" {
		page = failureTemplate
		data["Reason"] = reason
	}
	tmpl, err := template.New("callback").Parse(page)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = tmpl.Execute(w, data)
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	if shouldSkipAutoBrowserOpen() {
		return errors.New("browser launch disabled")
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}

func shouldSkipAutoBrowserOpen() bool {
	// Always skip browser launch when running under `go test`.
	if flag.Lookup("test.v") != nil {
		return true
	}

	// Explicit opt-outs for automation/CI environments.
	noBrowser := strings.TrimSpace(strings.ToLower(os.Getenv("SPOTIFY_NO_BROWSER")))
	if noBrowser == "1" || noBrowser == "true" || noBrowser == "yes" {
		return true
	}

	return os.Getenv("SPOTIFY_TESTING") == "1"
}
