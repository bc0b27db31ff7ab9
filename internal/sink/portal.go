package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
)

// PortalConfig holds the recruitment portal sink configuration.
type PortalConfig struct {
	BaseURL    string
	Email      string
	Password   string
	LoginPath  string        // default /api/auth/login
	SubmitPath string        // default /api/candidates
	Timeout    time.Duration // per-request, default 15s
}

// BrowserSubmitter drives the portal's web form directly. It is the
// fallback when the JSON API turns a candidate down.
type BrowserSubmitter interface {
	SubmitForm(ctx context.Context, rec candidate.Record) error
}

// PortalSink posts candidates to the portal's JSON API. A 401 triggers a
// login and one retry; a terminal API rejection is handed to the browser
// submitter when one is configured.
type PortalSink struct {
	cfg     PortalConfig
	client  *http.Client
	browser BrowserSubmitter
	logger  *slog.Logger

	mu    sync.Mutex
	token string
}

func NewPortalSink(cfg PortalConfig, browser BrowserSubmitter, logger *slog.Logger) (*PortalSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		return nil, common.NewAppError(common.CodeConfigError, "portal: base url is required", nil)
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/api/auth/login"
	}
	if cfg.SubmitPath == "" {
		cfg.SubmitPath = "/api/candidates"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	// Cookie-session portals authenticate through the jar; bearer-token
	// portals through the Authorization header. Both are kept live.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfigError, "portal: cookie jar", err)
	}

	return &PortalSink{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout, Jar: jar},
		browser: browser,
		logger:  logger,
	}, nil
}

func (s *PortalSink) Name() string { return "portal" }

func (s *PortalSink) Deliver(ctx context.Context, rec candidate.Record) error {
	err := s.submitAPI(ctx, rec)
	if err == nil {
		return nil
	}
	if common.IsCode(err, common.CodeSinkRejected) && s.browser != nil {
		s.logger.Warn("sink.portal.api_rejected",
			"candidate_id", rec.Identity.CandidateID,
			"error", err.Error(),
		)
		berr := s.browser.SubmitForm(ctx, rec)
		if berr == nil {
			s.logger.Info("sink.portal.browser_ok", "candidate_id", rec.Identity.CandidateID)
			return nil
		}
		s.logger.Error("sink.portal.browser_failed",
			"candidate_id", rec.Identity.CandidateID,
			"error", berr.Error(),
		)
	}
	return err
}

func (s *PortalSink) submitAPI(ctx context.Context, rec candidate.Record) error {
	start := time.Now()

	status, body, err := s.postJSON(ctx, s.cfg.SubmitPath, rec, s.currentToken())
	if err != nil {
		return common.NewAppError(common.CodeSinkUnreachable, "portal: submit", err)
	}
	if status == http.StatusUnauthorized {
		if err := s.login(ctx); err != nil {
			return err
		}
		status, body, err = s.postJSON(ctx, s.cfg.SubmitPath, rec, s.currentToken())
		if err != nil {
			return common.NewAppError(common.CodeSinkUnreachable, "portal: submit", err)
		}
	}
	if err := classifyPortalStatus("submit", status, body); err != nil {
		return err
	}

	s.logger.Info("sink.portal.submit_ok",
		"candidate_id", rec.Identity.CandidateID,
		"status", status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// login authenticates against the portal and stores whatever it hands back:
// a bearer token from the reply body, or nothing when the session lives in
// the cookie jar.
func (s *PortalSink) login(ctx context.Context) error {
	creds := map[string]string{"email": s.cfg.Email, "password": s.cfg.Password}
	status, body, err := s.postJSON(ctx, s.cfg.LoginPath, creds, "")
	if err != nil {
		return common.NewAppError(common.CodeSinkUnreachable, "portal: login", err)
	}
	if err := classifyPortalStatus("login", status, body); err != nil {
		return err
	}

	var reply struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	auth := "cookie"
	if err := json.Unmarshal(body, &reply); err == nil {
		tok := reply.Token
		if tok == "" {
			tok = reply.AccessToken
		}
		if tok != "" {
			s.setToken(tok)
			auth = "bearer"
		}
	}
	s.logger.Info("sink.portal.login_ok", "auth", auth)
	return nil
}

func (s *PortalSink) postJSON(ctx context.Context, path string, payload any, token string) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (s *PortalSink) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *PortalSink) setToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

// classifyPortalStatus maps an HTTP status onto the dispatch taxonomy.
// Quota pushback and server errors retry; anything else the portal turned
// down is terminal for the API path.
func classifyPortalStatus(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := fmt.Sprintf("portal: %s status %d", op, status)
	if snippet := bodySnippet(body); snippet != "" {
		msg += ": " + snippet
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return common.NewAppError(common.CodeSinkUnreachable, msg, nil)
	}
	return common.NewAppError(common.CodeSinkRejected, msg, nil)
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
