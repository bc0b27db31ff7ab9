package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
)

// BrowserConfig holds the headless-browser fallback configuration.
type BrowserConfig struct {
	BaseURL   string
	Email     string
	Password  string
	LoginPage string        // default /login
	FormPage  string        // default /candidates/new
	Timeout   time.Duration // whole form run, default 60s
}

// ChromeSubmitter fills the portal's candidate form in a headless Chrome
// session. Fields are matched by name or id against the form's inputs;
// anything the page does not expose is skipped. Requires Chrome or
// Chromium on the host.
type ChromeSubmitter struct {
	cfg    BrowserConfig
	logger *slog.Logger
}

func NewChromeSubmitter(cfg BrowserConfig, logger *slog.Logger) (*ChromeSubmitter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		return nil, common.NewAppError(common.CodeConfigError, "browser: base url is required", nil)
	}
	if cfg.LoginPage == "" {
		cfg.LoginPage = "/login"
	}
	if cfg.FormPage == "" {
		cfg.FormPage = "/candidates/new"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ChromeSubmitter{cfg: cfg, logger: logger}, nil
}

func (c *ChromeSubmitter) SubmitForm(ctx context.Context, rec candidate.Record) error {
	start := time.Now()

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, c.cfg.Timeout)
	defer cancel()

	fields := formFields(rec)
	data, err := json.Marshal(fields)
	if err != nil {
		return common.NewAppError(common.CodeSinkRejected, "browser: encode form fields", err)
	}

	var loggedIn bool
	var filled int
	var submitted bool

	err = chromedp.Run(browserCtx,
		chromedp.Navigate(c.pageURL(c.cfg.LoginPage)),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(fmt.Sprintf(loginScript, jsString(c.cfg.Email), jsString(c.cfg.Password)), &loggedIn),
		chromedp.ActionFunc(func(context.Context) error {
			if !loggedIn {
				return common.NewAppError(common.CodeSinkRejected, "browser: login form not found", nil)
			}
			return nil
		}),
		chromedp.Sleep(2*time.Second),
		chromedp.Navigate(c.pageURL(c.cfg.FormPage)),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(fmt.Sprintf(fillScript, data), &filled),
		chromedp.ActionFunc(func(context.Context) error {
			if filled == 0 {
				return common.NewAppError(common.CodeSinkRejected, "browser: candidate form not found", nil)
			}
			return nil
		}),
		chromedp.Evaluate(submitScript, &submitted),
		chromedp.ActionFunc(func(context.Context) error {
			if !submitted {
				return common.NewAppError(common.CodeSinkRejected, "browser: no submit control on candidate form", nil)
			}
			return nil
		}),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		if common.CodeOf(err) != "" {
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return common.NewAppError(common.CodeSinkUnreachable, "browser: form run timed out", err)
		}
		return common.NewAppError(common.CodeSinkUnreachable, "browser: form run", err)
	}

	c.logger.Info("sink.portal.form_submitted",
		"candidate_id", rec.Identity.CandidateID,
		"fields_filled", filled,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (c *ChromeSubmitter) pageURL(page string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(page, "/")
}

// formFields maps a record onto the portal form's input names, skipping
// values we never extracted so the form keeps its own defaults.
func formFields(rec candidate.Record) map[string]string {
	fields := map[string]string{
		"name":              rec.Identity.Name,
		"email":             rec.Identity.Email,
		"phone":             rec.Identity.Phone,
		"designation":       rec.Identity.Designation,
		"dob":               rec.Identity.DateOfBirth,
		"gender":            rec.Identity.Gender,
		"nationality":       rec.Identity.Nationality,
		"pan":               rec.Documents.PANNumber,
		"uan":               rec.Documents.UANNumber,
		"passport":          rec.Documents.PassportNumber,
		"current_address":   rec.Addresses.Current,
		"permanent_address": rec.Addresses.Permanent,
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// The page scripts run inside the portal, so they only rely on DOM APIs.
// Values are set through the native setter plus input and change events,
// which keeps framework-bound forms (React, Vue) in sync.

const loginScript = `(function() {
	var email = document.querySelector('input[type="email"], input[name="email"], input[id="email"], input[name="username"]');
	var pass = document.querySelector('input[type="password"]');
	if (!email || !pass) { return false; }
	var set = function(el, v) {
		el.value = v;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
	};
	set(email, %s);
	set(pass, %s);
	var btn = document.querySelector('button[type="submit"], input[type="submit"]');
	if (btn) { btn.click(); } else if (email.form) { email.form.submit(); }
	return true;
})()`

const fillScript = `(function(data) {
	var filled = 0;
	var set = function(el, v) {
		el.value = v;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
	};
	for (var key in data) {
		var el = document.querySelector(
			'input[name="' + key + '"], input[id="' + key + '"], ' +
			'textarea[name="' + key + '"], textarea[id="' + key + '"], ' +
			'select[name="' + key + '"], select[id="' + key + '"]');
		if (!el) { continue; }
		set(el, data[key]);
		filled++;
	}
	return filled;
})(%s)`

const submitScript = `(function() {
	var btn = document.querySelector('form button[type="submit"], button[type="submit"], input[type="submit"]');
	if (btn) { btn.click(); return true; }
	var form = document.querySelector('form');
	if (form) { form.submit(); return true; }
	return false;
})()`
