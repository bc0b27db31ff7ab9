package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for an OpenAI-compatible chat completions endpoint. The wire format
// is the OpenAI one, but the expected deployment is a local llama.cpp server
// with no API key.
type Config struct {
	APIKey      string        // optional; falls back to env OPENAI_API_KEY
	BaseURL     string        // e.g. http://localhost:8080/v1; empty leaves the client unavailable
	Model       string
	Temperature float32
	Timeout     time.Duration // http client timeout, covers one chunk round-trip
	MaxChars    int           // document text budget per request; longer text is chunked
	MaxTokens   int           // completion cap per request
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instruct"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 3000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Available reports whether the client has an endpoint to talk to. A nil
// client or an empty BaseURL means generative extraction is switched off and
// the pipeline runs deterministic-only.
func (c *Client) Available() bool {
	return c != nil && c.cfg.BaseURL != ""
}
