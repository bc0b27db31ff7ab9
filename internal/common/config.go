package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Watch  WatchConfig
	Ledger LedgerConfig
	LLM    LLMConfig
	Sheets SheetsConfig
	Portal PortalConfig
	Drive  DriveConfig
	Server ServerConfig
	Queue  QueueConfig
	Retry  RetryConfig
	Xlsx   XlsxConfig
}

// WatchConfig holds watch-folder configuration
type WatchConfig struct {
	Folder         string
	Debounce       time.Duration
	StableChecks   int
	StableInterval time.Duration
	StableTimeout  time.Duration
}

// LedgerConfig holds dedup-ledger configuration
type LedgerConfig struct {
	Path string
}

// LLMConfig holds generative-model configuration. An empty BaseURL disables
// the generative extractor entirely (deterministic-only mode).
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxChars    int
}

// SheetsConfig holds Google Sheets sink configuration
type SheetsConfig struct {
	SheetID            string
	ServiceAccountJSON string // path to a credentials file, or the JSON itself
}

// PortalConfig holds admin-portal sink configuration
type PortalConfig struct {
	URL             string
	AdminEmail      string
	AdminPassword   string
	BrowserFallback bool
}

// DriveConfig holds the optional Google Drive fetcher configuration
type DriveConfig struct {
	FolderID     string
	FolderURL    string
	PollInterval time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// QueueConfig holds worker-queue configuration
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// RetryConfig holds sink retry/backoff configuration
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// XlsxConfig holds local workbook sink configuration
type XlsxConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			Folder:         getEnv("WATCH_FOLDER", "/data/candidates"),
			Debounce:       getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			StableChecks:   getEnvAsInt("STABLE_CHECKS", 2),
			StableInterval: getEnvAsDuration("STABLE_INTERVAL", 1*time.Second),
			StableTimeout:  getEnvAsDuration("STABLE_TIMEOUT", 30*time.Second),
		},
		Ledger: LedgerConfig{
			Path: getEnv("LEDGER_PATH", "intake.db"),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", "llama-3.1-8b-instruct"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxChars:    getEnvAsInt("LLM_MAX_CHARS", 3000),
		},
		Sheets: SheetsConfig{
			SheetID:            getEnv("GOOGLE_SHEET_ID", ""),
			ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		},
		Portal: PortalConfig{
			URL:             getEnv("SV_PORTAL_URL", ""),
			AdminEmail:      getEnv("SV_ADMIN_EMAIL", ""),
			AdminPassword:   getEnv("SV_ADMIN_PASSWORD", ""),
			BrowserFallback: getEnvAsBool("SV_PORTAL_BROWSER_FALLBACK", false),
		},
		Drive: DriveConfig{
			FolderID:     getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),
			FolderURL:    getEnv("GOOGLE_DRIVE_FOLDER_URL", ""),
			PollInterval: getEnvAsDuration("DRIVE_POLL_INTERVAL", 5*time.Minute),
		},
		Server: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 8080),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 1),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts:  getEnvAsInt("SINK_MAX_ATTEMPTS", 3),
			InitialDelay: getEnvAsDuration("SINK_INITIAL_DELAY", 2*time.Second),
			Multiplier:   getEnvAsFloat64("SINK_BACKOFF_MULTIPLIER", 2.0),
			MaxDelay:     getEnvAsDuration("SINK_MAX_DELAY", 30*time.Second),
		},
		Xlsx: XlsxConfig{
			Path: getEnv("XLSX_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// plain integers are treated as seconds, matching the legacy deployment
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// SheetsConfigured reports whether the Sheets sink can be constructed.
func (c *Config) SheetsConfigured() bool {
	return c.Sheets.SheetID != "" && c.Sheets.ServiceAccountJSON != ""
}

// PortalConfigured reports whether the portal sink can be constructed.
func (c *Config) PortalConfigured() bool {
	return c.Portal.URL != "" && c.Portal.AdminEmail != "" && c.Portal.AdminPassword != ""
}

// DriveConfigured reports whether the Drive fetcher can be constructed.
func (c *Config) DriveConfigured() bool {
	return (c.Drive.FolderID != "" || c.Drive.FolderURL != "") && c.Sheets.ServiceAccountJSON != ""
}

// Validate reports everything wrong with the configuration in one error.
// At least one record sink must be configured; the portal triple is
// all-or-none.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("WATCH_FOLDER", c.Watch.Folder, Required)
	v.Field("QUEUE_WORKERS", c.Queue.Workers, Positive)
	v.Field("SINK_MAX_ATTEMPTS", c.Retry.MaxAttempts, Positive)

	if !c.SheetsConfigured() && c.Xlsx.Path == "" {
		v.Add("sinks", "configure GOOGLE_SHEET_ID + GOOGLE_SERVICE_ACCOUNT_JSON or XLSX_PATH")
	}
	partial := c.Portal.URL != "" || c.Portal.AdminEmail != "" || c.Portal.AdminPassword != ""
	if partial && !c.PortalConfigured() {
		v.Add("portal", "SV_PORTAL_URL, SV_ADMIN_EMAIL and SV_ADMIN_PASSWORD must be set together")
	}
	return v.Error()
}
