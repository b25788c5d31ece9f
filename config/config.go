package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// API versions exposed by the backend.
const (
	VersionTest = "test"
	VersionLive = "live"
)

// ExampleURL is shown to the user when the report id is missing.
const ExampleURL = "http://localhost:8080?rapport=1763564845575x702792386204432800"

// DefaultLoadTimeout bounds one shared report load in the server.
const DefaultLoadTimeout = 60 * time.Second

// ErrMissingReportID is returned when no report id can be found.
var ErrMissingReportID = errors.New("missing report id")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIBase     string
	Version     string
	HTTPTimeout time.Duration
	LoadTimeout time.Duration

	SessionEndpointEnabled bool

	Port     int
	LogLevel string

	DispatchConcurrency int
	RateLimitMs         int
	MaxRetries          int

	CSVOutputPath string
	PDFOutputPath string
	ChromeBin     string

	ArchiveEnabled   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		APIBase:     strings.TrimRight(getEnv("API_BASE_URL", "https://checkeasy-57905.bubbleapps.io"), "/"),
		Version:     normaliseVersion(getEnv("API_VERSION", VersionTest)),
		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		LoadTimeout: time.Duration(getEnvInt("LOAD_TIMEOUT_SECONDS", int(DefaultLoadTimeout/time.Second))) * time.Second,

		SessionEndpointEnabled: getEnvBool("SESSION_ENDPOINT_ENABLED", false),

		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 2),
		RateLimitMs:         getEnvInt("DISPATCH_RATE_LIMIT_MS", 250),
		MaxRetries:          getEnvInt("MAX_RETRIES", 3),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/rapport.csv"),
		PDFOutputPath: getEnv("PDF_OUTPUT_PATH", "./output/rapport.pdf"),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		ArchiveEnabled:   getEnvBool("ARCHIVE_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "checkeasy"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "checkeasy"),
		PostgresDB:       getEnv("POSTGRES_DB", "checkeasy_reports"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// WithVersion returns a copy of c targeting the given API version. Unknown
// versions leave the copy unchanged.
func (c *Config) WithVersion(version string) *Config {
	cp := *c
	if v := strings.TrimSpace(version); v == VersionTest || v == VersionLive {
		cp.Version = v
	}
	return &cp
}

// APIBaseURL returns the workflow API root for the configured version.
func (c *Config) APIBaseURL() string {
	return fmt.Sprintf("%s/version-%s/api/1.1/wf", c.APIBase, c.Version)
}

// BuildURL appends the endpoint and an encoded query string to the API root.
func (c *Config) BuildURL(endpoint string, params map[string]string) string {
	u := c.APIBaseURL() + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) == 0 {
		return u
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return u + "?" + q.Encode()
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// PageParams are the parameters carried by the hosting page URL.
type PageParams struct {
	ReportID string
	Version  string
}

// ParsePageURL extracts the report id and optional API version from a page
// URL. A bare report id is accepted as well.
func ParsePageURL(raw string) (PageParams, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PageParams{}, MissingReportIDError()
	}
	if !strings.ContainsAny(raw, "?=/") {
		return PageParams{ReportID: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return PageParams{}, fmt.Errorf("parse page url %q: %w", raw, err)
	}
	q := u.Query()
	id := strings.TrimSpace(q.Get("rapport"))
	if id == "" {
		return PageParams{}, MissingReportIDError()
	}
	return PageParams{ReportID: id, Version: strings.TrimSpace(q.Get("version"))}, nil
}

// MissingReportIDError wraps ErrMissingReportID with a usage example.
func MissingReportIDError() error {
	return fmt.Errorf("%w: add ?rapport=<id> to the URL, e.g. %s", ErrMissingReportID, ExampleURL)
}

func normaliseVersion(v string) string {
	if v == VersionLive {
		return VersionLive
	}
	return VersionTest
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
