package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	// Comma separated CIDRs whose X-Forwarded-* headers are honoured.
	// Empty keeps the loopback and private network defaults.
	TrustedProxies  string
	LogLevel        string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed files
	DataDir string

	// Report rendering
	ReportFilePrefix  string
	ReportOrgName     string
	ReportGeneratedBy string
	ReportCurrency    string
	ReportPageSize    string
	ReportOrientation string
	ReportOutputDir   string
	ReportRateLimit   int // report requests per minute per client

	// AMQP
	AMQPURL              string
	AMQPExchange         string
	AMQPQueue            string
	AMQPEventsRoutingKey string

	// Google Sheets
	GoogleSpreadsheetID    string
	GoogleCollectionsSheet string
	GoogleExpensesSheet    string
	GoogleReceivablesSheet string
	SheetsCacheTTL         time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		TrustedProxies:  getEnv("TRUSTED_PROXIES", ""),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rcrao.db"),
		DataDir:      getEnv("DATA_DIR", ""),

		ReportFilePrefix:  getEnv("REPORT_FILE_PREFIX", "RCRAO_Report"),
		ReportOrgName:     getEnv("REPORT_ORG_NAME", "RCRAO Accounting System"),
		ReportGeneratedBy: getEnv("REPORT_GENERATED_BY", "Admin"),
		ReportCurrency:    strings.ToUpper(getEnv("REPORT_CURRENCY", "PHP")),
		ReportPageSize:    getEnv("REPORT_PAGE_SIZE", "A4"),
		ReportOrientation: strings.ToUpper(getEnv("REPORT_ORIENTATION", "P")),
		ReportOutputDir:   getEnv("REPORT_OUTPUT_DIR", "./reports"),
		ReportRateLimit:   getEnvInt("REPORT_RATE_LIMIT", 30),

		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "rcrao"),
		AMQPQueue:            getEnv("AMQP_QUEUE", "report_requests"),
		AMQPEventsRoutingKey: getEnv("AMQP_EVENTS_ROUTING_KEY", "report.generated"),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCollectionsSheet: getEnv("GOOGLE_COLLECTIONS_SHEET", "Collections"),
		GoogleExpensesSheet:    getEnv("GOOGLE_EXPENSES_SHEET", "Expenses"),
		GoogleReceivablesSheet: getEnv("GOOGLE_RECEIVABLES_SHEET", "Receivables"),
		SheetsCacheTTL:         getEnvDuration("SHEETS_CACHE_TTL", time.Minute),
	}

	return cfg
}

var (
	validBackends     = []string{"memory", "sheets", "sqlite"}
	validPageSizes    = []string{"A3", "A4", "A5", "Letter", "Legal"}
	validOrientations = []string{"P", "L"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
)

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxyList() {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}
	if !oneOf(c.LogLevel, validLogLevels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Validate data backend
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Memory backend seeds are optional, but a configured directory must exist
	if c.DataBackend == "memory" && c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory does not exist: %s", c.DataDir))
		}
	}

	if c.DataBackend == "sheets" && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}

	// Validate report rendering
	if c.ReportFilePrefix == "" {
		errors = append(errors, "report file prefix cannot be empty")
	} else if strings.ContainsAny(c.ReportFilePrefix, `/\`) {
		errors = append(errors, fmt.Sprintf("invalid report file prefix '%s': must not contain path separators", c.ReportFilePrefix))
	}
	if money.GetCurrency(c.ReportCurrency) == nil {
		errors = append(errors, fmt.Sprintf("unknown report currency '%s'", c.ReportCurrency))
	}
	if !oneOf(c.ReportPageSize, validPageSizes) {
		errors = append(errors, fmt.Sprintf("invalid page size '%s': must be one of %v", c.ReportPageSize, validPageSizes))
	}
	if !oneOf(c.ReportOrientation, validOrientations) {
		errors = append(errors, fmt.Sprintf("invalid orientation '%s': must be one of %v", c.ReportOrientation, validOrientations))
	}
	if c.ReportRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid report rate limit %d: must be at least 1", c.ReportRateLimit))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
	}

	// Validate AMQP exchange and queue names if AMQP is configured
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings only the report worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the report worker")
	}
	if c.ReportOutputDir == "" {
		errors = append(errors, "REPORT_OUTPUT_DIR is required for the report worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// TrustedProxyList splits TrustedProxies into CIDRs.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, part := range strings.Split(c.TrustedProxies, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
