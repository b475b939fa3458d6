package contract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/outlier/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 100
	MaxResultLimit     = 10000
	DefaultPrecision   = 2
	DefaultAddr        = ":5000"
	DefaultOrigin      = "http://localhost:3000"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// dateLayouts are the accepted spellings of a filter date, most specific first.
var dateLayouts = []string{schema.DateLayout, "2006-01", "Jan 2006", "January 2006"}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the processed settings of one invocation.
type Config struct {
	Request schema.DetectionRequest
	Filter  schema.RecordFilter

	Input       string // CSV or parquet file; empty reads the record store
	ResultLimit int
	Detail      bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string

	Addr         string
	AllowOrigins []string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct. Detection parameters stay strings so that
// an unset flag can be told apart from a zero value.
type ConfigRawInput struct {
	// --- Detection ---
	Method    string `mapstructure:"method"`
	Threshold string `mapstructure:"threshold"`
	Min       string `mapstructure:"min"`
	Max       string `mapstructure:"max"`
	Period    string `mapstructure:"period"`
	Model     string `mapstructure:"model"`

	// --- Filters ---
	PortName string `mapstructure:"port-name"`
	State    string `mapstructure:"state"`
	Border   string `mapstructure:"border"`
	Measure  string `mapstructure:"measure"`
	PortCode string `mapstructure:"port-code"`
	Date     string `mapstructure:"date"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`

	// --- Input and output ---
	Input      string `mapstructure:"input"`
	OutputFile string `mapstructure:"output-file"`
	Limit      int    `mapstructure:"limit"`
	Precision  int    `mapstructure:"precision"`
	Output     string `mapstructure:"output"`
	Detail     bool   `mapstructure:"detail"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`

	// --- Storage ---
	Backend   string `mapstructure:"backend"`
	DBConnect string `mapstructure:"db-connect"`

	// --- Logging ---
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// --- Fields from serveCmd.Flags() ---
	Addr         string `mapstructure:"addr"`
	AllowOrigins string `mapstructure:"allow-origins"`
}

// ProcessAndValidate validates the raw input and populates cfg.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processRequest(cfg, input); err != nil {
		return err
	}
	return processFilter(cfg, input)
}

// ProcessQuery parses only the detection request and the record filter of input
// into cfg. The HTTP and MCP layers use it for per-request overrides.
func ProcessQuery(cfg *Config, input *ConfigRawInput) error {
	if err := processRequest(cfg, input); err != nil {
		return err
	}
	return processFilter(cfg, input)
}

// ValidateDatabaseConnectionString checks that connStr looks right for the backend.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseDate parses a filter date. Month-only layouts resolve to the first of the month.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, YYYY-MM or Mon YYYY)", s)
}

// ProcessProfilingConfig enables profiling when a prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Input = strings.TrimSpace(input.Input)
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.LogLevel = input.LogLevel
	cfg.LogFormat = input.LogFormat

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 0 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 0 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	cfg.AllowOrigins = nil
	for o := range strings.SplitSeq(input.AllowOrigins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, trimmed)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{DefaultOrigin}
	}
	return nil
}

// validateBackendConfigs processes the storage backend.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.Backend = schema.DatabaseBackend(strings.ToLower(input.Backend))
	if cfg.Backend == "" {
		cfg.Backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", input.Backend)
	}
	cfg.DBConnect = input.DBConnect
	if err := ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect); err != nil {
		return err
	}
	if cfg.Backend == schema.NoneBackend && cfg.Input == "" {
		return fmt.Errorf("backend none needs --input to read records from a file")
	}
	return nil
}

// processRequest parses the detection method and its params.
func processRequest(cfg *Config, input *ConfigRawInput) error {
	method := input.Method
	if strings.TrimSpace(method) == "" {
		method = string(schema.StatisticalMethod)
	}
	req, err := schema.ParseRequest(method, map[string]string{
		schema.ParamThreshold: input.Threshold,
		schema.ParamMin:       input.Min,
		schema.ParamMax:       input.Max,
		schema.ParamPeriod:    input.Period,
		schema.ParamModel:     input.Model,
	})
	if err != nil {
		return err
	}
	if err := req.Params.Validate(); err != nil {
		return err
	}
	cfg.Request = req
	return nil
}

// processFilter parses the record filter criteria.
func processFilter(cfg *Config, input *ConfigRawInput) error {
	f := schema.RecordFilter{
		PortName: strings.TrimSpace(input.PortName),
		State:    strings.TrimSpace(input.State),
		Border:   strings.TrimSpace(input.Border),
		Measure:  strings.TrimSpace(input.Measure),
	}
	if s := strings.TrimSpace(input.PortCode); s != "" {
		code, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid port code %q: must be an integer", s)
		}
		f.PortCode = &code
	}
	for _, d := range []struct {
		raw string
		dst **time.Time
	}{{input.Date, &f.Date}, {input.Start, &f.Start}, {input.End, &f.End}} {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		t, err := ParseDate(d.raw)
		if err != nil {
			return err
		}
		*d.dst = &t
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return fmt.Errorf("end date %s is before start date %s", f.End.Format(schema.DateLayout), f.Start.Format(schema.DateLayout))
	}
	cfg.Filter = f
	return nil
}
