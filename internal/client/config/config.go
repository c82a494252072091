package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the CloudKeeper CLI.
//
// Units: durations are time.Duration; RequestsPerSecond of zero disables
// client-side throttling.
type Config struct {
	ServerURL string
	// Strategy is "cookie" or "bearer".
	Strategy string

	CSRFCookieName    string
	CSRFHeaderName    string
	SessionCookieName string
	CookieSettleDelay time.Duration
	LogoutMethod      string

	RequestTimeout    time.Duration
	RequestsPerSecond float64

	DatabasePath string

	LogFormat string
	LogLevel  string

	// RevalidateInterval is how often the CLI re-checks a live session;
	// zero disables it.
	RevalidateInterval time.Duration

	// MetricsAddr, when set, exposes Prometheus metrics on host:port.
	MetricsAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.Strategy = "cookie"
	c.CSRFCookieName = "csrftoken"
	c.CSRFHeaderName = "X-CSRFToken"
	c.SessionCookieName = "sessionid"
	c.CookieSettleDelay = 100 * time.Millisecond
	c.LogoutMethod = "GET"
	c.RequestTimeout = 10 * time.Second
	c.RequestsPerSecond = 0
	c.DatabasePath = "session.db"
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.RevalidateInterval = 5 * time.Minute
	c.MetricsAddr = ""
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.ServerURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("server url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("server url %q: must be an absolute http(s) url", c.ServerURL))
	}

	switch strings.ToLower(c.Strategy) {
	case "cookie", "bearer":
	default:
		errs = append(errs, fmt.Errorf("unknown auth strategy %q", c.Strategy))
	}

	switch strings.ToUpper(c.LogoutMethod) {
	case "GET", "POST":
	default:
		errs = append(errs, fmt.Errorf("logout method %q: must be GET or POST", c.LogoutMethod))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.RequestTimeout < 0 || c.CookieSettleDelay < 0 || c.RevalidateInterval < 0 || c.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("timeouts, delays and rates must not be negative"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, a JSON file and command-line flags. Later sources take
// precedence over earlier ones. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, args, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
