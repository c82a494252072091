package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cloudkeeper/internal/flagx"
	"github.com/dmitrijs2005/cloudkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "100ms" or as integer nanoseconds. Only keys present in the
// file override the runtime Config.
type JsonConfig struct {
	ServerURL         *string         `json:"server_url"`
	Strategy          *string         `json:"strategy"`
	CSRFCookieName    *string         `json:"csrf_cookie_name"`
	CSRFHeaderName    *string         `json:"csrf_header_name"`
	SessionCookieName *string         `json:"session_cookie_name"`
	CookieSettleDelay *timex.Duration `json:"cookie_settle_delay"`
	LogoutMethod      *string         `json:"logout_method"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	RequestsPerSecond *float64        `json:"requests_per_second"`
	DatabasePath      *string         `json:"database_path"`
	LogFormat         *string         `json:"log_format"`
	LogLevel          *string         `json:"log_level"`
	MetricsAddr       *string         `json:"metrics_addr"`

	RevalidateInterval *timex.Duration `json:"revalidate_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	overlay(&cfg.ServerURL, jc.ServerURL)
	overlay(&cfg.Strategy, jc.Strategy)
	overlay(&cfg.CSRFCookieName, jc.CSRFCookieName)
	overlay(&cfg.CSRFHeaderName, jc.CSRFHeaderName)
	overlay(&cfg.SessionCookieName, jc.SessionCookieName)
	overlay(&cfg.LogoutMethod, jc.LogoutMethod)
	overlay(&cfg.RequestsPerSecond, jc.RequestsPerSecond)
	overlay(&cfg.DatabasePath, jc.DatabasePath)
	overlay(&cfg.LogFormat, jc.LogFormat)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.CookieSettleDelay != nil {
		cfg.CookieSettleDelay = jc.CookieSettleDelay.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RevalidateInterval != nil {
		cfg.RevalidateInterval = jc.RevalidateInterval.Duration
	}
	return nil
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
