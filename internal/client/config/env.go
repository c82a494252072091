package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/cloudkeeper/internal/flagx"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "CLOUDKEEPER_"

const defaultEnvFile = ".env"

// parseEnv overlays Config with CLOUDKEEPER_* variables. Values come from the
// process environment first and then from a dotenv file: the one given by
// -e/-env, or ./.env when present. A missing ./.env is not an error; a
// missing explicit file is.
func parseEnv(cfg *Config, args []string, lookup func(string) (string, bool)) error {
	file := flagx.EnvFile(args)
	explicit := file != ""
	if !explicit {
		file = defaultEnvFile
	}

	dotenv, err := godotenv.Read(file)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read env file %s: %w", file, err)
		}
		dotenv = map[string]string{}
	}

	get := func(name string) (string, bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+name]
		return v, ok
	}

	setString := func(name string, dst *string) {
		if v, ok := get(name); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration) error {
		v, ok := get(name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	setString("SERVER_URL", &cfg.ServerURL)
	setString("STRATEGY", &cfg.Strategy)
	setString("CSRF_COOKIE", &cfg.CSRFCookieName)
	setString("CSRF_HEADER", &cfg.CSRFHeaderName)
	setString("SESSION_COOKIE", &cfg.SessionCookieName)
	setString("LOGOUT_METHOD", &cfg.LogoutMethod)
	setString("DB_PATH", &cfg.DatabasePath)
	setString("LOG_FORMAT", &cfg.LogFormat)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("METRICS_ADDR", &cfg.MetricsAddr)

	if err := setDuration("SETTLE_DELAY", &cfg.CookieSettleDelay); err != nil {
		return err
	}
	if err := setDuration("REQUEST_TIMEOUT", &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := setDuration("REVALIDATE_INTERVAL", &cfg.RevalidateInterval); err != nil {
		return err
	}
	if v, ok := get("REQUESTS_PER_SECOND"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sREQUESTS_PER_SECOND: %w", EnvPrefix, err)
		}
		cfg.RequestsPerSecond = rps
	}
	return nil
}
