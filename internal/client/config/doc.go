// Package config loads runtime configuration for the CloudKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: CLOUDKEEPER_* variables, falling back to a dotenv file
//     (-e/-env, or ./.env when present).
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-s string   auth strategy (cookie|bearer)
//	-d string   local session database path
//	-t int      request timeout (seconds)
//	-l string   log level
//	-i int      session revalidation interval (seconds), 0 disables
//
// # JSON schema
//
// Durations may be strings like "100ms" or integer nanoseconds:
//
//	{
//	  "server_url": "https://files.example.org/api",
//	  "strategy": "bearer",
//	  "request_timeout": "10s",
//	  "cookie_settle_delay": "100ms",
//	  "database_path": "/var/lib/cloudkeeper/session.db",
//	  "log_format": "zerolog",
//	  "metrics_addr": "127.0.0.1:9100"
//	}
package config
