package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/cloudkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend base URL
//	-s string   auth strategy, cookie or bearer
//	-d string   path of the local session database
//	-t int      request timeout in seconds
//	-l string   log level
//	-i int      session revalidation interval in seconds, 0 disables
//
// args are filtered with flagx.FilterArgs first so flags owned by other
// loaders (-c, -e) do not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-d", "-t", "-l", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	fs.StringVar(&cfg.Strategy, "s", cfg.Strategy, "auth strategy: cookie or bearer")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local session database path")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn or error")
	revalidate := fs.Int("i", int(cfg.RevalidateInterval.Seconds()), "session revalidation interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		case "i":
			cfg.RevalidateInterval = time.Duration(*revalidate) * time.Second
		}
	})
	return nil
}
