package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/authstate"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/client"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/config"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/services"
	"github.com/dmitrijs2005/cloudkeeper/internal/filex"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

// Build opens the local database and assembles the session stack for the
// strategy named in cfg. The returned App owns the database; Serve closes it.
func Build(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	strategy, err := services.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, err
	}
	db, err := metadata.OpenDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	app, err := build(cfg, strategy, db, in, out, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(cfg *config.Config, strategy services.Strategy, db *sql.DB, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	repo := metadata.NewSQLiteRepository(db)

	endpoints := client.DefaultEndpoints()
	endpoints.LogoutMethod = strings.ToUpper(cfg.LogoutMethod)

	opts := client.Options{
		BaseURL:           cfg.ServerURL,
		Endpoints:         endpoints,
		CSRFHeader:        cfg.CSRFHeaderName,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log,
	}

	var store credentials.Store
	switch strategy {
	case services.StrategyCookie:
		base, err := url.Parse(cfg.ServerURL)
		if err != nil {
			return nil, fmt.Errorf("parse server url: %w", err)
		}
		cs, err := credentials.NewCookieStore(base, repo, credentials.CookieOptions{
			CSRFCookie:    cfg.CSRFCookieName,
			SessionCookie: cfg.SessionCookieName,
		})
		if err != nil {
			return nil, err
		}
		opts.Jar = cs.Jar()
		opts.Hook = client.CSRFHook(cs, cfg.CSRFHeaderName, endpoints.Register)
		store = cs
	case services.StrategyBearer:
		bs := credentials.NewBearerStore(repo)
		opts.Hook = client.BearerHook(bs, endpoints.Token, endpoints.Register)
		store = bs
	}

	var registry *prometheus.Registry
	if cfg.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := client.NewMetrics(registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts.Metrics = m
	}

	api, err := client.NewHTTPClient(opts)
	if err != nil {
		return nil, err
	}

	settle := cfg.CookieSettleDelay
	if settle == 0 {
		settle = -1
	}
	state, writer := authstate.New()
	svc, err := services.NewAuthService(services.Options{
		Strategy:    strategy,
		Client:      api,
		Store:       store,
		State:       writer,
		SettleDelay: settle,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	app := NewApp(cfg, svc, services.NewBootstrapper(svc, store, log), state, in, out, log)
	app.db = db
	app.registry = registry
	return app, nil
}
