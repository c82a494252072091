package cli

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/config"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

func testConfig(strategy string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Strategy = strategy
	cfg.DatabasePath = ":memory:"
	cfg.RevalidateInterval = 0
	return cfg
}

func TestBuild_SelectsStoreByStrategy(t *testing.T) {
	for _, strategy := range []string{"cookie", "bearer"} {
		t.Run(strategy, func(t *testing.T) {
			cfg := testConfig(strategy)
			cfg.MetricsAddr = "127.0.0.1:0"

			app, err := Build(context.Background(), cfg, strings.NewReader(""), &bytes.Buffer{}, logging.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = app.db.Close() })

			assert.NotNil(t, app.registry)
			assert.False(t, app.isLoggedIn())

			svc := app.authService
			require.NotNil(t, svc)
			_, ok := svc.FetchCurrentUser(context.Background())
			assert.False(t, ok, "an empty store never reaches the network")
		})
	}
}

func TestBuild_RejectsUnknownStrategy(t *testing.T) {
	_, err := Build(context.Background(), testConfig("hybrid"), strings.NewReader(""), &bytes.Buffer{}, nil)
	require.Error(t, err)
}

func TestServe_ExitsOnQuitAndClosesDatabase(t *testing.T) {
	silencePrint(t)
	var out bytes.Buffer
	app, err := Build(context.Background(), testConfig("bearer"), strings.NewReader("status\nquit\n"), &out, nil)
	require.NoError(t, err)

	app.Serve(context.Background())

	assert.Contains(t, out.String(), "bearer, not logged in")
	db, ok := app.db.(*sql.DB)
	require.True(t, ok)
	assert.Error(t, db.PingContext(context.Background()), "database is closed")
}
