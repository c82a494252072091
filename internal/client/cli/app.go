package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/authstate"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/config"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/services"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	bootstrap   *services.Bootstrapper
	state       *authstate.State
	reader      *bufio.Reader
	out         io.Writer
	log         logging.Logger

	db       io.Closer
	registry *prometheus.Registry
}

// NewApp wires the REPL to an already built session service. in and out are
// normally os.Stdin and os.Stdout.
func NewApp(c *config.Config, auth services.AuthService, boot *services.Bootstrapper, state *authstate.State,
	in io.Reader, out io.Writer, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		config:      c,
		authService: auth,
		bootstrap:   boot,
		state:       state,
		reader:      bufio.NewReader(in),
		out:         out,
		log:         log.With("component", "cli"),
	}
}

// Run restores the previous session, then serves commands until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to CloudKeeper CLI (type 'help' for commands)")

	snap := a.bootstrap.Run(ctx)
	if snap.IsAuthenticated {
		fmt.Fprintf(a.out, "Signed in as %s\n", snap.User.Username)
	}

	if a.config.RevalidateInterval > 0 {
		go a.StartSessionWatcher(ctx, a.config.RevalidateInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Serve runs the REPL until the user exits or the process is signalled,
// serving Prometheus metrics alongside when configured. Resources owned by
// the App are released on return.
func (a *App) Serve(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	if a.registry != nil && a.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.startMetricsServer(ctx)
		}()
	}

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		a.Run(ctx)
	}()

	select {
	case <-replDone:
	case <-ctx.Done():
		fmt.Fprintln(a.out, "\nBye!")
	}

	cancelFunc()
	wg.Wait()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error(ctx, "close database", "err", err)
		}
	}
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (a *App) startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info(ctx, "serving metrics", "addr", a.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error(ctx, "metrics server failed", "err", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService.Snapshot().IsAuthenticated
}

func (a *App) getStatus() string {
	snap := a.authService.Snapshot()
	if !snap.IsAuthenticated {
		return "(anonymous)"
	}
	if snap.User.IsAdmin {
		return fmt.Sprintf("(%s admin)", snap.User.Username)
	}
	return fmt.Sprintf("(%s)", snap.User.Username)
}

// StartSessionWatcher revalidates the session every interval while someone
// is logged in, and logs every auth state transition. It returns when ctx is
// done.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	updates, unsubscribe := a.state.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isLoggedIn() {
				continue
			}
			if _, ok := a.authService.FetchCurrentUser(ctx); !ok {
				a.log.Warn(ctx, "session is no longer valid")
			}

		case snap, ok := <-updates:
			if !ok {
				return
			}
			if snap.IsAuthenticated {
				a.log.Debug(ctx, "auth state changed", "user", snap.User.Username)
			} else {
				a.log.Debug(ctx, "auth state changed", "user", nil)
			}

		case <-ctx.Done():
			return
		}
	}
}
