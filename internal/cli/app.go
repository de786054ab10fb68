package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/cache"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/render"
	"github.com/ppiankov/nyaya/internal/session"
	"github.com/ppiankov/nyaya/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app bundles what every command needs: configuration, the persisted
// session, and an API client bound to both
type app struct {
	cfg     *model.Config
	session *session.Session
	client  *api.Client
	limiter *worker.Limiter
	cache   cache.Cache // nil when caching is off
	printer *render.Printer
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	path := cfg.Session.File
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}
	sess := session.New(session.NewFileStore(path))
	if err := sess.Load(); err != nil {
		// Start logged out
		logger.Warn("ignoring unreadable session", zap.String("path", path), zap.Error(err))
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	opts := []api.Option{
		api.WithLogger(logger),
		api.WithLimiter(limiter),
		api.WithLoginRequired(func() {
			fmt.Fprintln(os.Stderr, "✗ Session expired. Run 'nyaya login' to sign in again.")
		}),
	}
	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir == "" {
			if cfg.Cache.Dir, err = defaultCacheDir(); err != nil {
				return nil, err
			}
		}
		store = cache.New(cfg.Cache)
		opts = append(opts, api.WithCache(store, 0))
	}

	client, err := api.NewClient(cfg, sess, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &app{
		cfg:     cfg,
		session: sess,
		client:  client,
		limiter: limiter,
		cache:   store,
		printer: render.NewPrinter(os.Stdout, cfg.Output.Format),
	}, nil
}

// commandContext bounds a command by the --timeout flag
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if reqTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, reqTimeout)
}

// requireLogin fails early for commands that need an authenticated user
func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return errors.New("not logged in: run 'nyaya login' first")
	}
	return nil
}

// describe turns API errors into the message shown to users
func describe(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.UserMessage())
	}
	return err
}

var stdin = bufio.NewReader(os.Stdin)

// prompt reads one line from stdin after showing label on stderr
func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}
