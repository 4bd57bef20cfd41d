// Package cmd is the command-line surface of the client.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"social-client/internal/api"
	"social-client/internal/config"
	"social-client/internal/observability"
	"social-client/internal/session"
	"social-client/internal/telemetry"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "social-client",
	Short: "Command-line client for the social platform",
	Long: `social-client talks to the platform's auth, post, comment, follow,
notification, media and chat services, and holds a realtime connection
for direct messaging.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}

// app bundles the wired client a command works with.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *session.Store

	auth          *api.Auth
	users         *api.Users
	posts         *api.Posts
	comments      *api.Comments
	social        *api.Social
	notifications *api.Notifications
	media         *api.Media
	chat          *api.Chat

	publisher       telemetry.Publisher
	emitter         *telemetry.Emitter
	tracingShutdown func(context.Context) error
}

// newApp loads configuration, restores the session and validates it against
// the auth service, then builds every service client.
func newApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store := session.NewStore(cfg.SessionFile, logger)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	client := api.NewClient(cfg.Services, store.Token, logger)
	a := &app{
		cfg:           cfg,
		logger:        logger,
		store:         store,
		auth:          api.NewAuth(client),
		users:         api.NewUsers(client),
		posts:         api.NewPosts(client),
		comments:      api.NewComments(client),
		social:        api.NewSocial(client),
		notifications: api.NewNotifications(client),
		media:         api.NewMedia(client),
		chat:          api.NewChat(client),
	}

	store.Validate(ctx, a.auth)

	a.publisher = telemetry.NewPublisher(cfg.Telemetry.AMQPURL, cfg.Telemetry.Exchange, logger)
	a.emitter = telemetry.NewEmitter(a.publisher, cfg.Env, logger)

	a.tracingShutdown, err = telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Env)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		a.tracingShutdown = func(context.Context) error { return nil }
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, promhttp.Handler()); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("close telemetry publisher", zap.Error(err))
	}
	if err := a.tracingShutdown(ctx); err != nil {
		a.logger.Warn("shutdown tracing", zap.Error(err))
	}
	_ = a.logger.Sync()
}

var errNotLoggedIn = errors.New("not logged in, run `social-client login` first")

func (a *app) requireSession() error {
	if !a.store.Current().Authenticated {
		return errNotLoggedIn
	}
	return nil
}
