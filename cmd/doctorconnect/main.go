package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zatekoja/doctorconnect/internal/adapters/cache"
	"github.com/zatekoja/doctorconnect/internal/application/services"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/clients/doctorapi"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/clients/redis"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/observability"
	"github.com/zatekoja/doctorconnect/internal/session"
	"github.com/zatekoja/doctorconnect/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cleanup := newRootCmd()
	err := root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "doctorconnect:", err)
		os.Exit(1)
	}
}

// app is everything a command needs, built once per invocation
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *observability.Metrics
	client   doctorapi.Client
	sessions *session.Store
	profiles *services.DoctorProfileService
	inbox    *services.DoctorAppointmentsService

	closers []func(context.Context) error
}

// newRootCmd builds the command tree. cleanup flushes and closes whatever the
// invoked command set up, whether or not it succeeded.
func newRootCmd() (*cobra.Command, func()) {
	var a *app

	root := &cobra.Command{
		Use:           "doctorconnect",
		Short:         "Find doctors and request appointments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a, err = newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.authenticate(cmd)
		},
	}

	current := func() *app { return a }
	root.AddCommand(
		whoamiCmd(current),
		registerCmd(current),
		doctorsCmd(current),
		doctorCmd(current),
		bookCmd(current),
		appointmentsCmd(current),
		logoutCmd(current),
	)

	cleanup := func() {
		if a != nil {
			a.close()
		}
	}
	return root, cleanup
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)
	logger := log.Logger

	a := &app{cfg: cfg, logger: logger}

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry, continuing without tracing")
		} else {
			a.closers = append(a.closers, shutdown)
			logger.Debug().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.metrics = metrics

	a.client = doctorapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, doctorapi.WithInstrumentation(logger, metrics))
	a.sessions = session.NewStore(a.client, logger)
	a.profiles = services.NewDoctorProfileService(a.client, a.profileCache(ctx), cfg.Cache.ProfileTTL, logger, metrics)
	a.inbox = services.NewDoctorAppointmentsService(a.sessions, a.client, logger)

	return a, nil
}

// profileCache picks the configured backend. An unreachable Redis falls back
// to the in-process cache.
func (a *app) profileCache(ctx context.Context) providers.CacheProvider {
	memory := cache.NewMemoryAdapter(a.cfg.Cache.ProfileTTL, 2*a.cfg.Cache.ProfileTTL)
	if a.cfg.Cache.Backend != config.CacheBackendRedis {
		return memory
	}

	client, err := redis.NewClient(ctx, &a.cfg.Redis)
	if err != nil {
		a.logger.Warn().Err(err).Msg("redis unavailable, caching doctor profiles in memory")
		return memory
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return cache.NewRedisAdapter(client, "doctorconnect:")
}

// skipSignInAnnotation marks commands that must not sign in with the
// configured credentials before running
const skipSignInAnnotation = "doctorconnect/skip-sign-in"

// authenticate restores the session and, when credentials are configured
// and nobody is signed in, signs in with them.
func (a *app) authenticate(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.sessions.Restore(ctx)
	if a.sessions.Current() != nil || a.cfg.Auth.Email == "" {
		return nil
	}
	if _, skip := cmd.Annotations[skipSignInAnnotation]; skip {
		return nil
	}

	user, err := a.sessions.SignIn(ctx, a.cfg.Auth.Email, a.cfg.Auth.Password)
	if err != nil {
		return err
	}
	a.logger.Debug().Str("user_id", user.ID).Str("landing", session.LandingPath(user.Role)).Msg("signed in")
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn().Err(err).Msg("shutdown step failed")
		}
	}
	a.closers = nil
}
