// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/httpapi"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/store"
	"github.com/gatehouse/gatehouse/internal/xdg"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the Gatehouse server: the user API (login, logout, register,
password change) plus the metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configFile
			if path == "" {
				if _, err := os.Stat(xdg.ConfigFile()); err == nil {
					path = xdg.ConfigFile()
				}
			}
			cfg, err := LoadConfig(path, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	registerServeFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, cfg *Config) error {
	logging.SetDefault("gatehouse", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		migrator, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close() //nolint:errcheck // migration error takes precedence
			return err
		}
		if err := migrator.Close(); err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	sessionStore, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	sessions, err := session.NewManager(sessionStore, cfg.Session.TTL)
	if err != nil {
		return err
	}

	users := authpg.NewUserRepository(pool)
	svc, err := auth.NewService(users, sessions, auth.NewArgon2idHasher(), slog.Default())
	if err != nil {
		return err
	}

	var obs *observability.Server
	var obsErrCh <-chan error
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, func() bool {
			return pool.Ping(ctx) == nil
		})
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		metrics = obs.Metrics()
	}

	api, err := httpapi.NewAPI(svc, sessions, metrics, slog.Default())
	if err != nil {
		return err
	}

	apiSrv := httpapi.NewServer(cfg.HTTP.Addr, api.Routes())
	apiErrCh, err := apiSrv.Start()
	if err != nil {
		return err
	}

	go sweepSessions(ctx, sessions, metrics, cfg.Session.SweepInterval)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err = <-apiErrCh:
		errutil.LogError(slog.Default(), "api server failed", err)
	case obsErr, ok := <-obsErrCh:
		if ok {
			err = obsErr
			errutil.LogError(slog.Default(), "observability server failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := apiSrv.Stop(shutdownCtx); stopErr != nil {
		errutil.LogError(slog.Default(), "api server shutdown failed", stopErr)
	}
	if obs != nil {
		if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
			errutil.LogError(slog.Default(), "observability server shutdown failed", stopErr)
		}
	}
	return err
}

// newSessionStore picks the session backend: Redis when configured, the
// in-process store otherwise.
func newSessionStore(ctx context.Context, cfg *Config) (session.Store, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Info("using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").
			With("operation", "parse redis url").
			Wrap(err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // connect error takes precedence
		return nil, nil, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
	}

	redisStore, err := session.NewRedisStore(client)
	if err != nil {
		_ = client.Close() //nolint:errcheck // store error takes precedence
		return nil, nil, err
	}

	slog.Info("using redis session store")
	return redisStore, func() {
		if closeErr := client.Close(); closeErr != nil {
			slog.Error("redis close failed", "error", closeErr)
		}
	}, nil
}

// sweepSessions periodically drops expired sessions.
func sweepSessions(ctx context.Context, sessions *session.Manager, metrics *observability.Metrics, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := sessions.Sweep(ctx)
			if err != nil {
				errutil.LogError(slog.Default(), "session sweep failed", err)
				continue
			}
			if swept > 0 {
				slog.Debug("expired sessions swept", "count", swept)
				if metrics != nil {
					metrics.SessionsSwept.Add(float64(swept))
				}
			}
		}
	}
}
