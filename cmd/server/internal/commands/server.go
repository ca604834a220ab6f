package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/tracker/internal/logger"
	"github.com/wolfeidau/tracker/internal/seed"
	"github.com/wolfeidau/tracker/internal/server"
	"github.com/wolfeidau/tracker/internal/service"
	"github.com/wolfeidau/tracker/internal/telemetry"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"TRACKER_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"TRACKER_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"TRACKER_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" env:"TRACKER_CORS_ORIGINS"`

	// Login throttling
	LoginRate  float64 `help:"sustained login attempts per second per client IP" default:"1" env:"TRACKER_LOGIN_RATE"`
	LoginBurst int     `help:"login attempts allowed in a burst per client IP" default:"5" env:"TRACKER_LOGIN_BURST"`

	PasswordCost int    `help:"bcrypt cost for new password hashes" default:"12" env:"TRACKER_PASSWORD_COST"`
	Seed         string `help:"YAML fixtures applied on startup" type:"existingfile" env:"TRACKER_SEED"`

	Tracing            bool    `help:"enable tracing" default:"false" env:"TRACKER_TRACING"`
	TracingSampleRatio float64 `help:"fraction of new traces to sample" default:"1" env:"TRACKER_TRACING_SAMPLE_RATIO"`
	Environment        string  `help:"deployment environment reported with telemetry" env:"TRACKER_ENVIRONMENT"`

	// Store configuration
	StoreType string        `help:"store type (memory or postgres)" default:"memory" env:"TRACKER_STORE_TYPE" enum:"memory,postgres"`
	Postgres  PostgresFlags `embed:"" prefix:"postgres-"`
	Auth      AuthFlags     `embed:"" prefix:"auth-"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "tracker-server",
			Version:     globals.Version,
			Environment: c.Environment,
			StoreType:   c.StoreType,
			SampleRatio: c.TracingSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := openStore(ctx, c.StoreType, &c.Postgres)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := service.New(st, service.Config{PasswordCost: c.PasswordCost})
	if err != nil {
		return err
	}

	if c.Seed != "" {
		fixtures, err := seed.Load(c.Seed)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, svc, fixtures); err != nil {
			return fmt.Errorf("failed to apply seed: %w", err)
		}
	}

	issuer, err := c.Auth.issuer(c.StoreType == "memory")
	if err != nil {
		return err
	}

	api := server.New(svc, issuer, server.Config{
		AllowedOrigins: c.CORSOrigins,
		LoginRate:      c.LoginRate,
		LoginBurst:     c.LoginBurst,
		Logger:         log,
	})

	srv := configureHTTPServer(c.Listen, api.Handler())

	errCh := make(chan error, 1)
	go func() {
		tls := c.Cert != "" && c.Key != ""
		log.Info().Str("addr", c.Listen).Bool("tls", tls).Msg("Starting HTTP server")
		if tls {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
