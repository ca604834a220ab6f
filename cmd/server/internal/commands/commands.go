package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/store"
	memorystore "github.com/wolfeidau/tracker/internal/store/memory"
	postgresstore "github.com/wolfeidau/tracker/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

type PostgresFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Transaction Configuration
	MaxTxAttempts uint `help:"attempts for a transaction that keeps hitting serialization conflicts" default:"5" env:"TRACKER_POSTGRES_MAX_TX_ATTEMPTS"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"TRACKER_POSTGRES_AUTO_MIGRATE"`
}

func (p *PostgresFlags) Validate() error {
	if p.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (p *PostgresFlags) poolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:      p.ConnString,
		MaxConns:        p.MaxConns,
		MinConns:        p.MinConns,
		MaxConnLifetime: p.MaxConnLifetime,
		MaxConnIdleTime: p.MaxConnIdleTime,
	}
}

// open connects to PostgreSQL, optionally migrating the schema first.
func (p *PostgresFlags) open(ctx context.Context) (*postgresstore.Store, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	pool, err := postgresstore.NewPool(ctx, p.poolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if p.AutoMigrate {
		if err := postgresstore.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed")
	}

	st, err := postgresstore.NewStore(pool, postgresstore.StoreConfig{MaxTxAttempts: p.MaxTxAttempts})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return st, nil
}

func openStore(ctx context.Context, storeType string, pg *PostgresFlags) (store.Store, error) {
	switch storeType {
	case "postgres":
		st, err := pg.open(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Using PostgreSQL store")
		return st, nil
	default:
		log.Info().Msg("Using in-memory store")
		return memorystore.NewStore(), nil
	}
}

type AuthFlags struct {
	SigningKey     string        `help:"PEM encoded ES256 private key used to sign access tokens" env:"TRACKER_AUTH_SIGNING_KEY"`
	SigningKeyFile string        `help:"path to a PEM encoded ES256 private key" type:"existingfile" env:"TRACKER_AUTH_SIGNING_KEY_FILE"`
	Issuer         string        `help:"issuer claim of access tokens" default:"tracker" env:"TRACKER_AUTH_ISSUER"`
	TokenTTL       time.Duration `help:"lifetime of access tokens" default:"1h" env:"TRACKER_AUTH_TOKEN_TTL"`
}

// signingKey returns the configured private key PEM, or "" when none is set.
func (a *AuthFlags) signingKey() (string, error) {
	if a.SigningKey != "" {
		return a.SigningKey, nil
	}
	if a.SigningKeyFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(a.SigningKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read signing key: %w", err)
	}
	return string(data), nil
}

// issuer builds the token issuer. With allowEphemeral a throwaway key is
// generated when none is configured; tokens then die with the process.
func (a *AuthFlags) issuer(allowEphemeral bool) (*auth.TokenIssuer, error) {
	key, err := a.signingKey()
	if err != nil {
		return nil, err
	}

	if key == "" {
		if !allowEphemeral {
			return nil, errors.New("token signing key is required (--auth-signing-key or --auth-signing-key-file)")
		}
		log.Warn().Msg("No signing key configured, generating an ephemeral key (development only)")
		if key, _, err = auth.GenerateSigningKey(); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
	}

	return auth.NewTokenIssuer(key, a.Issuer, a.TokenTTL)
}
