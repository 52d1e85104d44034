package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hfsrb/hfsrb/internal/retry"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// Authentication methods.
const (
	AuthPassword       = "password"
	AuthAWSIAM         = "aws-iam"
	AuthAzureEntra     = "azure-entra"
	AuthGoogleCloudSQL = "gcp-cloudsql"
)

const (
	DefaultMaxConns        = 4
	DefaultMaxAttempts     = 3
	DefaultMaxConnIdleTime = 5 * time.Minute
)

// Options describe how to reach the database.
type Options struct {
	URL        string
	AuthMethod string
	AWSRegion  string

	// Service principal for AuthAzureEntra; all empty selects the default
	// credential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// CloudSQLInstance is the project:region:instance name for AuthGoogleCloudSQL.
	CloudSQLInstance string

	MaxConns    int32
	MaxAttempts int
}

// Connector opens a ready-to-use pool.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// PoolConnector opens pools for one set of Options. Close it after the pool
// to release a Cloud SQL dialer.
type PoolConnector struct {
	opts     Options
	tokens   TokenProvider
	dialer   Dialer
	executor *retry.Executor
	logger   hfsrb.Logger
}

// NewConnector validates opts and returns a connector for its auth method.
func NewConnector(opts Options, logger hfsrb.Logger) (*PoolConnector, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: postgres connection URL is empty", hfsrb.ErrInvalidConfig)
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultMaxConns
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	c := &PoolConnector{
		opts:     opts,
		executor: retry.NewExecutor(retry.NewPostgresClassifier(), retry.NewExponentialBackoff(opts.MaxAttempts)),
		logger:   logger,
	}

	switch opts.AuthMethod {
	case "", AuthPassword:
	case AuthAWSIAM:
		cfg, err := pgx.ParseConfig(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres URL: %v", hfsrb.ErrInvalidConfig, err)
		}
		tokens, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), opts.AWSRegion, cfg.User)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", hfsrb.ErrInvalidConfig, err)
		}
		c.tokens = tokens
	case AuthAzureEntra:
		tokens, err := NewAzureTokenProvider(opts.AzureTenantID, opts.AzureClientID, opts.AzureClientSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", hfsrb.ErrInvalidConfig, err)
		}
		c.tokens = tokens
	case AuthGoogleCloudSQL:
		if !validInstance(opts.CloudSQLInstance) {
			return nil, fmt.Errorf("%w: Cloud SQL auth requires an instance connection name (project:region:instance), got %q",
				hfsrb.ErrInvalidConfig, opts.CloudSQLInstance)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported auth method %q", hfsrb.ErrInvalidConfig, opts.AuthMethod)
	}
	return c, nil
}

// WithTokenProvider replaces the token source; used for IAM tests.
func (c *PoolConnector) WithTokenProvider(p TokenProvider) *PoolConnector {
	clone := *c
	clone.tokens = p
	return &clone
}

// WithDialer replaces the Cloud SQL dialer.
func (c *PoolConnector) WithDialer(d Dialer) *PoolConnector {
	clone := *c
	clone.dialer = d
	return &clone
}

// Close releases the Cloud SQL dialer, if one was opened.
func (c *PoolConnector) Close() error {
	if c.dialer == nil {
		return nil
	}
	err := c.dialer.Close()
	c.dialer = nil
	return err
}

// Connect opens and pings a pool, retrying transient failures.
func (c *PoolConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if c.opts.AuthMethod == AuthGoogleCloudSQL && c.dialer == nil {
		d, err := NewCloudSQLDialer(ctx)
		if err != nil {
			return nil, err
		}
		c.dialer = d
	}
	poolConfig, err := c.poolConfig()
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	executor := c.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		c.logger.Verbose("postgres connect attempt %d failed (%v), retrying in %v", attempt+1, err, delay.Round(time.Millisecond))
	})
	err = executor.Execute(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, poolConfig.ConnConfig)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return wrapConnectionError(err, poolConfig.ConnConfig)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (c *PoolConnector) poolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres URL: %v", hfsrb.ErrInvalidConfig, err)
	}
	poolConfig.MaxConns = c.opts.MaxConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime

	if c.tokens != nil {
		tokens := c.tokens
		poolConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, expiresOn, err := tokens.GetToken(ctx)
			if err != nil {
				return fmt.Errorf("acquire %s token: %w", tokens, err)
			}
			if time.Until(expiresOn) < time.Minute {
				c.logger.Info("⚠ %s token expires in %v", tokens, time.Until(expiresOn).Round(time.Second))
			}
			cc.Password = token
			return nil
		}
	}

	if c.opts.AuthMethod == AuthGoogleCloudSQL {
		if c.dialer == nil {
			return nil, errors.New("the Cloud SQL dialer is not open")
		}
		// The dialer carries TLS and IAM auth; pgx talks plain protocol over it.
		dialer, instance := c.dialer, c.opts.CloudSQLInstance
		poolConfig.ConnConfig.TLSConfig = nil
		poolConfig.ConnConfig.Fallbacks = nil
		poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	}
	return poolConfig, nil
}

// wrapConnectionError adds a hint for the common connection failures.
func wrapConnectionError(err error, cc *pgx.ConnConfig) error {
	msg := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", cc.Host, cc.Port)

	var hint string
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "actively refused"):
		hint = fmt.Sprintf("connection refused to %s (is PostgreSQL running? check: pg_isready -h %s -p %d)", addr, cc.Host, cc.Port)
	case strings.Contains(msg, "no such host"):
		hint = fmt.Sprintf("cannot resolve host %q", cc.Host)
	case strings.Contains(msg, "password authentication failed"), strings.Contains(msg, "pam authentication failed"):
		hint = fmt.Sprintf("authentication failed for user %q on database %q (check DATABASE_URL or the IAM grant)", cc.User, cc.Database)
	case strings.Contains(msg, "does not exist"):
		hint = fmt.Sprintf("database %q does not exist (create it with: createdb %s)", cc.Database, cc.Database)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		hint = fmt.Sprintf("connection timed out to %s", addr)
	default:
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	return fmt.Errorf("%s: %w", hint, err)
}
