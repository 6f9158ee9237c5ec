package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cvaize/ralaver-sub001/internal/retry"
	"github.com/pkg/errors"
)

const (
	DefaultConnectionAttempts    = 100
	DefaultConnectionTimeout     = 60 * time.Second
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		MaxTimeout:  DefaultConnectionTimeout,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

// SQLConnector checks a single connection out of the pool
type SQLConnector interface {
	Connect(ctx context.Context) (*sql.Conn, error)
	Close() error
}

// RetryingConnector keeps the checked out connection until Close, so
// every call to Connect returns the same session
type RetryingConnector struct {
	options *ConnectOptions
	db      *sql.DB
	conn    *sql.Conn
}

var _ SQLConnector = (*RetryingConnector)(nil)

func MakeRetryingConnector(db *sql.DB, options *ConnectOptions) *RetryingConnector {
	if options == nil {
		options = NewDefaultConnectOptions()
	}

	return &RetryingConnector{db: db, options: options}
}

func (c *RetryingConnector) Connect(ctx context.Context) (*sql.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	if c.options.MaxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.MaxTimeout)
		defer cancel()
	}

	err := retry.Incremental(ctx, c.options.RetryStep, c.options.MaxAttempts, func(attempt int) error {
		conn, err := c.db.Conn(ctx)
		if err != nil {
			return retry.Error(errors.Wrap(err, "could not establish DB connection"), attempt)
		}

		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return retry.Error(errors.Wrap(err, "db ping failed"), attempt)
		}

		c.conn = conn
		return nil
	})

	if err != nil {
		return nil, err
	}

	return c.conn, nil
}

func (c *RetryingConnector) Close() error {
	if c.conn == nil {
		return nil
	}

	conn := c.conn
	c.conn = nil

	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "retrying connector could not close the connection")
	}

	return nil
}
