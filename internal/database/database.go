package database

import (
	"context"
	"errors"
	"net"
	"net/url"
)

var (
	// ErrNotFound means the statement matched no record
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a unique index rejected the write
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection covers dialing, sign-in and use-namespace failures,
	// and calls made before Connect
	ErrConnection = errors.New("database connection error")

	// ErrQuery is any other statement failure
	ErrQuery = errors.New("query error")
)

// Querier is the slice of the store that repositories depend on
type Querier interface {
	// Query returns one {status, result} entry per statement
	Query(ctx context.Context, query string, vars map[string]any) ([]any, error)

	// QueryOne returns the first record of the first statement, or ErrNotFound
	QueryOne(ctx context.Context, query string, vars map[string]any) (any, error)

	// Execute runs query and discards its results
	Execute(ctx context.Context, query string, vars map[string]any) error
}

// Database is a Querier with a connection lifecycle
type Database interface {
	Querier

	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Config locates and authenticates against one namespace/database pair
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Endpoint returns the websocket RPC URL for the configured host
func (c Config) Endpoint() string {
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(c.Host, c.Port)}
	return u.String()
}
