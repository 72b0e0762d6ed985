// Package history records verification verdicts in ClickHouse so that
// limit regressions across compiler or shader revisions can be queried.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/gogpu/gpuverify"
)

// ErrInvalidIdentifier is returned for database or table names that are not
// plain SQL identifiers.
var ErrInvalidIdentifier = errors.New("history: invalid identifier")

// Conn is the part of a ClickHouse connection the recorder uses.
// clickhouse.Conn satisfies it.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// Entry is one verified input.
type Entry struct {
	Source    string
	Profile   string
	Kernels   int
	Passed    bool
	CheckedAt time.Time
}

// Options configures Dial.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// Dial opens a ClickHouse connection and checks that the server answers.
func Dial(ctx context.Context, opts Options) (clickhouse.Conn, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: timeout,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping %s: %w", opts.Addr, err)
	}
	return conn, nil
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Recorder writes entries to one table.
type Recorder struct {
	conn     Conn
	database string
	table    string
}

// NewRecorder returns a recorder for database.table on conn.
func NewRecorder(conn Conn, database, table string) (*Recorder, error) {
	for _, id := range []string{database, table} {
		if !identRE.MatchString(id) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	return &Recorder{conn: conn, database: database, table: table}, nil
}

func (r *Recorder) qualified() string {
	return r.database + "." + r.table
}

// EnsureSchema creates the database and table if they do not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	dbDDL := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", r.database)
	if err := r.conn.Exec(ctx, dbDDL); err != nil {
		return fmt.Errorf("history: create database: %w", err)
	}

	tableDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			source String,
			profile LowCardinality(String),
			kernels UInt32,
			passed Bool,
			checked_at DateTime64(3)
		)
		ENGINE = MergeTree
		ORDER BY (profile, source, checked_at)
	`, r.qualified())
	if err := r.conn.Exec(ctx, tableDDL); err != nil {
		return fmt.Errorf("history: create table: %w", err)
	}
	return nil
}

// Record inserts entries in one statement. Entries without a timestamp
// are stamped with the current time.
func (r *Recorder) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]string, len(entries))
	args := make([]any, 0, 5*len(entries))
	for i, e := range entries {
		if e.CheckedAt.IsZero() {
			e.CheckedAt = now
		}
		rows[i] = "(?, ?, ?, ?, ?)"
		args = append(args, e.Source, e.Profile, uint32(max(e.Kernels, 0)), e.Passed, e.CheckedAt)
	}

	q := fmt.Sprintf("INSERT INTO %s (source, profile, kernels, passed, checked_at) VALUES %s",
		r.qualified(), strings.Join(rows, ", "))
	if err := r.conn.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}

	gpuverify.Logger().Debug("history: recorded verdicts", "table", r.qualified(), "rows", len(entries))
	return nil
}

// Close closes the underlying connection if it can be closed.
func (r *Recorder) Close() error {
	if c, ok := r.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
