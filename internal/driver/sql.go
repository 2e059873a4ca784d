package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Side-effect registration with database/sql. These drivers back the
	// mysql, postgres, and sqlite providers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relaydb/relay/internal/dialect"
)

func init() {
	Register("mysql", sqlFactory("mysql", dialect.MySQL, mysqlDSN))
	Register("postgres", sqlFactory("postgres", dialect.Postgres, postgresDSN))
	Register("sqlite", sqlFactory("sqlite3", dialect.SQLite, sqliteDSN))
}

func mysqlDSN(cfg Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Database)
}

func postgresDSN(cfg Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.Database)
}

// sqliteDSN treats the db field as a file path. The busy timeout keeps
// concurrent chains from failing immediately on lock contention.
func sqliteDSN(cfg Config) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", cfg.Database)
}

// sqlFactory builds a provider over database/sql for one driver. The
// returned provider pools idle connections up to MaxConnections; the dial
// function carries the bounded connect retry loop.
func sqlFactory(driverName string, d dialect.Dialect, dsn func(Config) string) Factory {
	return func(cfg Config) (ConnectionProvider, error) {
		db, err := sql.Open(driverName, dsn(cfg))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Software, err)
		}
		// The pool below owns idle lifecycle; database/sql's own idle
		// pool would double-buffer, so keep it out of the way.
		db.SetMaxIdleConns(0)

		pool := NewPool(cfg.MaxConnections, func(ctx context.Context) (Connection, error) {
			conn, err := dialWithRetry(ctx, db, cfg)
			if err != nil {
				return nil, err
			}
			return &sqlConn{conn: conn, dialect: d}, nil
		})
		return &sqlProvider{db: db, Pool: pool}, nil
	}
}

// dialWithRetry checks a connection out of database/sql, retrying up to
// MaxRetries with RetryInterval between attempts.
func dialWithRetry(ctx context.Context, db *sql.DB, cfg Config) (*sql.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
		}
		conn, err := db.Conn(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("connect after %d attempts: %w", cfg.MaxRetries, lastErr)
}

type sqlProvider struct {
	*Pool
	db *sql.DB
}

func (p *sqlProvider) Close() error {
	_ = p.Pool.Close()
	return p.db.Close()
}

// sqlConn adapts one *sql.Conn to the Connection interface. Statements run
// on the open transaction once Begin has been called.
type sqlConn struct {
	conn    *sql.Conn
	tx      *sql.Tx
	dialect dialect.Dialect
}

func (c *sqlConn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *sqlConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := c.tx.Commit()
	c.tx = nil
	return err
}

func (c *sqlConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	return err
}

func (c *sqlConn) ExecuteRaw(ctx context.Context, sqlText string) (*Result, error) {
	if isRowQuery(sqlText) {
		return c.query(ctx, sqlText)
	}
	return c.exec(ctx, sqlText)
}

func (c *sqlConn) query(ctx context.Context, sqlText string) (*Result, error) {
	var rows *sql.Rows
	var err error
	if c.tx != nil {
		rows, err = c.tx.QueryContext(ctx, sqlText)
	} else {
		rows, err = c.conn.QueryContext(ctx, sqlText)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scanned, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	return &Result{Rows: scanned}, nil
}

func (c *sqlConn) exec(ctx context.Context, sqlText string) (*Result, error) {
	var res sql.Result
	var err error
	if c.tx != nil {
		res, err = c.tx.ExecContext(ctx, sqlText)
	} else {
		res, err = c.conn.ExecContext(ctx, sqlText)
	}
	if err != nil {
		return nil, err
	}

	out := &Result{}
	// Not every driver reports insert ids (lib/pq returns an error); the
	// executor falls back to the statement's return columns then.
	if id, idErr := res.LastInsertId(); idErr == nil && id != 0 {
		out.LastID = id
	}
	return out, nil
}

func (c *sqlConn) Dialect() dialect.Dialect { return c.dialect }

func (c *sqlConn) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	return c.conn.Close()
}

// isRowQuery reports whether the rendered text returns a result set.
func isRowQuery(sqlText string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlText)), "SELECT")
}

// scanRows converts a generic result set into row maps. Byte slices
// become strings: text columns arrive as []byte from several drivers and
// chain consumers expect comparable values.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
