// Package executor resolves a connection configuration into a query
// executor for one of the supported database drivers.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Database drivers register themselves with database/sql.
	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/datadrift/sqlsentinel/internal/check"
	"github.com/datadrift/sqlsentinel/internal/config"
)

const (
	DriverClickhouse = "clickhouse"
	DriverMySQL      = "mysql"
	DriverPostgres   = "postgres"

	pingTimeout = 5 * time.Second
)

// Client executes queries against one database connection pool. The
// underlying pool is safe for concurrent use, so evaluators may issue
// queries in parallel through one Client.
type Client struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open resolves the connection type to a driver and DSN, opens the pool
// and verifies connectivity. Unsupported connection types are rejected
// before anything is dialed.
func Open(log logrus.FieldLogger, conn config.Connection) (*Client, error) {
	dsn, err := buildDSN(conn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(conn.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", conn.Driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &check.ExecError{Reason: fmt.Sprintf("pinging %s", conn.Driver), Err: err}
	}

	return &Client{
		db:  db,
		log: log.WithField("component", "executor").WithField("driver", conn.Driver),
	}, nil
}

// buildDSN renders the driver-specific connection string.
func buildDSN(conn config.Connection) (string, error) {
	switch conn.Driver {
	case DriverClickhouse:
		return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
			conn.Username, conn.Password, conn.Host, conn.Port, conn.Database), nil
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			conn.Username, conn.Password, conn.Host, conn.Port, conn.Database), nil
	case DriverPostgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			conn.Username, conn.Password, conn.Host, conn.Port, conn.Database), nil
	default:
		return "", &check.ConfigError{Reason: fmt.Sprintf("connection type not supported: %s", conn.Driver)}
	}
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}

// FetchRow returns the first row of the result set as scalars, or nil
// when the query produced no rows. Byte slices are converted to strings
// so callers see comparable values regardless of driver.
func (c *Client) FetchRow(ctx context.Context, query string) ([]any, error) {
	c.log.WithField("query", query).Debug("fetching row")

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting columns: %w", err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading result: %w", err)
		}
		return nil, nil
	}

	values, err := scanValues(rows, len(columns))
	if err != nil {
		return nil, err
	}

	return values, nil
}

// FetchTable returns every row of the result set as records keyed by
// column name, in the order the database returned them.
func (c *Client) FetchTable(ctx context.Context, query string) ([]check.Record, error) {
	c.log.WithField("query", query).Debug("fetching table")

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting columns: %w", err)
	}

	var records []check.Record

	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, err
		}

		record := make(check.Record, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	return records, nil
}

func scanValues(rows *sql.Rows, width int) ([]any, error) {
	var (
		values    = make([]any, width)
		valuePtrs = make([]any, width)
	)

	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}

	for i, val := range values {
		if b, ok := val.([]byte); ok {
			values[i] = string(b)
		}
	}

	return values, nil
}
