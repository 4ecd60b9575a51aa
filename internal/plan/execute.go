package plan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Execute runs EXPLAIN ANALYZE for sql inside a transaction that is always
// rolled back, and returns the raw JSON plan. A positive timeout bounds both
// the client call and the server-side statement.
func Execute(ctx context.Context, dbConn string, sql string, timeout time.Duration) ([]byte, error) {
	query := strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
	if query == "" {
		return nil, fmt.Errorf("empty SQL statement")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := pgx.Connect(ctx, dbConn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if timeout > 0 {
		setTimeout := fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout.Milliseconds())
		if _, err := tx.Exec(ctx, setTimeout); err != nil {
			return nil, fmt.Errorf("setting statement timeout: %w", err)
		}
	}

	var payload []byte
	if err := tx.QueryRow(ctx, "EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) "+query).Scan(&payload); err != nil {
		return nil, fmt.Errorf("executing EXPLAIN: %w", err)
	}

	return payload, nil
}
