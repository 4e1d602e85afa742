package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// WaitForPostgres polls the server until it answers or ctx is done. Used by the CLI before
// migrating inside docker-compose, where the database container may still be starting.
func WaitForPostgres(ctx context.Context, dsn string, every time.Duration) error {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer conn.Close()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready: %w", err)
		case <-ticker.C:
		}
	}
}
