// Package migrations embeds the schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/filmdoms/community/internal/common/logger"
)

//go:embed *.sql
var FS embed.FS

// Up applies every pending migration. goose works on database/sql, so it
// gets its own short-lived connection through the pgx stdlib driver.
func Up(ctx context.Context, databaseURL string, log *logger.Logger) error {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, conn, FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Infof("migration applied: %s (%s)", r.Source.Path, r.Duration)
	}
	return nil
}
