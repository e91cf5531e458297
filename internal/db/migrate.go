package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registra el driver "pgx" para database/sql
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

var (
	openSQL     = sql.Open
	runMigrator = func(ctx context.Context, database *sql.DB, command string, args ...string) error {
		return goose.RunContext(ctx, command, database, migrationsDir, args...)
	}
)

func init() {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}
}

// Migrate corre un comando de goose (up, down, status, ...) contra las
// migraciones embebidas. goose trabaja sobre database/sql, por eso se abre
// una conexión aparte con el driver stdlib de pgx.
func Migrate(ctx context.Context, databaseURL, command string, args ...string) error {
	database, err := openSQL("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations connection: %w", err)
	}
	defer database.Close()

	if err := runMigrator(ctx, database, command, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	return nil
}
