// Command migrate aplica las migraciones embebidas con goose.
//
//	go run ./cmd/migrate            # up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down-to 0
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/Lelo88/inventory-pos-api/internal/config"
	"github.com/Lelo88/inventory-pos-api/internal/db"
)

var (
	loadConfigFn = config.Load
	migrateFn    = db.Migrate
	fatalf       = log.Fatal
)

func main() {
	flag.Parse()

	// status y version informan por el logger de goose.
	goose.SetLogger(slog.NewLogLogger(slog.NewTextHandler(os.Stdout, nil), slog.LevelInfo))

	if err := run(context.Background(), flag.Args()); err != nil {
		fatalf(err)
	}
}

func run(ctx context.Context, arguments []string) error {
	cfg, err := loadConfigFn()
	if err != nil {
		return err
	}

	// Sin comando se asume "up".
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}

	command := arguments[0]
	if err := migrateFn(ctx, cfg.DatabaseURL, command, arguments[1:]...); err != nil {
		return err
	}

	fmt.Printf("goose %s success\n", command)
	return nil
}
