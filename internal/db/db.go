package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// applicationName identifica las conexiones de la API en pg_stat_activity.
const applicationName = "inventory-pos-api"

const connectTimeout = 5 * time.Second

type poolPinger interface {
	Ping(ctx context.Context) error
	Close()
}

var (
	parseConfig = pgxpool.ParseConfig
	newPool     = pgxpool.NewWithConfig
	pingPool    = func(ctx context.Context, pool poolPinger) error {
		return pool.Ping(ctx)
	}
	closePool = func(pool poolPinger) {
		pool.Close()
	}
)

// NewPool crea un pool de conexiones a PostgreSQL.
// Los parámetros del pool (pool_max_conns, pool_max_conn_idle_time, ...) se pasan en la URL.
// Se usa un timeout corto para que el arranque no quede colgado si la DB no responde.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := parseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := newPool(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	// La app no arranca "a medias": sin ping no hay pool.
	if err := pingPool(ctx, pool); err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
