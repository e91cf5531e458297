package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lelo88/inventory-pos-api/internal/config"
	"github.com/Lelo88/inventory-pos-api/internal/db"
	"github.com/Lelo88/inventory-pos-api/internal/docs"
	"github.com/Lelo88/inventory-pos-api/internal/health"
	"github.com/Lelo88/inventory-pos-api/internal/httpx"
	"github.com/Lelo88/inventory-pos-api/internal/products"
	"github.com/Lelo88/inventory-pos-api/internal/sales"
	"github.com/Lelo88/inventory-pos-api/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// appPool es lo que la app necesita del pool: queries, transacciones, ping y cierre.
// *pgxpool.Pool lo cumple; en tests se usa un fake.
type appPool interface {
	db.Pool
	Ping(ctx context.Context) error
	Close()
}

// appDeps agrupa las dependencias externas de run para poder testearlo.
type appDeps struct {
	loadConfig     func() (config.Config, error)
	newPool        func(ctx context.Context, url string) (appPool, error)
	migrate        func(ctx context.Context, url string) error
	setupTracing   func(ctx context.Context, options telemetry.Options) (telemetry.ShutdownFunc, error)
	listenAndServe func(ctx context.Context, addr string, handler http.Handler) error
	logf           func(format string, args ...any)
	logOutput      io.Writer
}

var (
	loadConfigFn = config.Load
	newPoolFn    = func(ctx context.Context, url string) (appPool, error) {
		pool, err := db.NewPool(ctx, url)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}
	migrateFn = func(ctx context.Context, url string) error {
		return db.Migrate(ctx, url, "up")
	}
	setupTracingFn   = telemetry.Setup
	listenAndServeFn = serveHTTP
	logfFn           = func(format string, args ...any) {
		slog.Info(fmt.Sprintf(format, args...))
	}
	fatalf = log.Fatal
)

func main() {
	// SIGINT/SIGTERM cancelan el contexto y disparan el shutdown ordenado.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := appDeps{
		loadConfig:     loadConfigFn,
		newPool:        newPoolFn,
		migrate:        migrateFn,
		setupTracing:   setupTracingFn,
		listenAndServe: listenAndServeFn,
		logf:           logfFn,
		logOutput:      os.Stdout,
	}

	if err := run(ctx, deps); err != nil {
		fatalf(err)
	}
}

func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(deps.logOutput, cfg.LogLevel)
	slog.SetDefault(logger)

	shutdownTracing, err := deps.setupTracing(ctx, telemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		// El contexto del proceso ya puede estar cancelado: el flush usa uno propio.
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	if cfg.AutoMigrate {
		if err := deps.migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := deps.newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	router := buildRouter(pool, cfg.RequestTimeout, logger)

	addr := ":" + cfg.Port
	deps.logf("listening on %s", addr)
	return deps.listenAndServe(ctx, addr, router)
}

// newLogger arma el logger JSON de la app. Sin writer escribe a stdout.
func newLogger(output io.Writer, level slog.Level) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))
}

func buildRouter(pool appPool, requestTimeout time.Duration, logger *slog.Logger) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	// "/Product/" y "/Product" resuelven a la misma ruta.
	r.Use(middleware.StripSlashes)

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	healthHandler := health.New(pool)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	docs.RegisterRoutes(r)

	productService := products.NewService(products.NewRepository(pool))
	products.RegisterRoutes(r, products.NewHandler(productService, logger))

	saleService := sales.NewService(sales.NewRepository(pool), logger)
	sales.RegisterRoutes(r, sales.NewHandler(saleService, logger))

	return r
}

// serveHTTP atiende hasta que ctx se cancela y después cierra el server
// esperando a que terminen los requests en curso.
func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
