package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Lelo88/inventory-pos-api/internal/config"
	"github.com/Lelo88/inventory-pos-api/internal/httpx"
	"github.com/Lelo88/inventory-pos-api/internal/telemetry"
)

type fakePool struct {
	pingCalled  bool
	closeCalled bool
	queries     []string
}

func (pool *fakePool) Ping(ctx context.Context) error {
	pool.pingCalled = true
	return nil
}

func (pool *fakePool) Close() {
	pool.closeCalled = true
}

func (pool *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool.queries = append(pool.queries, sql)
	return errRow{}
}

func (pool *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pool.queries = append(pool.queries, sql)
	return nil, errors.New("no database")
}

func (pool *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("no database")
}

func (pool *fakePool) BeginTx(ctx context.Context, options pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("no database")
}

type errRow struct{}

func (errRow) Scan(dest ...any) error {
	return pgx.ErrNoRows
}

func noopTracing(ctx context.Context, options telemetry.Options) (telemetry.ShutdownFunc, error) {
	return func(context.Context) error { return nil }, nil
}

func testDeps(cfg config.Config, pool *fakePool) appDeps {
	return appDeps{
		loadConfig: func() (config.Config, error) {
			return cfg, nil
		},
		newPool: func(ctx context.Context, url string) (appPool, error) {
			return pool, nil
		},
		migrate: func(ctx context.Context, url string) error {
			return errors.New("should not be called")
		},
		setupTracing: noopTracing,
		listenAndServe: func(ctx context.Context, addr string, handler http.Handler) error {
			return nil
		},
		logf:      func(format string, args ...any) {},
		logOutput: io.Discard,
	}
}

func testRouter(pool *fakePool) http.Handler {
	return buildRouter(pool, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMain_FatalOnError(t *testing.T) {
	originalLoad := loadConfigFn
	originalNewPool := newPoolFn
	originalListen := listenAndServeFn
	originalLogf := logfFn
	originalFatal := fatalf
	defer func() {
		loadConfigFn = originalLoad
		newPoolFn = originalNewPool
		listenAndServeFn = originalListen
		logfFn = originalLogf
		fatalf = originalFatal
	}()

	expectedErr := errors.New("config failed")
	loadConfigFn = func() (config.Config, error) {
		return config.Config{}, expectedErr
	}
	newPoolFn = func(ctx context.Context, url string) (appPool, error) {
		return nil, errors.New("should not be called")
	}
	listenAndServeFn = func(ctx context.Context, addr string, handler http.Handler) error {
		return nil
	}
	logfFn = func(format string, args ...any) {}

	fatalCalled := false
	var fatalArg any
	fatalf = func(args ...any) {
		fatalCalled = true
		if len(args) > 0 {
			fatalArg = args[0]
		}
	}

	main()

	require.True(t, fatalCalled)
	require.Equal(t, expectedErr, fatalArg)
}

func TestRun_ConfigError(t *testing.T) {
	deps := testDeps(config.Config{}, nil)
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("load failed")
	}
	deps.newPool = func(ctx context.Context, url string) (appPool, error) {
		return nil, errors.New("should not be called")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "load failed")
}

func TestRun_TracingError(t *testing.T) {
	tracingErr := errors.New("bad endpoint")
	deps := testDeps(config.Config{Port: "8080", DatabaseURL: "postgres://"}, &fakePool{})
	deps.setupTracing = func(ctx context.Context, options telemetry.Options) (telemetry.ShutdownFunc, error) {
		return nil, tracingErr
	}

	err := run(context.Background(), deps)

	require.ErrorIs(t, err, tracingErr)
}

func TestRun_NewPoolError(t *testing.T) {
	deps := testDeps(config.Config{Port: "8080", DatabaseURL: "postgres://"}, nil)
	poolErr := errors.New("new pool failed")
	deps.newPool = func(ctx context.Context, url string) (appPool, error) {
		return nil, poolErr
	}

	err := run(context.Background(), deps)

	require.ErrorIs(t, err, poolErr)
}

func TestRun_AutoMigrate(t *testing.T) {
	t.Run("runs before connecting", func(t *testing.T) {
		var steps []string
		deps := testDeps(config.Config{Port: "8080", DatabaseURL: "postgres://db", AutoMigrate: true}, &fakePool{})
		deps.migrate = func(ctx context.Context, url string) error {
			steps = append(steps, "migrate "+url)
			return nil
		}
		deps.newPool = func(ctx context.Context, url string) (appPool, error) {
			steps = append(steps, "pool")
			return &fakePool{}, nil
		}

		require.NoError(t, run(context.Background(), deps))
		require.Equal(t, []string{"migrate postgres://db", "pool"}, steps)
	})

	t.Run("migration error", func(t *testing.T) {
		migrateErr := errors.New("dirty database")
		deps := testDeps(config.Config{Port: "8080", DatabaseURL: "postgres://db", AutoMigrate: true}, &fakePool{})
		deps.migrate = func(ctx context.Context, url string) error {
			return migrateErr
		}

		err := run(context.Background(), deps)

		require.ErrorIs(t, err, migrateErr)
	})
}

func TestRun_ListenError(t *testing.T) {
	pool := &fakePool{}
	logged := ""
	deps := testDeps(config.Config{Port: "9090", DatabaseURL: "postgres://"}, pool)
	deps.listenAndServe = func(ctx context.Context, addr string, handler http.Handler) error {
		return errors.New("listen failed")
	}
	deps.logf = func(format string, args ...any) {
		logged = format
	}

	err := run(context.Background(), deps)

	require.Error(t, err)
	require.True(t, pool.closeCalled)
	require.Equal(t, "listening on %s", logged)
}

func TestRun_Success(t *testing.T) {
	pool := &fakePool{}
	var addr string
	var tracingOptions telemetry.Options
	flushed := false
	deps := testDeps(config.Config{Port: "7070", DatabaseURL: "postgres://", ServiceName: "pos"}, pool)
	deps.listenAndServe = func(ctx context.Context, listenAddr string, handler http.Handler) error {
		addr = listenAddr
		return nil
	}
	deps.setupTracing = func(ctx context.Context, options telemetry.Options) (telemetry.ShutdownFunc, error) {
		tracingOptions = options
		return func(context.Context) error {
			flushed = true
			return nil
		}, nil
	}

	err := run(context.Background(), deps)

	require.NoError(t, err)
	require.Equal(t, ":7070", addr)
	require.True(t, pool.closeCalled)
	require.Equal(t, "pos", tracingOptions.ServiceName)
	require.True(t, flushed)
}

func TestServeHTTP(t *testing.T) {
	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := serveHTTP(ctx, "127.0.0.1:0", http.NotFoundHandler())

		require.NoError(t, err)
	})

	t.Run("listen error", func(t *testing.T) {
		err := serveHTTP(context.Background(), "127.0.0.1:-1", http.NotFoundHandler())

		require.Error(t, err)
	})
}

func TestBuildRouter_HealthReady(t *testing.T) {
	pool := &fakePool{}
	router := testRouter(pool)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := asMap(t, resp.Data)
	require.Equal(t, "ok", data["status"])

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	data = asMap(t, resp.Data)
	require.Equal(t, "ready", data["status"])
	require.True(t, pool.pingCalled)
}

func TestBuildRouter_Resources(t *testing.T) {
	const id = "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"product not found", http.MethodGet, "/Product/" + id + "/", "", http.StatusNotFound, "not_found"},
		{"sale not found", http.MethodGet, "/Sale/" + id + "/", "", http.StatusNotFound, "not_found"},
		{"sale item not found", http.MethodGet, "/SaleItem/" + id, "", http.StatusNotFound, "not_found"},
		{"invalid product id", http.MethodGet, "/Product/abc/", "", http.StatusBadRequest, "invalid_id"},
		{"sale without items", http.MethodPost, "/Sale/", `{"customer_name":"Ana","customer_document_number":"1","items":[]}`, http.StatusBadRequest, "invalid_input"},
		{"database error is hidden", http.MethodGet, "/Product/", "", http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(&fakePool{})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			require.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBuildRouter_RequestIDInMeta(t *testing.T) {
	router := testRouter(&fakePool{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Meta)
	require.NotEmpty(t, resp.Meta.RequestID)
}

func TestBuildRouter_Docs(t *testing.T) {
	router := testRouter(&fakePool{})

	req := httptest.NewRequest(http.MethodGet, "/docs/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "swagger-ui")
}

func TestBuildRouter_NotFound(t *testing.T) {
	router := testRouter(&fakePool{})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	require.Equal(t, "not_found", resp.Error.Code)
}

func TestBuildRouter_MethodNotAllowed(t *testing.T) {
	router := testRouter(&fakePool{})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	require.Equal(t, "method_not_allowed", resp.Error.Code)
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) httpx.Response {
	t.Helper()

	var response httpx.Response
	decoder := json.NewDecoder(bytes.NewReader(recorder.Body.Bytes()))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&response))
	return response
}

func asMap(t *testing.T, value any) map[string]any {
	t.Helper()

	out, ok := value.(map[string]any)
	require.True(t, ok, "expected map, got %T", value)
	return out
}
