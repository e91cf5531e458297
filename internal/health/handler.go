package health

import (
	"context"
	"net/http"
	"time"

	"github.com/Lelo88/inventory-pos-api/internal/httpx"
)

// readyTimeout acota el ping a la DB para que /ready no se cuelgue.
const readyTimeout = 2 * time.Second

// Pinger es lo que /ready necesita del pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler encapsula endpoints de health.
type Handler struct {
	db Pinger
}

// New crea un handler de health. db puede ser nil: /ready responde 503.
func New(db Pinger) *Handler {
	return &Handler{db: db}
}

// Health indica si el proceso está vivo.
// NO chequea base de datos.
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready indica si la app puede atender tráfico: la DB tiene que responder.
func (handler *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if handler.db == nil {
		httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "database pool not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := handler.db.Ping(ctx); err != nil {
		httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "database is not reachable")
		return
	}

	httpx.OK(w, r, http.StatusOK, map[string]any{"status": "ready"})
}
