package health

import (
	"context"
	"net/http"
	"time"

	"github.com/portops/PGC-BookingService/internal/api/handlers"
)

const pingTimeout = 2 * time.Second

// Pinger контракт проверки соединения с БД
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db Pinger
}

func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// Handle GET /health
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
