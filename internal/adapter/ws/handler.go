package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/couchcryptid/disaster-response-core/internal/broadcast"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from the field dashboards.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket observers on the hub.
type Handler struct {
	hub     *broadcast.Hub
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewHandler(hub *broadcast.Hub, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{hub: hub, logger: logger, metrics: metrics}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, h.logger)
	h.metrics.ObserversConnected.Inc()
	h.logger.Info("observer connected", "observer", client.ID())

	go func() {
		<-client.closed
		h.metrics.ObserversConnected.Dec()
		h.logger.Info("observer disconnected", "observer", client.ID())
	}()

	client.Start()
}
