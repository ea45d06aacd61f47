package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/notify"
	"fooddupe/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// EventsHandler streams order events to connected dashboard, POS and
// tracking clients over server-sent events. A client joins its tenant
// channel on connect and may pass ?order=<number> to also follow a single
// order. Delivery is best-effort; clients reconcile through the list
// endpoints after a reconnect.
type EventsHandler struct {
	hub               *notify.Hub
	heartbeatInterval time.Duration
}

// NewEventsHandler wires the event stream handler
func NewEventsHandler(hub *notify.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeatInterval: 25 * time.Second}
}

// Stream handles GET /api/events
func (h *EventsHandler) Stream(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	channels := []string{notify.TenantChannel(tenant.Subdomain)}
	if number := c.QueryParam("order"); number != "" {
		channels = append(channels, notify.OrderChannel(number))
	}

	sub := h.hub.Subscribe(channels...)
	defer sub.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	log.Info("Event stream opened",
		zap.String("tenant", tenant.Subdomain),
		zap.Strings("channels", channels))

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			log.Info("Event stream closed", zap.String("tenant", tenant.Subdomain))
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				log.Error("Failed to marshal event payload", zap.Error(err))
				continue
			}
			fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.Name, data)
			resp.Flush()
		case <-heartbeat.C:
			fmt.Fprint(resp, ": ping\n\n")
			resp.Flush()
		}
	}
}
