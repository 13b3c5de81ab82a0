package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/notify"
	"github.com/youthmultiply/welcoming-college/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

type eventSource interface {
	Subscribe() (<-chan notify.Event, func())
}

type streamGauge interface {
	StreamClientConnected(delta int)
}

// EventsHandler streams participant notifications to admin dashboards.
type EventsHandler struct {
	bus       eventSource
	gauge     streamGauge
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewEventsHandler constructs the handler. A non-positive heartbeat uses the
// default keep-alive interval.
func NewEventsHandler(bus eventSource, gauge streamGauge, heartbeat time.Duration, logger *zap.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{bus: bus, gauge: gauge, heartbeat: heartbeat, logger: logger}
}

// Stream godoc
// @Summary Live participant notifications
// @Description Server-Sent Events stream emitting participant-added.
// @Tags Admin
// @Produce text/event-stream
// @Success 200 {string} string
// @Router /admin/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, cancel := h.bus.Subscribe()
	defer cancel()
	if h.gauge != nil {
		h.gauge.StreamClientConnected(1)
		defer h.gauge.StreamClientConnected(-1)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	log := logger.ForRequest(h.logger, c)
	log.Debug("event stream opened")
	defer log.Debug("event stream closed")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				log.Warn("encode stream event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Name, data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
