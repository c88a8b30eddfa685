package http

import (
	"bufio"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
	"applyops_server/pkg/response"
)

const heartbeatInterval = 15 * time.Second

// SSEHandler streams realtime events over Server-Sent Events.
type SSEHandler struct {
	realtime out.RealtimePort
	log      zerolog.Logger
}

func NewSSEHandler(realtime out.RealtimePort, log zerolog.Logger) *SSEHandler {
	return &SSEHandler{
		realtime: realtime,
		log:      log.With().Str("handler", "sse").Logger(),
	}
}

// Register registers SSE routes.
func (h *SSEHandler) Register(router fiber.Router) {
	router.Get("/events", h.Stream)
	router.Get("/events/status", h.Status)
}

func (h *SSEHandler) Stream(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	userIDStr := userID.String()
	events := h.realtime.Subscribe(userIDStr)

	h.log.Info().Str("user_id", userIDStr).Msg("SSE client connected")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		defer func() {
			h.realtime.Unsubscribe(userIDStr, events)
			h.log.Info().Str("user_id", userIDStr).Msg("SSE client disconnected")
		}()

		w.WriteString("event: connected\n")
		w.WriteString("data: {\"status\":\"connected\"}\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					h.log.Debug().Err(err).Msg("client disconnected during write")
					return
				}

			case <-ticker.C:
				w.WriteString(": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

func (h *SSEHandler) Status(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{
		"connected_clients": h.realtime.ConnectedCount(),
	})
}

func writeSSEEvent(w *bufio.Writer, event *domain.RealtimeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	w.WriteString("event: ")
	w.WriteString(string(event.Type))
	w.WriteString("\n")
	w.WriteString("data: ")
	w.Write(data)
	w.WriteString("\n\n")
	return w.Flush()
}
