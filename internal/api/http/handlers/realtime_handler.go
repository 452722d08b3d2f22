package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/realtime"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// RealtimeHandler streams committed ticket events to the connected actor as
// server-sent events.
type RealtimeHandler struct {
	directory *realtime.Directory
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(directory *realtime.Directory, heartbeat time.Duration, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &RealtimeHandler{directory: directory, heartbeat: heartbeat, logger: logger}
}

// Stream GET /realtime/stream.
func (h *RealtimeHandler) Stream(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	setSSEHeaders(c)

	sub := h.directory.Register(actor)
	logger := h.logger.With(zap.String("subscriber_id", sub.ID), zap.String("actor_id", actor.ID))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.directory.Deregister(sub.ID)
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		if err := sseWrite(w, "ready", fiber.Map{"subscriber_id": sub.ID}); err != nil {
			return
		}
		for {
			select {
			case event, open := <-sub.Events():
				if !open {
					return
				}
				if err := sseWrite(w, string(event.Type), event); err != nil {
					logger.Debug("realtime client gone", zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func setSSEHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}

func sseWrite(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(string(payload), "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}
	return w.Flush()
}
