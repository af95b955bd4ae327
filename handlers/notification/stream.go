package notification

import (
	"bufio"
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"github.com/sahilchouksey/eduplatform-api/utils/sse"
)

const (
	streamPollInterval = 5 * time.Second
	streamMaxDuration  = 15 * time.Minute
	streamBatchSize    = 20
	streamRetryMillis  = 5000
)

// StreamNotifications handles GET /api/v1/notifications/stream
// Pushes new notifications and the unread count as server-sent events until
// the client disconnects. Browsers resume from Last-Event-ID.
func (h *NotificationHandler) StreamNotifications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	lastID, err := strconv.ParseUint(c.Get("Last-Event-ID"), 10, 64)
	if err != nil {
		latest, err := h.notificationService.LatestNotificationID(c.Context(), user.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to open notification stream")
		}
		lastID = uint64(latest)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	userID := user.ID
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The fiber context is recycled once the handler returns
		ctx, cancel := context.WithTimeout(context.Background(), streamMaxDuration)
		defer cancel()

		if err := h.pump(ctx, w, userID, uint(lastID)); err != nil {
			h.log.Debug("notification stream closed", "user_id", userID, "error", err)
		}
	})

	return nil
}

// streamState is what a stream has already told its client
type streamState struct {
	lastID uint
	unread int64
}

// pump polls for new notifications until ctx ends or a write fails
func (h *NotificationHandler) pump(ctx context.Context, w *bufio.Writer, userID, lastID uint) error {
	if err := sse.Send(w, sse.Event{Event: "ready", Retry: streamRetryMillis, Data: fiber.Map{"last_id": lastID}}); err != nil {
		return err
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	state := &streamState{lastID: lastID, unread: -1}
	for {
		if err := h.push(ctx, w, userID, state); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// push sends every notification newer than state.lastID, then the unread count
// if it changed. A quiet tick becomes a keepalive comment.
func (h *NotificationHandler) push(ctx context.Context, w *bufio.Writer, userID uint, state *streamState) error {
	fresh, err := h.notificationService.ListSince(ctx, userID, state.lastID, streamBatchSize)
	if err != nil {
		_ = sse.SendError(w, "Failed to fetch notifications")
		return err
	}

	for i := range fresh {
		n := fresh[i]
		event := sse.Event{
			ID:    strconv.FormatUint(uint64(n.ID), 10),
			Event: "notification",
			Data:  n.ToResponse(),
		}
		if err := sse.Send(w, event); err != nil {
			return err
		}
		state.lastID = n.ID
	}

	count, err := h.notificationService.GetUnreadCount(ctx, userID)
	if err != nil {
		_ = sse.SendError(w, "Failed to get unread count")
		return err
	}

	if count != state.unread {
		state.unread = count
		return sse.Send(w, sse.Event{Event: "unread_count", Data: fiber.Map{"unread_count": count}})
	}
	if len(fresh) == 0 {
		return sse.SendKeepAlive(w)
	}
	return nil
}
