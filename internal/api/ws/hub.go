package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldsuite/fieldops/internal/server/middleware"
	redisstore "github.com/fieldsuite/fieldops/internal/store/redis"
)

// Event is one work-order lifecycle change pushed to the live dispatch feed.
type Event struct {
	Type         string     `json:"type"` // "work_order.created", "work_order.assigned", "work_order.status_changed"
	WorkOrderID  uuid.UUID  `json:"work_order_id"`
	Status       string     `json:"status,omitempty"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
	At           time.Time  `json:"at"`
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
}

func NewHub(pubsub *redisstore.PubSub) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeFeed handles WebSocket connections for the tenant's live dispatch
// feed. Subscribes to "dispatch:<tenantID>" and streams events until the
// client disconnects.
func (h *Hub) ServeFeed(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	channel := redisstore.DispatchChannel(tenantID)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// PublishEvent sends a dispatch event to the tenant's feed channel. Handlers
// call this after a successful mutation; a publish failure is logged, never
// surfaced, since the mutation already committed.
func (h *Hub) PublishEvent(ctx context.Context, tenantID uuid.UUID, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ws.Hub.PublishEvent: marshal: %w", err)
	}

	if err := h.pubsub.Publish(ctx, redisstore.DispatchChannel(tenantID), payload); err != nil {
		return fmt.Errorf("ws.Hub.PublishEvent: %w", err)
	}
	return nil
}
