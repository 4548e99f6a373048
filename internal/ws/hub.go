package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fanverse-service/internal/logger"
	"fanverse-service/internal/models"
	"fanverse-service/internal/observability"
)

// Hub maintains active websocket rooms, one per conversation.
type Hub struct {
	rooms    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a conversation room.
func (h *Hub) AddClient(conversationID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[conversationID][conn] = true
	if _, ok := h.connInfo[conversationID]; !ok {
		h.connInfo[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[conversationID][conn] = info
}

// RemoveClient removes a websocket connection from a conversation room.
func (h *Hub) RemoveClient(conversationID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	if infos, ok := h.connInfo[conversationID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, conversationID)
		}
	}
}

// BroadcastMessage sends a message event to every client in the
// conversation. ClientRef lets the sender reconcile its optimistic entry.
func (h *Hub) BroadcastMessage(conversationID int, msg models.MessageWithSender, clientRef string) {
	h.broadcast(conversationID, models.ConversationEvent{Type: "message_sent", Message: &msg, ClientRef: clientRef})
}

// BroadcastEdit notifies clients of an edited message.
func (h *Hub) BroadcastEdit(conversationID int, msg models.MessageWithSender, clientRef string) {
	h.broadcast(conversationID, models.ConversationEvent{Type: "message_edited", Message: &msg, ClientRef: clientRef})
}

// BroadcastDeletion notifies clients that a message was removed.
func (h *Hub) BroadcastDeletion(conversationID int, messageID int, clientRef string) {
	h.broadcast(conversationID, models.ConversationEvent{Type: "message_deleted", MessageID: messageID, ClientRef: clientRef})
}

// BroadcastReaction notifies clients of an added or replaced reaction.
func (h *Hub) BroadcastReaction(conversationID int, reaction models.Reaction, clientRef string) {
	h.broadcast(conversationID, models.ConversationEvent{Type: "reaction_added", Reaction: &reaction, ClientRef: clientRef})
}

// BroadcastReactionRemoval notifies clients that a reaction was removed.
func (h *Hub) BroadcastReactionRemoval(conversationID int, messageID int, userID int, clientRef string) {
	h.broadcast(conversationID, models.ConversationEvent{Type: "reaction_removed", MessageID: messageID, UserID: userID, ClientRef: clientRef})
}

func (h *Hub) broadcast(conversationID int, event models.ConversationEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[conversationID]))
	for conn := range h.rooms[conversationID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.L().Warnw("websocket write error", "error", err, "conversation_id", conversationID)
			conn.Close()
			// publish first: RemoveClient drops the conn info the event needs
			h.publishWSError(conversationID, conn, err)
			h.RemoveClient(conversationID, conn)
		}
	}
}

func (h *Hub) publishWSError(conversationID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(conversationID, conn)
	if !ok {
		return
	}

	payload := wsEventPayload("ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), err.Error())
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.conversations",
		observability.NewEnvelope("ws_events", "ws_error", serviceName, payload), headers)
	observability.IncWSEvent("ws_error")
}

func (h *Hub) getConnInfo(conversationID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[conversationID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
