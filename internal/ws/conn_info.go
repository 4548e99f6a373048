package ws

import "time"

// ConnInfo identifies one live websocket connection for event payloads and
// disconnect accounting.
type ConnInfo struct {
	ConnID         string
	ConversationID int
	UserID         int
	DeviceID       string
	IP             string
	RequestID      string
	TraceID        string
	ConnectedAt    time.Time
}
