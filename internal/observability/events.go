package observability

import "time"

// EventEnvelope wraps every event published to the broker. EventType is the
// routing family (ws_events, audit_log), EventName the concrete event.
type EventEnvelope struct {
	EventType  string `json:"event_type"`
	EventName  string `json:"event_name"`
	Service    string `json:"service,omitempty"`
	OccurredAt string `json:"occurred_at,omitempty"`
	Payload    any    `json:"payload"`
}

// NewEnvelope stamps an envelope with the service name and current time.
func NewEnvelope(eventType, eventName, service string, payload any) EventEnvelope {
	return EventEnvelope{
		EventType:  eventType,
		EventName:  eventName,
		Service:    service,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
}

// BuildHeaders assembles broker headers carrying request correlation ids.
// Empty ids are left out so consumers can key on header presence.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
