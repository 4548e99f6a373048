package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fanverse-service/internal/mocks"
	"fanverse-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.messaging", "fanverse-service", "test")

	userID := int64(5)
	publisher.On("Publish", mock.Anything, "audit.messaging", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.EventType == "audit_log" &&
			envelope.Service == "fanverse-service" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == 5 &&
			envelope.Payload.Action == "message_sent" &&
			envelope.Payload.Resource == "message:7"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "message_sent", "message:7", "", "req-1", &userID)
	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.messaging", "fanverse-service", "test")

	publisher.On("Publish", mock.Anything, "audit.messaging", mock.Anything).Return(errors.New("broker down")).Once()

	// Must not panic or surface the error.
	emitter.Emit(context.Background(), "message_sent", "message:7", "", "req-1", nil)
	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsNoop(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "message_sent", "message:7", "", "req-1", nil)
	})
}
