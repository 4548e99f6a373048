package ws

import "github.com/google/uuid"

// serviceName stamps broker event envelopes emitted from this package.
const serviceName = "fanverse-service"

func newConnID() string {
	return uuid.NewString()
}
