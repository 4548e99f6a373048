package client

import (
	"sync"
	"time"
)

// OpState tracks an optimistic operation's lifecycle.
type OpState string

const (
	StatePending   OpState = "pending"
	StateConfirmed OpState = "confirmed"
	StateFailed    OpState = "failed"
	StateRemoved   OpState = "removed"
)

// PendingOp is one in-flight optimistic operation, keyed by its client
// reference. Confirmed ops carry the server-assigned id; failed ops carry
// the error that sank them.
type PendingOp struct {
	Ref       string
	Kind      string
	State     OpState
	ServerID  int
	Err       error
	StartedAt time.Time
}

// outbox holds pending operations between the optimistic insert and the
// server's verdict. Failed entries transition through StateFailed before
// removal so observers see the failure, then are dropped unconditionally.
type outbox struct {
	mu  sync.Mutex
	ops map[string]*PendingOp
}

func newOutbox() *outbox {
	return &outbox{ops: make(map[string]*PendingOp)}
}

func (o *outbox) add(ref, kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops[ref] = &PendingOp{
		Ref:       ref,
		Kind:      kind,
		State:     StatePending,
		StartedAt: time.Now(),
	}
}

// confirm swaps the pending entry for the confirmed server record and
// retires it from the outbox.
func (o *outbox) confirm(ref string, serverID int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if op, ok := o.ops[ref]; ok {
		op.State = StateConfirmed
		op.ServerID = serverID
		delete(o.ops, ref)
	}
}

// fail marks the entry failed and then removes it. Removal runs even when
// the ref was never registered, so a failure can never strand an entry.
func (o *outbox) fail(ref string, err error) {
	o.mu.Lock()
	if op, ok := o.ops[ref]; ok {
		op.State = StateFailed
		op.Err = err
	}
	o.mu.Unlock()
	o.remove(ref)
}

func (o *outbox) remove(ref string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if op, ok := o.ops[ref]; ok {
		op.State = StateRemoved
		delete(o.ops, ref)
	}
}

// get returns a copy of the op, if still tracked.
func (o *outbox) get(ref string) (PendingOp, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	op, ok := o.ops[ref]
	if !ok {
		return PendingOp{}, false
	}
	return *op, true
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ops)
}
