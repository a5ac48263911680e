// Package mailbox provides a one-directional single-slot mailbox between two
// execution contexts.
//
// Values are pushed into a bounded queue. An interrupt context drains the
// queue into a single slot and raises a ready flag. The receiver only ever
// sees the latest drained value: if several values arrive before it polls,
// all but the last are lost.
package mailbox

import (
	"context"
	"sync"
)

// DefaultDepth is the depth of the inter-core FIFO on RP2040.
const DefaultDepth = 8

// Mailbox delivers words from a single sender to a single receiver.
type Mailbox struct {
	queue   chan uint32
	readyCh chan struct{}

	lock  sync.Mutex
	value uint32
	ready bool
}

// New creates a Mailbox with a queue of the given depth.
func New(depth int) *Mailbox {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Mailbox{
		queue:   make(chan uint32, depth),
		readyCh: make(chan struct{}, 1),
	}
}

// Name implements Named.
func (m *Mailbox) Name() string {
	return "mailbox-irq"
}

// Send pushes a value, blocking while the queue is full.
func (m *Mailbox) Send(ctx context.Context, v uint32) error {
	select {
	case m.queue <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued values not yet drained.
func (m *Mailbox) Pending() int {
	return len(m.queue)
}

// Drain moves every queued value into the slot, the latest one wins.
// It returns the number of values drained.
func (m *Mailbox) Drain() (n int) {
	for {
		select {
		case v := <-m.queue:
			m.store(v)
			n++
		default:
			return
		}
	}
}

// Run drains the queue whenever values arrive, until ctx is done.
func (m *Mailbox) Run(ctx context.Context) error {
	for {
		select {
		case v := <-m.queue:
			m.store(v)
			m.Drain()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Mailbox) store(v uint32) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.value, m.ready = v, true
	select {
	case m.readyCh <- struct{}{}:
	default:
	}
}

// TryReceive returns the latest value and clears the ready flag.
// ok is false if nothing arrived since the last receive.
// The ready signal is pending only while the slot holds a value.
func (m *Mailbox) TryReceive() (v uint32, ok bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	v, ok = m.value, m.ready
	m.ready = false
	select {
	case <-m.readyCh:
	default:
	}
	return
}

// Receive blocks until a value is ready.
func (m *Mailbox) Receive(ctx context.Context) (uint32, error) {
	for {
		if v, ok := m.TryReceive(); ok {
			return v, nil
		}
		select {
		case <-m.readyCh:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Ready is signaled when a new value lands in the slot.
// The signal is consumed by TryReceive.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.readyCh
}
