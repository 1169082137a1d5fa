package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	outboxDomain "github.com/allisson/trustlog/internal/outbox/domain"
)

// ForwardEventType is the outbox event type of relayed syslog frames.
const ForwardEventType = "syslog.forward"

// ForwardPayload is the outbox payload of a relayed frame.
type ForwardPayload struct {
	Address string `json:"address"`
	Frame   string `json:"frame"`
}

// Forwarder relays raw frames to another collector over UDP.
type Forwarder struct {
	dialer  net.Dialer
	timeout time.Duration
}

// Send writes frame as one datagram to address.
func (f *Forwarder) Send(ctx context.Context, address, frame string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	conn, err := f.dialer.DialContext(ctx, "udp", address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write([]byte(frame)); err != nil {
		return fmt.Errorf("write to %s: %w", address, err)
	}
	return nil
}

// Process implements the outbox event processor for ForwardEventType.
func (f *Forwarder) Process(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	var payload ForwardPayload
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return fmt.Errorf("decode forward payload: %w", err)
	}
	return f.Send(ctx, payload.Address, payload.Frame)
}

// NewForwarder creates a forwarder whose sends are bounded by timeout.
func NewForwarder(timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Forwarder{timeout: timeout}
}
