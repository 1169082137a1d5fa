package domain

import (
	"time"

	"github.com/google/uuid"
)

// OnlineWindow is how recently a client must have sent a message to count as online.
const OnlineWindow = 5 * time.Minute

// Client is one source address sending to a tenant's endpoints.
type Client struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Address       string
	Hostname      string
	FirstSeen     time.Time
	LastSeen      time.Time
	MessageCount  int64
	RejectedCount int64
	Online        bool
}

// ClientID is the stable id of the client at address within the tenant.
// Alerts raised from its messages carry it as their device id.
func ClientID(tenantID uuid.UUID, address string) uuid.UUID {
	return uuid.NewSHA1(tenantID, []byte(address))
}

// Seen accounts one message from the client.
func (c *Client) Seen(hostname string, rejected bool, now time.Time) {
	if hostname != "" {
		c.Hostname = hostname
	}
	c.LastSeen = now
	c.MessageCount++
	if rejected {
		c.RejectedCount++
	}
	c.Online = true
}

// OnlineAt reports whether the client sent something within OnlineWindow of now.
func (c *Client) OnlineAt(now time.Time) bool {
	return now.Sub(c.LastSeen) < OnlineWindow
}
