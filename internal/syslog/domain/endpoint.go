// Package domain defines syslog collector endpoints, classification filters
// and the per-source client accounting.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Protocol is the transport of a listener.
type Protocol string

const (
	ProtocolUDP Protocol = "udp"
	ProtocolTCP Protocol = "tcp"
	ProtocolTLS Protocol = "tls"
)

// Valid reports whether p is a supported transport.
func (p Protocol) Valid() bool {
	return p == ProtocolUDP || p == ProtocolTCP || p == ProtocolTLS
}

// Endpoint is one listener of a tenant. TLS endpoints need a certificate and
// key on disk.
type Endpoint struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Protocol    Protocol
	Address     string
	TLSCertFile string
	TLSKeyFile  string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
