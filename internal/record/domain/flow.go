package domain

import (
	"time"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// Protocol is the transport or application protocol of a flow.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolICMP  Protocol = "ICMP"
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
	ProtocolDNS   Protocol = "DNS"
	ProtocolFTP   Protocol = "FTP"
	ProtocolSSH   Protocol = "SSH"
	ProtocolOther Protocol = "OTHER"
)

// KnownProtocols lists the accepted protocol values.
var KnownProtocols = []Protocol{
	ProtocolTCP, ProtocolUDP, ProtocolICMP, ProtocolHTTP, ProtocolHTTPS,
	ProtocolDNS, ProtocolFTP, ProtocolSSH, ProtocolOther,
}

// FlowRecord is a port-mirror flow summary. TotalBytes and BandwidthBPS are
// derived on ingest.
type FlowRecord struct {
	SrcIP           string      `json:"src_ip"`
	DstIP           string      `json:"dst_ip"`
	SrcPort         int         `json:"src_port"`
	DstPort         int         `json:"dst_port"`
	Protocol        Protocol    `json:"protocol"`
	NATSrcIP        string      `json:"nat_src_ip,omitempty"`
	NATDstIP        string      `json:"nat_dst_ip,omitempty"`
	NATSrcPort      int         `json:"nat_src_port,omitempty"`
	NATDstPort      int         `json:"nat_dst_port,omitempty"`
	NATProtocol     Protocol    `json:"nat_protocol,omitempty"`
	SrcLocation     string      `json:"src_location,omitempty"`
	DstLocation     string      `json:"dst_location,omitempty"`
	DeviceName      string      `json:"device_name,omitempty"`
	BytesSent       int64       `json:"bytes_sent"`
	BytesReceived   int64       `json:"bytes_received"`
	PacketsSent     int64       `json:"packets_sent"`
	PacketsReceived int64       `json:"packets_received"`
	Start           time.Time   `json:"start"`
	End             time.Time   `json:"end"`
	URL             string      `json:"url,omitempty"`
	TotalBytes      int64       `json:"total_bytes"`
	BandwidthBPS    int64       `json:"bandwidth_bps"`
	ThreatLevel     ThreatLevel `json:"threat_level"`
}

// Duration is End minus Start.
func (f *FlowRecord) Duration() time.Duration {
	return f.End.Sub(f.Start)
}

// Derive fills TotalBytes and BandwidthBPS (bits per second, zero when the
// flow has no duration).
func (f *FlowRecord) Derive() {
	f.TotalBytes = f.BytesSent + f.BytesReceived
	f.BandwidthBPS = 0
	if d := f.Duration(); d > 0 {
		f.BandwidthBPS = int64(float64(f.TotalBytes*8) / d.Seconds())
	}
}

func (f *FlowRecord) appendCanonical(c *cryptoDomain.Canonical) {
	c.String("src_ip", f.SrcIP).
		String("dst_ip", f.DstIP).
		Int("src_port", int64(f.SrcPort)).
		Int("dst_port", int64(f.DstPort)).
		String("protocol", string(f.Protocol)).
		String("nat_src_ip", f.NATSrcIP).
		String("nat_dst_ip", f.NATDstIP).
		Int("nat_src_port", int64(f.NATSrcPort)).
		Int("nat_dst_port", int64(f.NATDstPort)).
		String("nat_protocol", string(f.NATProtocol)).
		String("src_location", f.SrcLocation).
		String("dst_location", f.DstLocation).
		String("device_name", f.DeviceName).
		Int("bytes_sent", f.BytesSent).
		Int("bytes_received", f.BytesReceived).
		Int("packets_sent", f.PacketsSent).
		Int("packets_received", f.PacketsReceived).
		Time("start", f.Start).
		Time("end", f.End).
		String("url", f.URL).
		Int("total_bytes", f.TotalBytes).
		Int("bandwidth_bps", f.BandwidthBPS).
		String("threat_level", string(f.ThreatLevel))
}

func (f *FlowRecord) clone() FlowRecord {
	return *f
}
