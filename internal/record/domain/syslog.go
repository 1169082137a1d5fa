package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// SyslogMessage is one message received by a collector endpoint. Unparseable
// input is kept with IsParsed false and only Raw and the transport fields set.
type SyslogMessage struct {
	EndpointID  uuid.UUID         `json:"endpoint_id"`
	Facility    int               `json:"facility"`
	Severity    int               `json:"severity"`
	Timestamp   time.Time         `json:"timestamp"`
	Hostname    string            `json:"hostname"`
	Program     string            `json:"program"`
	PID         string            `json:"pid"`
	MsgID       string            `json:"msg_id,omitempty"`
	Message     string            `json:"message"`
	Raw         string            `json:"raw"`
	SourceIP    string            `json:"source_ip"`
	SourcePort  int               `json:"source_port"`
	ParsedData  map[string]string `json:"parsed_data,omitempty"`
	IsParsed    bool              `json:"is_parsed"`
	ThreatLevel ThreatLevel       `json:"threat_level"`
}

func (m *SyslogMessage) appendCanonical(c *cryptoDomain.Canonical) {
	c.String("endpoint_id", m.EndpointID.String()).
		Int("facility", int64(m.Facility)).
		Int("severity", int64(m.Severity)).
		Time("timestamp", m.Timestamp).
		String("hostname", m.Hostname).
		String("program", m.Program).
		String("pid", m.PID).
		String("msg_id", m.MsgID).
		String("message", m.Message).
		String("raw", m.Raw).
		String("source_ip", m.SourceIP).
		Int("source_port", int64(m.SourcePort)).
		Bool("is_parsed", m.IsParsed).
		String("threat_level", string(m.ThreatLevel))

	keys := make([]string, 0, len(m.ParsedData))
	for k := range m.ParsedData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.String("parsed_data."+k, m.ParsedData[k])
	}
}

func (m *SyslogMessage) clone() SyslogMessage {
	out := *m
	if m.ParsedData != nil {
		out.ParsedData = make(map[string]string, len(m.ParsedData))
		for k, v := range m.ParsedData {
			out.ParsedData[k] = v
		}
	}
	return out
}
