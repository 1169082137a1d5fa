package usecase

import (
	"context"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// RecordCommitted implements the record store observer hook.
func (u *alertUseCase) RecordCommitted(ctx context.Context, record *recordDomain.Record) {
	u.Publish(ctx, EventFromRecord(record))
}

// EventFromRecord describes a committed record as a bus event. Protected
// identity fields are never copied into the event.
func EventFromRecord(record *recordDomain.Record) *alertDomain.Event {
	e := alertDomain.NewEvent(alertDomain.EventRecordCommitted, record.TenantID, alertDomain.SeverityInfo,
		string(record.Kind)+" record committed")
	id := record.ID
	e.RecordID = &id
	e.Suspicious = record.Suspicious
	e.OccurredAt = record.EntryTime
	e.Fields["record_kind"] = string(record.Kind)

	switch {
	case record.Session != nil:
		s := record.Session
		e.Fields["identity_kind"] = string(s.IdentityKind)
		e.Fields["remembered"] = s.RememberedFrom != nil
		if record.Suspicious {
			e.Severity = alertDomain.SeverityMedium
			e.Title = "suspicious session record committed"
		}
	case record.Syslog != nil:
		m := record.Syslog
		e.SourceIP = m.SourceIP
		e.Severity = severityFromThreat(m.ThreatLevel, record.Suspicious)
		e.Fields["endpoint_id"] = m.EndpointID.String()
		e.Fields["facility"] = m.Facility
		e.Fields["syslog_severity"] = m.Severity
		e.Fields["hostname"] = m.Hostname
		e.Fields["program"] = m.Program
		e.Fields["message"] = m.Message
		e.Fields["is_parsed"] = m.IsParsed
		e.Fields["threat_level"] = string(m.ThreatLevel)
	case record.Flow != nil:
		f := record.Flow
		e.SourceIP = f.SrcIP
		e.Severity = severityFromThreat(f.ThreatLevel, record.Suspicious)
		e.Fields["src_ip"] = f.SrcIP
		e.Fields["dst_ip"] = f.DstIP
		e.Fields["src_port"] = f.SrcPort
		e.Fields["dst_port"] = f.DstPort
		e.Fields["protocol"] = string(f.Protocol)
		e.Fields["total_bytes"] = f.TotalBytes
		e.Fields["bandwidth_bps"] = f.BandwidthBPS
		e.Fields["threat_level"] = string(f.ThreatLevel)
	}
	return e
}

func severityFromThreat(level recordDomain.ThreatLevel, suspicious bool) alertDomain.Severity {
	switch level {
	case recordDomain.ThreatCritical:
		return alertDomain.SeverityCritical
	case recordDomain.ThreatHigh:
		return alertDomain.SeverityHigh
	case recordDomain.ThreatMedium:
		return alertDomain.SeverityMedium
	}
	if suspicious {
		return alertDomain.SeverityLow
	}
	return alertDomain.SeverityInfo
}
