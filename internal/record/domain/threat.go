package domain

// ThreatLevel grades syslog messages and flows.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

var threatOrder = []ThreatLevel{ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical}

// Rank returns 0 for low up to 3 for critical, or -1 for an unknown level.
func (t ThreatLevel) Rank() int {
	for i, l := range threatOrder {
		if l == t {
			return i
		}
	}
	return -1
}

// Raise returns the level n steps above t, capped at critical.
func (t ThreatLevel) Raise(n int) ThreatLevel {
	rank := t.Rank()
	if rank < 0 {
		rank = 0
	}
	rank += n
	if rank >= len(threatOrder) {
		rank = len(threatOrder) - 1
	}
	return threatOrder[rank]
}

// ThreatFromSyslogSeverity maps a syslog severity (0 emergency .. 7 debug).
func ThreatFromSyslogSeverity(severity int) ThreatLevel {
	switch {
	case severity <= 1:
		return ThreatCritical
	case severity <= 3:
		return ThreatHigh
	case severity == 4:
		return ThreatMedium
	}
	return ThreatLow
}
