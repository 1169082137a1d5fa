package domain

import (
	"net/netip"
	"slices"
	"strings"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Finding is one heuristic that raised a flow's threat level.
type Finding string

const (
	FindingWatchPort   Finding = "watch_port"
	FindingThreatIntel Finding = "threat_intel"
	FindingByteRate    Finding = "byte_rate"
)

// Assessment is the outcome of scoring a flow.
type Assessment struct {
	Level      recordDomain.ThreatLevel
	Score      int
	Suspicious bool
	Findings   []Finding
}

// Scorer grades a flow. byteRateThreshold is the tenant's bytes per second
// limit; zero disables the byte-rate check.
type Scorer interface {
	Score(flow *recordDomain.FlowRecord, byteRateThreshold int64) Assessment
}

// Heuristic is the default Scorer. A watched destination port adds one
// level, a source or destination in the threat-intel set adds two and a byte
// rate above the threshold adds one.
type Heuristic struct {
	watchPorts map[int]struct{}
	threatNets []netip.Prefix
}

// Score implements Scorer. Derive must have run on flow.
func (h *Heuristic) Score(flow *recordDomain.FlowRecord, byteRateThreshold int64) Assessment {
	var a Assessment

	if _, ok := h.watchPorts[flow.DstPort]; ok {
		a.Score++
		a.Findings = append(a.Findings, FindingWatchPort)
	}
	if h.threatened(flow.SrcIP) || h.threatened(flow.DstIP) {
		a.Score += 2
		a.Findings = append(a.Findings, FindingThreatIntel)
	}
	if byteRateThreshold > 0 && flow.BandwidthBPS/8 > byteRateThreshold {
		a.Score++
		a.Findings = append(a.Findings, FindingByteRate)
	}

	a.Level = recordDomain.ThreatLow.Raise(a.Score)
	a.Suspicious = a.Score > 0
	return a
}

func (h *Heuristic) threatened(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return slices.ContainsFunc(h.threatNets, func(p netip.Prefix) bool {
		return p.Contains(addr)
	})
}

// NewHeuristic builds the default scorer. Threat entries may be single
// addresses or CIDR prefixes; unparsable entries are returned so the caller
// can report them.
func NewHeuristic(watchPorts []int, threatEntries []string) (*Heuristic, []string) {
	h := &Heuristic{watchPorts: make(map[int]struct{}, len(watchPorts))}
	for _, p := range watchPorts {
		h.watchPorts[p] = struct{}{}
	}

	var invalid []string
	for _, entry := range threatEntries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				invalid = append(invalid, entry)
				continue
			}
			addr = addr.Unmap()
			h.threatNets = append(h.threatNets, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			invalid = append(invalid, entry)
			continue
		}
		h.threatNets = append(h.threatNets, prefix.Masked())
	}
	return h, invalid
}
