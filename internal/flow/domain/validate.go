package domain

import (
	"net/netip"
	"slices"

	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Validate checks one flow summary. index is reported in the error so a
// rejected batch names the offending entry.
func Validate(index int, f *recordDomain.FlowRecord) error {
	fail := func(format string, args ...any) error {
		return apperrors.Wrapf(ErrInvalidFlow, "flows[%d]: "+format, append([]any{index}, args...)...)
	}

	if f == nil {
		return fail("missing flow")
	}
	if _, err := netip.ParseAddr(f.SrcIP); err != nil {
		return fail("src_ip %q is not an IP address", f.SrcIP)
	}
	if _, err := netip.ParseAddr(f.DstIP); err != nil {
		return fail("dst_ip %q is not an IP address", f.DstIP)
	}
	for name, ip := range map[string]string{"nat_src_ip": f.NATSrcIP, "nat_dst_ip": f.NATDstIP} {
		if ip == "" {
			continue
		}
		if _, err := netip.ParseAddr(ip); err != nil {
			return fail("%s %q is not an IP address", name, ip)
		}
	}
	for name, port := range map[string]int{
		"src_port":     f.SrcPort,
		"dst_port":     f.DstPort,
		"nat_src_port": f.NATSrcPort,
		"nat_dst_port": f.NATDstPort,
	} {
		if port < 0 || port > 65535 {
			return fail("%s %d is outside 0-65535", name, port)
		}
	}
	if !slices.Contains(recordDomain.KnownProtocols, f.Protocol) {
		return fail("unknown protocol %q", f.Protocol)
	}
	if f.NATProtocol != "" && !slices.Contains(recordDomain.KnownProtocols, f.NATProtocol) {
		return fail("unknown nat_protocol %q", f.NATProtocol)
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return fail("start and end are required")
	}
	if f.End.Before(f.Start) {
		return fail("end is before start")
	}
	if f.BytesSent < 0 || f.BytesReceived < 0 || f.PacketsSent < 0 || f.PacketsReceived < 0 {
		return fail("counters must not be negative")
	}
	return nil
}

// ValidateBatch checks the batch size and every flow in it.
func ValidateBatch(flows []*recordDomain.FlowRecord) error {
	if len(flows) == 0 {
		return ErrEmptyBatch
	}
	if len(flows) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	for i, f := range flows {
		if err := Validate(i, f); err != nil {
			return err
		}
	}
	return nil
}
