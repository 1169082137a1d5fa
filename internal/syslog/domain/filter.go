package domain

import (
	"net/netip"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Action is what a matching filter does with a message.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionForward Action = "forward"
	ActionStore   Action = "store"
	ActionAlert   Action = "alert"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionAccept, ActionReject, ActionForward, ActionStore, ActionAlert:
		return true
	}
	return false
}

// Stores reports whether messages with this action are persisted.
func (a Action) Stores() bool {
	return a != ActionReject
}

// Filter classifies messages of a tenant. Lower priority numbers are
// evaluated first. Every criterion that is set must hold; a filter without
// criteria matches everything.
type Filter struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Name            string
	Priority        int
	Facilities      []int
	Severities      []int
	HostnamePattern string
	TagPattern      string
	ContentPattern  string
	SourceCIDR      string
	Action          Action
	AlertSeverity   string
	ForwardAddress  string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy of f.
func (f *Filter) Clone() *Filter {
	out := *f
	out.Facilities = slices.Clone(f.Facilities)
	out.Severities = slices.Clone(f.Severities)
	return &out
}

// Compile prepares the filter for matching.
func (f *Filter) Compile() (*CompiledFilter, error) {
	c := &CompiledFilter{Filter: f}

	var err error
	if c.hostname, err = compileOptional(f.HostnamePattern); err != nil {
		return nil, ErrInvalidFilter
	}
	if c.tag, err = compileOptional(f.TagPattern); err != nil {
		return nil, ErrInvalidFilter
	}
	if c.content, err = compileOptional(f.ContentPattern); err != nil {
		return nil, ErrInvalidFilter
	}
	if f.SourceCIDR != "" {
		prefix, perr := netip.ParsePrefix(f.SourceCIDR)
		if perr != nil {
			return nil, ErrInvalidFilter
		}
		c.source = &prefix
	}
	return c, nil
}

func compileOptional(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// CompiledFilter is a filter with its patterns compiled.
type CompiledFilter struct {
	*Filter
	hostname *regexp.Regexp
	tag      *regexp.Regexp
	content  *regexp.Regexp
	source   *netip.Prefix
}

// Matches reports whether msg satisfies every criterion of the filter.
func (c *CompiledFilter) Matches(msg *recordDomain.SyslogMessage) bool {
	if len(c.Facilities) > 0 && !slices.Contains(c.Facilities, msg.Facility) {
		return false
	}
	if len(c.Severities) > 0 && !slices.Contains(c.Severities, msg.Severity) {
		return false
	}
	if c.hostname != nil && !c.hostname.MatchString(msg.Hostname) {
		return false
	}
	if c.tag != nil && !c.tag.MatchString(msg.Program) {
		return false
	}
	if c.content != nil && !c.content.MatchString(msg.Message) {
		return false
	}
	if c.source != nil {
		addr, err := netip.ParseAddr(msg.SourceIP)
		if err != nil || !c.source.Contains(addr.Unmap()) {
			return false
		}
	}
	return true
}
