package domain

import (
	"net/netip"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Membership binds an operator to a tenant.
type Membership struct {
	TenantID    uuid.UUID    `json:"tenant_id"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// AccessWindow restricts logins to a time of day, in minutes after midnight
// UTC. A window whose From is after To wraps past midnight.
type AccessWindow struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether t falls inside the window.
func (w AccessWindow) Contains(t time.Time) bool {
	t = t.UTC()
	minute := t.Hour()*60 + t.Minute()
	if w.From <= w.To {
		return minute >= w.From && minute < w.To
	}
	return minute >= w.From || minute < w.To
}

// Operator is a human user of the operator API.
type Operator struct {
	ID             uuid.UUID
	Username       string
	Secret         string //nolint:gosec // argon2id hash, never the plain secret
	IsActive       bool
	Memberships    []Membership
	AllowedCIDRs   []netip.Prefix
	AccessWindow   *AccessWindow
	ValidUntil     *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
}

// MembershipFor returns the membership for tenantID, if any.
func (o *Operator) MembershipFor(tenantID uuid.UUID) (Membership, bool) {
	for _, m := range o.Memberships {
		if m.TenantID == tenantID {
			return m, true
		}
	}
	return Membership{}, false
}

// HasPermission reports whether the operator holds perm within tenantID.
func (o *Operator) HasPermission(tenantID uuid.UUID, perm Permission) bool {
	m, ok := o.MembershipFor(tenantID)
	if !ok {
		return false
	}
	return slices.Contains(m.Permissions, perm)
}

// IsLocked reports whether the lockout is still in force at now.
func (o *Operator) IsLocked(now time.Time) bool {
	return o.LockedUntil != nil && now.Before(*o.LockedUntil)
}

// AllowsIP checks the source address against the allow-list. An empty list
// admits every address.
func (o *Operator) AllowsIP(ip netip.Addr) bool {
	if len(o.AllowedCIDRs) == 0 {
		return true
	}
	ip = ip.Unmap()
	for _, prefix := range o.AllowedCIDRs {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// CheckAccess applies the validity date, time window and IP allow-list.
func (o *Operator) CheckAccess(ip netip.Addr, now time.Time) error {
	if o.ValidUntil != nil && now.After(*o.ValidUntil) {
		return ErrOperatorExpired
	}
	if o.AccessWindow != nil && !o.AccessWindow.Contains(now) {
		return ErrOutsideAccessWindow
	}
	if !o.AllowsIP(ip) {
		return ErrSourceIPDenied
	}
	return nil
}

// CreateOperatorInput holds the parameters for a new operator. The secret
// is generated and returned once.
type CreateOperatorInput struct {
	Username     string
	IsActive     bool
	Memberships  []Membership
	AllowedCIDRs []netip.Prefix
	AccessWindow *AccessWindow
	ValidUntil   *time.Time
}

// CreateOperatorOutput carries the one-time plain secret.
type CreateOperatorOutput struct {
	ID          uuid.UUID
	PlainSecret string
}

// UpdateOperatorInput replaces the mutable operator fields.
type UpdateOperatorInput struct {
	IsActive     bool
	Memberships  []Membership
	AllowedCIDRs []netip.Prefix
	AccessWindow *AccessWindow
	ValidUntil   *time.Time
}
