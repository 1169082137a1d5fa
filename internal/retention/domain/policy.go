// Package domain defines retention policies, archive jobs with their record
// index, and the retention event log.
package domain

import (
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Cadence is how often archive and cleanup run for a policy.
type Cadence string

const (
	CadenceDaily     Cadence = "daily"
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
)

// Cadences lists every cadence in scheduling order.
var Cadences = []Cadence{CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceQuarterly}

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceQuarterly:
		return true
	}
	return false
}

// Spec returns the cron schedule of the cadence.
func (c Cadence) Spec() string {
	switch c {
	case CadenceWeekly:
		return "@weekly"
	case CadenceMonthly:
		return "@monthly"
	case CadenceQuarterly:
		return "0 0 1 */3 *"
	}
	return "@daily"
}

// BackendKind selects where archive blobs are written.
type BackendKind string

const (
	BackendLocal  BackendKind = "local"
	BackendWORM   BackendKind = "worm"
	BackendCloud  BackendKind = "cloud"
	BackendTape   BackendKind = "tape"
	BackendHybrid BackendKind = "hybrid"
)

// Valid reports whether b is a known backend.
func (b BackendKind) Valid() bool {
	switch b {
	case BackendLocal, BackendWORM, BackendCloud, BackendTape, BackendHybrid:
		return true
	}
	return false
}

// Policy is the retention policy of one record kind of a tenant. The
// effective minimum retention is the larger of MinRetention and the tenant's
// statutory retention.
type Policy struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Kind         recordDomain.Kind
	MinRetention time.Duration
	ArchiveAfter time.Duration
	Compress     bool
	Encrypt      bool
	Backend      BackendKind
	Cadence      Cadence
	AutoCleanup  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultPolicy is used for kinds without a stored policy. Cleanup stays off
// until an operator enables it.
func DefaultPolicy(tenantID uuid.UUID, kind recordDomain.Kind, minRetention, archiveAfter time.Duration) *Policy {
	return &Policy{
		TenantID:     tenantID,
		Kind:         kind,
		MinRetention: minRetention,
		ArchiveAfter: archiveAfter,
		Compress:     true,
		Encrypt:      true,
		Backend:      BackendLocal,
		Cadence:      CadenceDaily,
	}
}

// RecordKinds lists the kinds a tenant can hold policies for.
var RecordKinds = []recordDomain.Kind{recordDomain.KindSession, recordDomain.KindSyslog, recordDomain.KindFlow}

// Clone returns a copy.
func (p *Policy) Clone() *Policy {
	c := *p
	return &c
}
