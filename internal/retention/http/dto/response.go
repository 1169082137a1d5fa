package dto

import (
	"time"

	"github.com/google/uuid"

	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
)

const day = 24 * time.Hour

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// PolicyResponse is the effective policy of one record kind.
type PolicyResponse struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	Kind             string    `json:"kind"`
	MinRetentionDays int       `json:"min_retention_days"`
	ArchiveAfterDays int       `json:"archive_after_days"`
	Compress         bool      `json:"compress"`
	Encrypt          bool      `json:"encrypt"`
	Backend          string    `json:"backend"`
	Cadence          string    `json:"cadence"`
	AutoCleanup      bool      `json:"auto_cleanup"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MapPolicyToResponse converts a policy to its response body.
func MapPolicyToResponse(p *retentionDomain.Policy) PolicyResponse {
	return PolicyResponse{
		ID:               p.ID.String(),
		TenantID:         p.TenantID.String(),
		Kind:             string(p.Kind),
		MinRetentionDays: int(p.MinRetention / day),
		ArchiveAfterDays: int(p.ArchiveAfter / day),
		Compress:         p.Compress,
		Encrypt:          p.Encrypt,
		Backend:          string(p.Backend),
		Cadence:          string(p.Cadence),
		AutoCleanup:      p.AutoCleanup,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ListPoliciesResponse holds the policy of every kind.
type ListPoliciesResponse struct {
	Data []PolicyResponse `json:"data"`
}

// MapPoliciesToListResponse converts policies to a list response.
func MapPoliciesToListResponse(policies []*retentionDomain.Policy) ListPoliciesResponse {
	data := make([]PolicyResponse, 0, len(policies))
	for _, p := range policies {
		data = append(data, MapPolicyToResponse(p))
	}
	return ListPoliciesResponse{Data: data}
}

// JobResponse is an archive job. The wrapped data key is never exposed.
type JobResponse struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Backend     string     `json:"backend"`
	BlobKey     string     `json:"blob_key"`
	Size        int64      `json:"size"`
	SHA256      string     `json:"sha256,omitempty"`
	RecordCount int        `json:"record_count"`
	FirstEntry  *time.Time `json:"first_entry,omitempty"`
	LastEntry   *time.Time `json:"last_entry,omitempty"`
	Compressed  bool       `json:"compressed"`
	Encrypted   bool       `json:"encrypted"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MapJobToResponse converts a job to its response body.
func MapJobToResponse(j *retentionDomain.ArchiveJob) JobResponse {
	return JobResponse{
		ID:          j.ID.String(),
		TenantID:    j.TenantID.String(),
		Kind:        string(j.Kind),
		Status:      string(j.Status),
		Backend:     string(j.Backend),
		BlobKey:     j.BlobKey,
		Size:        j.Size,
		SHA256:      j.SHA256,
		RecordCount: j.RecordCount,
		FirstEntry:  j.FirstEntry,
		LastEntry:   j.LastEntry,
		Compressed:  j.Compressed,
		Encrypted:   j.Encrypted,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// ListJobsResponse is a page of archive jobs.
type ListJobsResponse struct {
	Data []JobResponse `json:"data"`
}

// MapJobsToListResponse converts jobs to a list response.
func MapJobsToListResponse(jobs []*retentionDomain.ArchiveJob) ListJobsResponse {
	data := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		data = append(data, MapJobToResponse(j))
	}
	return ListJobsResponse{Data: data}
}

// CleanupResponse summarizes a cleanup run.
type CleanupResponse struct {
	Checked int            `json:"checked"`
	Purged  int            `json:"purged"`
	Skipped int            `json:"skipped"`
	Reasons map[string]int `json:"reasons"`
}

// MapCleanupToResponse converts a cleanup report.
func MapCleanupToResponse(r *retentionUseCase.CleanupReport) CleanupResponse {
	return CleanupResponse{Checked: r.Checked, Purged: r.Purged, Skipped: r.Skipped, Reasons: r.Reasons}
}

// EventResponse is one entry of the retention event log.
type EventResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RecordKind string    `json:"record_kind,omitempty"`
	RecordID   string    `json:"record_id,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListEventsResponse is a page of retention events.
type ListEventsResponse struct {
	Data []EventResponse `json:"data"`
}

// MapEventsToListResponse converts events to a list response.
func MapEventsToListResponse(events []*retentionDomain.Event) ListEventsResponse {
	data := make([]EventResponse, 0, len(events))
	for _, e := range events {
		data = append(data, EventResponse{
			ID:         e.ID.String(),
			Kind:       string(e.Kind),
			RecordKind: string(e.RecordKind),
			RecordID:   idString(e.RecordID),
			JobID:      idString(e.JobID),
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt,
		})
	}
	return ListEventsResponse{Data: data}
}
