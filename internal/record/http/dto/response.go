// Package dto provides response bodies and query parsing for the record endpoints.
package dto

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// RecordResponse is the operator view of a record with protected fields decrypted.
type RecordResponse struct {
	ID          string                      `json:"id"`
	TenantID    string                      `json:"tenant_id"`
	Kind        string                      `json:"kind"`
	EntryTime   time.Time                   `json:"entry_time"`
	ContentHash string                      `json:"content_hash"`
	Suspicious  bool                        `json:"suspicious"`
	ArchivedAt  *time.Time                  `json:"archived_at,omitempty"`
	Session     *recordDomain.SessionRecord `json:"session,omitempty"`
	Syslog      *recordDomain.SyslogMessage `json:"syslog,omitempty"`
	Flow        *recordDomain.FlowRecord    `json:"flow,omitempty"`
}

// ListRecordsResponse is one page of records.
type ListRecordsResponse struct {
	Data       []RecordResponse `json:"data"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// MapRecordToResponse converts a plaintext record.
func MapRecordToResponse(r *recordDomain.Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID.String(),
		TenantID:    r.TenantID.String(),
		Kind:        string(r.Kind),
		EntryTime:   r.EntryTime,
		ContentHash: r.ContentHash,
		Suspicious:  r.Suspicious,
		ArchivedAt:  r.ArchivedAt,
		Session:     r.Session,
		Syslog:      r.Syslog,
		Flow:        r.Flow,
	}
}

// MapPageToResponse converts a page and encodes its continuation cursor.
func MapPageToResponse(page *recordDomain.Page) ListRecordsResponse {
	data := make([]RecordResponse, 0, len(page.Records))
	for _, r := range page.Records {
		data = append(data, MapRecordToResponse(r))
	}
	resp := ListRecordsResponse{Data: data}
	if page.Next != nil {
		resp.NextCursor = EncodeCursor(*page.Next)
	}
	return resp
}

// EncodeCursor renders a cursor as an opaque URL-safe token.
func EncodeCursor(c recordDomain.Cursor) string {
	raw := strconv.FormatInt(c.EntryTime.UnixMicro(), 10) + ":" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*recordDomain.Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errInvalidCursor
	}
	micros, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, errInvalidCursor
	}
	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return nil, errInvalidCursor
	}
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, errInvalidCursor
	}
	return &recordDomain.Cursor{EntryTime: time.UnixMicro(us).UTC(), ID: recordID}, nil
}
