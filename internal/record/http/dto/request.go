package dto

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/httputil"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
)

var errInvalidCursor = errors.New("invalid cursor parameter")

// ListRecordsQuery holds the raw query string of GET /records.
type ListRecordsQuery struct {
	Kind       string `form:"kind"`
	From       string `form:"from"`
	To         string `form:"to"`
	Identity   string `form:"identity"`
	SourceIP   string `form:"source_ip"`
	Suspicious string `form:"suspicious"`
	Cursor     string `form:"cursor"`
	Limit      string `form:"limit"`
}

// ToFilter validates the query and converts it into a range filter.
func (q *ListRecordsQuery) ToFilter(tenantID uuid.UUID) (recordUseCase.RangeFilter, error) {
	f := recordUseCase.RangeFilter{
		RangeQuery: recordDomain.RangeQuery{TenantID: tenantID, Limit: 50},
		Identity:   strings.TrimSpace(q.Identity),
		SourceIP:   strings.TrimSpace(q.SourceIP),
	}

	if q.Kind != "" {
		for _, k := range strings.Split(q.Kind, ",") {
			kind := recordDomain.Kind(strings.TrimSpace(k))
			if !kind.Valid() {
				return f, errors.New("invalid kind parameter: must be session, syslog or flow")
			}
			f.Kinds = append(f.Kinds, kind)
		}
	}

	var err error
	if f.From, err = httputil.ParseTime(q.From, "from"); err != nil {
		return f, err
	}
	if f.To, err = httputil.ParseTime(q.To, "to"); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return f, errors.New("invalid time range: to must be after from")
	}

	if q.Suspicious != "" {
		suspicious, err := strconv.ParseBool(q.Suspicious)
		if err != nil {
			return f, errors.New("invalid suspicious parameter: must be a boolean")
		}
		f.Suspicious = &suspicious
	}

	if q.Cursor != "" {
		if f.After, err = DecodeCursor(q.Cursor); err != nil {
			return f, err
		}
	}

	if q.Limit != "" {
		limit, err := strconv.Atoi(q.Limit)
		if err != nil || limit < 1 || limit > 1000 {
			return f, errors.New("invalid limit parameter: must be between 1 and 1000")
		}
		f.Limit = limit
	}
	return f, nil
}
