package dto

import (
	"time"

	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
)

// EndpointResponse is the operator view of a listener. Key paths are not
// returned.
type EndpointResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Protocol  string    `json:"protocol"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapEndpointToResponse converts an endpoint to its response body.
func MapEndpointToResponse(e *syslogDomain.Endpoint) EndpointResponse {
	return EndpointResponse{
		ID:        e.ID.String(),
		TenantID:  e.TenantID.String(),
		Name:      e.Name,
		Protocol:  string(e.Protocol),
		Address:   e.Address,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ListEndpointsResponse is a page of endpoints.
type ListEndpointsResponse struct {
	Data []EndpointResponse `json:"data"`
}

// MapEndpointsToListResponse converts endpoints to a list response.
func MapEndpointsToListResponse(endpoints []*syslogDomain.Endpoint) ListEndpointsResponse {
	data := make([]EndpointResponse, 0, len(endpoints))
	for _, e := range endpoints {
		data = append(data, MapEndpointToResponse(e))
	}
	return ListEndpointsResponse{Data: data}
}

// FilterResponse is the operator view of a filter.
type FilterResponse struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	Name            string    `json:"name"`
	Priority        int       `json:"priority"`
	Facilities      []int     `json:"facilities"`
	Severities      []int     `json:"severities"`
	HostnamePattern string    `json:"hostname_pattern,omitempty"`
	TagPattern      string    `json:"tag_pattern,omitempty"`
	ContentPattern  string    `json:"content_pattern,omitempty"`
	SourceCIDR      string    `json:"source_cidr,omitempty"`
	Action          string    `json:"action"`
	AlertSeverity   string    `json:"alert_severity,omitempty"`
	ForwardAddress  string    `json:"forward_address,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// MapFilterToResponse converts a filter to its response body.
func MapFilterToResponse(f *syslogDomain.Filter) FilterResponse {
	return FilterResponse{
		ID:              f.ID.String(),
		TenantID:        f.TenantID.String(),
		Name:            f.Name,
		Priority:        f.Priority,
		Facilities:      nonNil(f.Facilities),
		Severities:      nonNil(f.Severities),
		HostnamePattern: f.HostnamePattern,
		TagPattern:      f.TagPattern,
		ContentPattern:  f.ContentPattern,
		SourceCIDR:      f.SourceCIDR,
		Action:          string(f.Action),
		AlertSeverity:   f.AlertSeverity,
		ForwardAddress:  f.ForwardAddress,
		Active:          f.Active,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// ListFiltersResponse lists the filters of a tenant in evaluation order.
type ListFiltersResponse struct {
	Data []FilterResponse `json:"data"`
}

// MapFiltersToListResponse converts filters to a list response.
func MapFiltersToListResponse(filters []*syslogDomain.Filter) ListFiltersResponse {
	data := make([]FilterResponse, 0, len(filters))
	for _, f := range filters {
		data = append(data, MapFilterToResponse(f))
	}
	return ListFiltersResponse{Data: data}
}

// ClientResponse is the accounting view of one source.
type ClientResponse struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	Hostname      string    `json:"hostname,omitempty"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	MessageCount  int64     `json:"message_count"`
	RejectedCount int64     `json:"rejected_count"`
	Online        bool      `json:"online"`
}

// ListClientsResponse is a page of clients.
type ListClientsResponse struct {
	Data []ClientResponse `json:"data"`
}

// MapClientsToListResponse converts clients to a list response.
func MapClientsToListResponse(clients []*syslogDomain.Client) ListClientsResponse {
	data := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		data = append(data, ClientResponse{
			ID:            c.ID.String(),
			Address:       c.Address,
			Hostname:      c.Hostname,
			FirstSeen:     c.FirstSeen,
			LastSeen:      c.LastSeen,
			MessageCount:  c.MessageCount,
			RejectedCount: c.RejectedCount,
			Online:        c.Online,
		})
	}
	return ListClientsResponse{Data: data}
}
