// Package dto provides request and response bodies for the syslog collector
// endpoints.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// CreateEndpointRequest creates a listener.
type CreateEndpointRequest struct {
	Name        string `json:"name"`
	Protocol    string `json:"protocol"`
	Address     string `json:"address"`
	TLSCertFile string `json:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file"`
}

// Validate checks the endpoint shape. Addresses are resolved by the use case.
func (r *CreateEndpointRequest) Validate() error {
	isTLS := r.Protocol == string(syslogDomain.ProtocolTLS)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.Protocol, validation.Required, validation.By(func(any) error {
			if !syslogDomain.Protocol(r.Protocol).Valid() {
				return validation.NewError("validation_protocol", "must be one of udp, tcp, tls")
			}
			return nil
		})),
		validation.Field(&r.Address, validation.Required, customValidation.NoWhitespace, validation.Length(1, 255)),
		validation.Field(&r.TLSCertFile, validation.When(isTLS, validation.Required), validation.Length(0, 1024)),
		validation.Field(&r.TLSKeyFile, validation.When(isTLS, validation.Required), validation.Length(0, 1024)),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateEndpointRequest) ToInput(tenantID uuid.UUID) *syslogUseCase.EndpointInput {
	return &syslogUseCase.EndpointInput{
		TenantID:    tenantID,
		Name:        r.Name,
		Protocol:    syslogDomain.Protocol(r.Protocol),
		Address:     r.Address,
		TLSCertFile: r.TLSCertFile,
		TLSKeyFile:  r.TLSKeyFile,
	}
}

// FilterRequest creates or replaces a filter. Active defaults to true.
type FilterRequest struct {
	Name            string `json:"name"`
	Priority        int    `json:"priority"`
	Facilities      []int  `json:"facilities"`
	Severities      []int  `json:"severities"`
	HostnamePattern string `json:"hostname_pattern"`
	TagPattern      string `json:"tag_pattern"`
	ContentPattern  string `json:"content_pattern"`
	SourceCIDR      string `json:"source_cidr"`
	Action          string `json:"action"`
	AlertSeverity   string `json:"alert_severity"`
	ForwardAddress  string `json:"forward_address"`
	Active          *bool  `json:"active"`
}

// Validate checks the filter shape.
func (r *FilterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.Priority, validation.Min(0)),
		validation.Field(&r.Facilities, validation.Each(validation.Min(0), validation.Max(23))),
		validation.Field(&r.Severities, validation.Each(validation.Min(0), validation.Max(7))),
		validation.Field(&r.HostnamePattern, customValidation.Regexp, validation.Length(0, 1024)),
		validation.Field(&r.TagPattern, customValidation.Regexp, validation.Length(0, 1024)),
		validation.Field(&r.ContentPattern, customValidation.Regexp, validation.Length(0, 1024)),
		validation.Field(&r.SourceCIDR, customValidation.CIDR),
		validation.Field(&r.Action, validation.Required, validation.By(func(any) error {
			if !syslogDomain.Action(r.Action).Valid() {
				return validation.NewError("validation_action", "must be one of accept, reject, forward, store, alert")
			}
			return nil
		})),
		validation.Field(&r.AlertSeverity, validation.By(func(any) error {
			if r.AlertSeverity != "" && !alertDomain.Severity(r.AlertSeverity).Valid() {
				return validation.NewError("validation_severity", "must be one of info, low, medium, high, critical")
			}
			return nil
		})),
		validation.Field(&r.ForwardAddress,
			validation.When(r.Action == string(syslogDomain.ActionForward), validation.Required),
			customValidation.NoWhitespace,
		),
	)
}

// ToInput converts the request to a use case input.
func (r *FilterRequest) ToInput(tenantID uuid.UUID) *syslogUseCase.FilterInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &syslogUseCase.FilterInput{
		TenantID:        tenantID,
		Name:            r.Name,
		Priority:        r.Priority,
		Facilities:      r.Facilities,
		Severities:      r.Severities,
		HostnamePattern: r.HostnamePattern,
		TagPattern:      r.TagPattern,
		ContentPattern:  r.ContentPattern,
		SourceCIDR:      r.SourceCIDR,
		Action:          syslogDomain.Action(r.Action),
		AlertSeverity:   r.AlertSeverity,
		ForwardAddress:  r.ForwardAddress,
		Active:          active,
	}
}
