package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

func suspiciousSessionEvent() *alertDomain.Event {
	e := alertDomain.NewEvent(alertDomain.EventRecordCommitted, uuid.Must(uuid.NewV7()),
		alertDomain.SeverityMedium, "session record committed")
	e.Suspicious = true
	e.SourceIP = "203.0.113.9"
	e.Fields["record_kind"] = "session"
	e.Fields["dst_port"] = 3389
	return e
}

func TestPredicates_Match(t *testing.T) {
	p, err := NewPredicates()
	require.NoError(t, err)
	e := suspiciousSessionEvent()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty matches", "", true},
		{"suspicious session", `event.suspicious && event.fields.record_kind == "session"`, true},
		{"other kind", `event.fields.record_kind == "flow"`, false},
		{"severity", `event.severity in ["medium", "high"]`, true},
		{"string ext", `event.source_ip.startsWith("203.0.113.")`, true},
		{"numeric field", `event.fields.dst_port == 3389`, true},
		{"missing key is no match", `event.fields.missing == "x"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Match(tt.expr, e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicates_Validate(t *testing.T) {
	p, err := NewPredicates()
	require.NoError(t, err)

	assert.NoError(t, p.Validate(""))
	assert.NoError(t, p.Validate(`event.kind == "syslog.alert"`))

	err = p.Validate(`event.kind ==`)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = p.Validate(`"not a bool"`)
	assert.ErrorIs(t, err, alertDomain.ErrInvalidPredicate)

	_, err = p.Match(`event.kind ==`, suspiciousSessionEvent())
	assert.Error(t, err)
}
