package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// assertSeries matches a Prometheus sample line. The exporter adds otel scope
// labels, so only the listed labels are checked.
func assertSeries(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Nil", nil, StatusSuccess},
		{"ConsentMissing", apperrors.ErrConsentMissing, StatusRejected},
		{"WrappedIdentityRejected", fmt.Errorf("admit: %w", apperrors.ErrIdentityRejected), StatusRejected},
		{"RetentionSkip", apperrors.ErrRetentionSkip, StatusRejected},
		{"Forbidden", apperrors.ErrForbidden, StatusRejected},
		{"StorageFull", apperrors.ErrStorageFull, StatusError},
		{"SignFailed", apperrors.ErrSignFailed, StatusError},
		{"Unknown", errors.New("boom"), StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}

func TestBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("trustlog", "test")
	require.NoError(t, err)
	defer func() { assert.NoError(t, provider.Shutdown(context.Background())) }()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "trustlog")
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Now().Add(-40 * time.Millisecond)
	RecordResult(ctx, bm, "records", "record_append", start, nil)
	RecordResult(ctx, bm, "records", "record_append", start, nil)
	RecordResult(ctx, bm, "records", "record_append", start, apperrors.ErrConsentMissing)
	RecordResult(ctx, bm, "dossiers", "dossier_generate", start, apperrors.ErrPersistenceFailed)
	bm.RecordDuration(ctx, "dossiers", "dossier_generate", 90*time.Second, StatusSuccess)

	output := scrape(t, provider)

	assertSeries(t, output, "trustlog_operations_total",
		`domain="records".*operation="record_append".*status="success"`, "2")
	assertSeries(t, output, "trustlog_operations_total",
		`domain="records".*operation="record_append".*status="rejected"`, "1")
	assertSeries(t, output, "trustlog_operations_total",
		`domain="dossiers".*operation="dossier_generate".*status="error"`, "1")
	assertSeries(t, output, "trustlog_operation_duration_seconds_count",
		`domain="records".*operation="record_append".*status="success"`, "2")
	// Long dossier runs land below the 120s boundary, not in +Inf only.
	assertSeries(t, output, "trustlog_operation_duration_seconds_bucket",
		`domain="dossiers".*operation="dossier_generate".*status="success".*le="120"`, "1")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, bm)

	assert.NotPanics(t, func() {
		RecordResult(context.Background(), bm, "records", "record_append", time.Now(), errors.New("boom"))
	})
}
