package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
	retentionMocks "github.com/allisson/trustlog/internal/retention/usecase/mocks"
)

func TestRunArchive(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	tenantID := uuid.New()

	t.Run("single-kind-text", func(t *testing.T) {
		job := &retentionDomain.ArchiveJob{
			ID:          uuid.New(),
			Status:      retentionDomain.JobCompleted,
			Backend:     retentionDomain.BackendWORM,
			RecordCount: 12,
		}
		mockUseCase := &retentionMocks.MockRetentionUseCase{}
		mockUseCase.On("RunArchive", ctx, tenantID, recordDomain.KindSession).Return(job, nil)

		var out bytes.Buffer
		err := RunArchive(ctx, mockUseCase, logger, &out, tenantID.String(), "session", "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "session: archived 12 record(s) to worm")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("all-kinds-json", func(t *testing.T) {
		mockUseCase := &retentionMocks.MockRetentionUseCase{}
		mockUseCase.On("RunArchive", ctx, tenantID, recordDomain.KindSession).
			Return(&retentionDomain.ArchiveJob{ID: uuid.New(), RecordCount: 3}, nil)
		mockUseCase.On("RunArchive", ctx, tenantID, recordDomain.KindSyslog).Return(nil, nil)
		mockUseCase.On("RunArchive", ctx, tenantID, recordDomain.KindFlow).Return(nil, nil)

		var out bytes.Buffer
		err := RunArchive(ctx, mockUseCase, logger, &out, tenantID.String(), "all", "json")
		require.NoError(t, err)

		var result struct {
			Jobs []map[string]interface{} `json:"jobs"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Len(t, result.Jobs, 3)
		require.Equal(t, float64(3), result.Jobs[0]["records"])
		require.Equal(t, float64(0), result.Jobs[1]["records"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("busy", func(t *testing.T) {
		mockUseCase := &retentionMocks.MockRetentionUseCase{}
		mockUseCase.On("RunArchive", ctx, tenantID, recordDomain.KindFlow).Return(nil, retentionDomain.ErrBusy)

		err := RunArchive(ctx, mockUseCase, logger, &bytes.Buffer{}, tenantID.String(), "flow", "text")
		require.ErrorIs(t, err, retentionDomain.ErrBusy)
	})

	t.Run("invalid-kind", func(t *testing.T) {
		err := RunArchive(ctx, nil, logger, nil, tenantID.String(), "dhcp", "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid kind")
	})
}

func TestRunCleanup(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	tenantID := uuid.New()

	t.Run("text-with-reasons", func(t *testing.T) {
		mockUseCase := &retentionMocks.MockRetentionUseCase{}
		mockUseCase.On("RunCleanup", ctx, tenantID, recordDomain.KindSyslog).
			Return(&retentionUseCase.CleanupReport{
				Checked: 10,
				Purged:  8,
				Skipped: 2,
				Reasons: map[string]int{"legal_hold": 2},
			}, nil)

		var out bytes.Buffer
		err := RunCleanup(ctx, mockUseCase, logger, &out, tenantID.String(), "syslog", "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "syslog: checked 10, purged 8, skipped 2")
		require.Contains(t, out.String(), "legal_hold: 2")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json", func(t *testing.T) {
		mockUseCase := &retentionMocks.MockRetentionUseCase{}
		mockUseCase.On("RunCleanup", ctx, tenantID, recordDomain.KindFlow).
			Return(&retentionUseCase.CleanupReport{Checked: 1, Purged: 1}, nil)

		var out bytes.Buffer
		err := RunCleanup(ctx, mockUseCase, logger, &out, tenantID.String(), "flow", "json")
		require.NoError(t, err)
		require.Contains(t, out.String(), `"purged": 1`)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &retentionMocks.MockRetentionUseCase{}
		mockUseCase.On("RunCleanup", ctx, tenantID, recordDomain.KindSession).Return(nil, errors.New("boom"))

		err := RunCleanup(ctx, mockUseCase, logger, &bytes.Buffer{}, tenantID.String(), "session", "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to clean up session records")
	})

	t.Run("invalid-tenant-id", func(t *testing.T) {
		err := RunCleanup(ctx, nil, logger, nil, "x", "session", "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid tenant id")
	})
}
