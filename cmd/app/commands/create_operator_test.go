package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authMocks "github.com/allisson/trustlog/internal/auth/usecase/mocks"
)

func TestRunCreateOperator(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenantID := uuid.New()
	output := &authDomain.CreateOperatorOutput{ID: uuid.New(), PlainSecret: "plain-secret"}

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &authMocks.MockOperatorUseCase{}
		mockUseCase.On("Create", ctx, mock.MatchedBy(func(in *authDomain.CreateOperatorInput) bool {
			return in.Username == "ayse" &&
				len(in.Memberships) == 1 &&
				in.Memberships[0].TenantID == tenantID &&
				in.Memberships[0].Role == authDomain.RoleStaff &&
				len(in.AllowedCIDRs) == 2 &&
				in.ValidUntil != nil
		})).Return(output, nil)

		var out bytes.Buffer
		err := RunCreateOperator(
			ctx, mockUseCase, logger, &out,
			"ayse", tenantID.String(), "staff", "10.0.0.0/8, 192.168.1.0/24", 90, "text",
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), "Operator created successfully")
		require.Contains(t, out.String(), "Secret: plain-secret")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &authMocks.MockOperatorUseCase{}
		mockUseCase.On("Create", ctx, mock.MatchedBy(func(in *authDomain.CreateOperatorInput) bool {
			return in.ValidUntil == nil && len(in.AllowedCIDRs) == 0
		})).Return(output, nil)

		var out bytes.Buffer
		err := RunCreateOperator(ctx, mockUseCase, logger, &out, "ayse", tenantID.String(), "admin", "", 0, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"secret": "plain-secret"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-tenant-id", func(t *testing.T) {
		mockUseCase := &authMocks.MockOperatorUseCase{}
		err := RunCreateOperator(ctx, mockUseCase, logger, &bytes.Buffer{}, "ayse", "nope", "admin", "", 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid tenant id")
	})

	t.Run("invalid-role", func(t *testing.T) {
		mockUseCase := &authMocks.MockOperatorUseCase{}
		err := RunCreateOperator(ctx, mockUseCase, logger, &bytes.Buffer{}, "ayse", tenantID.String(), "root", "", 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid role")
	})

	t.Run("invalid-cidr", func(t *testing.T) {
		mockUseCase := &authMocks.MockOperatorUseCase{}
		err := RunCreateOperator(
			ctx, mockUseCase, logger, &bytes.Buffer{},
			"ayse", tenantID.String(), "viewer", "10.0.0.1", 0, "text",
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid cidr")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &authMocks.MockOperatorUseCase{}
		mockUseCase.On("Create", ctx, mock.Anything).Return(nil, errors.New("duplicate username"))

		err := RunCreateOperator(ctx, mockUseCase, logger, &bytes.Buffer{}, "ayse", tenantID.String(), "viewer", "", 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create operator")
	})
}
