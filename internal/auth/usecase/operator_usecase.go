package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authService "github.com/allisson/trustlog/internal/auth/service"
	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

type operatorUseCase struct {
	txManager     database.TxManager
	operatorRepo  OperatorRepository
	secretService authService.SecretService
}

func (o *operatorUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateOperatorInput,
) (*authDomain.CreateOperatorOutput, error) {
	memberships, err := normalizeMemberships(input.Memberships)
	if err != nil {
		return nil, err
	}

	plainSecret, hashedSecret, err := o.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	operator := &authDomain.Operator{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     strings.ToLower(strings.TrimSpace(input.Username)),
		Secret:       hashedSecret,
		IsActive:     input.IsActive,
		Memberships:  memberships,
		AllowedCIDRs: input.AllowedCIDRs,
		AccessWindow: input.AccessWindow,
		ValidUntil:   input.ValidUntil,
		CreatedAt:    time.Now().UTC(),
	}

	err = o.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := o.operatorRepo.GetByUsername(ctx, operator.Username); err == nil {
			return authDomain.ErrUsernameTaken
		}
		return o.operatorRepo.Create(ctx, operator)
	})
	if err != nil {
		return nil, err
	}

	return &authDomain.CreateOperatorOutput{ID: operator.ID, PlainSecret: plainSecret}, nil
}

func (o *operatorUseCase) Update(
	ctx context.Context,
	operatorID uuid.UUID,
	input *authDomain.UpdateOperatorInput,
) error {
	memberships, err := normalizeMemberships(input.Memberships)
	if err != nil {
		return err
	}

	return o.txManager.WithTx(ctx, func(ctx context.Context) error {
		operator, err := o.operatorRepo.Get(ctx, operatorID)
		if err != nil {
			return err
		}
		operator.IsActive = input.IsActive
		operator.Memberships = memberships
		operator.AllowedCIDRs = input.AllowedCIDRs
		operator.AccessWindow = input.AccessWindow
		operator.ValidUntil = input.ValidUntil
		return o.operatorRepo.Update(ctx, operator)
	})
}

func (o *operatorUseCase) Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error) {
	return o.operatorRepo.Get(ctx, operatorID)
}

func (o *operatorUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error) {
	return o.operatorRepo.List(ctx, offset, limit)
}

func (o *operatorUseCase) Unlock(ctx context.Context, operatorID uuid.UUID) error {
	if _, err := o.operatorRepo.Get(ctx, operatorID); err != nil {
		return err
	}
	return o.operatorRepo.UpdateLockState(ctx, operatorID, 0, nil)
}

// normalizeMemberships validates roles and fills in role default permissions
// when none are given.
func normalizeMemberships(in []authDomain.Membership) ([]authDomain.Membership, error) {
	out := make([]authDomain.Membership, 0, len(in))
	seen := make(map[uuid.UUID]struct{}, len(in))
	for _, m := range in {
		if !authDomain.ValidRole(m.Role) {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown role %q", m.Role)
		}
		if _, dup := seen[m.TenantID]; dup {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "duplicate membership for tenant %s", m.TenantID)
		}
		seen[m.TenantID] = struct{}{}

		if len(m.Permissions) == 0 {
			m.Permissions = authDomain.DefaultPermissions(m.Role)
		}
		for _, p := range m.Permissions {
			if !authDomain.ValidPermission(p) {
				return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown permission %q", p)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// NewOperatorUseCase creates an OperatorUseCase.
func NewOperatorUseCase(
	txManager database.TxManager,
	operatorRepo OperatorRepository,
	secretService authService.SecretService,
) OperatorUseCase {
	return &operatorUseCase{
		txManager:     txManager,
		operatorRepo:  operatorRepo,
		secretService: secretService,
	}
}
