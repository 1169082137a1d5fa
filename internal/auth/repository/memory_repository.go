package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// MemoryOperatorRepository keeps operators in process memory.
type MemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[uuid.UUID]authDomain.Operator
}

func cloneOperator(op authDomain.Operator) *authDomain.Operator {
	op.Memberships = slices.Clone(op.Memberships)
	for i := range op.Memberships {
		op.Memberships[i].Permissions = slices.Clone(op.Memberships[i].Permissions)
	}
	op.AllowedCIDRs = slices.Clone(op.AllowedCIDRs)
	return &op
}

func (r *MemoryOperatorRepository) Create(_ context.Context, operator *authDomain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.operators {
		if existing.Username == operator.Username {
			return apperrors.Wrap(apperrors.ErrConflict, "failed to create operator")
		}
	}
	r.operators[operator.ID] = *cloneOperator(*operator)
	return nil
}

func (r *MemoryOperatorRepository) Update(_ context.Context, operator *authDomain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.operators[operator.ID]
	if !ok {
		return authDomain.ErrOperatorNotFound
	}
	updated := *cloneOperator(*operator)
	updated.FailedAttempts = existing.FailedAttempts
	updated.LockedUntil = existing.LockedUntil
	r.operators[operator.ID] = updated
	return nil
}

func (r *MemoryOperatorRepository) Get(_ context.Context, operatorID uuid.UUID) (*authDomain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operators[operatorID]
	if !ok {
		return nil, authDomain.ErrOperatorNotFound
	}
	return cloneOperator(op), nil
}

func (r *MemoryOperatorRepository) GetByUsername(_ context.Context, username string) (*authDomain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, op := range r.operators {
		if op.Username == username {
			return cloneOperator(op), nil
		}
	}
	return nil, authDomain.ErrOperatorNotFound
}

func (r *MemoryOperatorRepository) List(_ context.Context, offset, limit int) ([]*authDomain.Operator, error) {
	r.mu.RLock()
	all := make([]*authDomain.Operator, 0, len(r.operators))
	for _, op := range r.operators {
		all = append(all, cloneOperator(op))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	if offset >= len(all) {
		return []*authDomain.Operator{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *MemoryOperatorRepository) UpdateLockState(
	_ context.Context,
	operatorID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.operators[operatorID]
	if !ok {
		return authDomain.ErrOperatorNotFound
	}
	op.FailedAttempts = failedAttempts
	op.LockedUntil = lockedUntil
	r.operators[operatorID] = op
	return nil
}

// NewMemoryOperatorRepository creates an empty in-memory operator repository.
func NewMemoryOperatorRepository() *MemoryOperatorRepository {
	return &MemoryOperatorRepository{operators: make(map[uuid.UUID]authDomain.Operator)}
}

// MemoryTokenRepository keeps token hashes in process memory.
type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]authDomain.Token
}

func (r *MemoryTokenRepository) Create(_ context.Context, token *authDomain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.TokenHash] = *token
	return nil
}

func (r *MemoryTokenRepository) GetByTokenHash(_ context.Context, tokenHash string) (*authDomain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, authDomain.ErrTokenNotFound
	}
	return &token, nil
}

func (r *MemoryTokenRepository) Revoke(_ context.Context, tokenID uuid.UUID, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, token := range r.tokens {
		if token.ID == tokenID {
			token.RevokedAt = &revokedAt
			r.tokens[hash] = token
			return nil
		}
	}
	return authDomain.ErrTokenNotFound
}

func (r *MemoryTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, token := range r.tokens {
		if token.ExpiresAt.Before(before) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

// NewMemoryTokenRepository creates an empty in-memory token repository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]authDomain.Token)}
}
