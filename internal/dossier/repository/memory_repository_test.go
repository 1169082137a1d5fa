package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

var baseTime = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newDossier(tenantID uuid.UUID, requestNumber string) *dossierDomain.Dossier {
	return &dossierDomain.Dossier{
		ID:            uuid.Must(uuid.NewV7()),
		TenantID:      tenantID,
		RequestNumber: requestNumber,
		Type:          dossierDomain.TypeCourtOrder,
		RequestedBy:   uuid.Must(uuid.NewV7()),
		From:          baseTime,
		To:            baseTime.Add(24 * time.Hour),
		Filter:        dossierDomain.Filter{Kinds: []recordDomain.Kind{recordDomain.KindSession}},
		Format:        dossierDomain.FormatJSON,
		Status:        dossierDomain.StatusDraft,
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
}

func TestMemoryDossierRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDossierRepository()
	tenantID := uuid.Must(uuid.NewV7())

	first := newDossier(tenantID, "2024/001")
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, newDossier(tenantID, "2024/001")), dossierDomain.ErrRequestNumberTaken)
	require.NoError(t, repo.Create(ctx, newDossier(uuid.Must(uuid.NewV7()), "2024/001")))

	second := newDossier(tenantID, "2024/002")
	require.NoError(t, repo.Create(ctx, second))

	t.Run("get is tenant scoped", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.Must(uuid.NewV7()), first.ID)
		assert.ErrorIs(t, err, dossierDomain.ErrDossierNotFound)

		got, err := repo.Get(ctx, tenantID, first.ID)
		require.NoError(t, err)
		got.Filter.Kinds[0] = recordDomain.KindFlow

		again, err := repo.Get(ctx, tenantID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, recordDomain.KindSession, again.Filter.Kinds[0])
	})

	t.Run("update guards status", func(t *testing.T) {
		updated := first.Clone()
		updated.Status = dossierDomain.StatusPendingApproval
		require.NoError(t, repo.Update(ctx, updated, dossierDomain.StatusDraft))

		stale := first.Clone()
		stale.Status = dossierDomain.StatusPendingApproval
		assert.ErrorIs(t, repo.Update(ctx, stale, dossierDomain.StatusDraft), dossierDomain.ErrInvalidTransition)

		missing := newDossier(tenantID, "nope")
		assert.ErrorIs(t, repo.Update(ctx, missing, dossierDomain.StatusDraft), dossierDomain.ErrDossierNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := repo.List(ctx, tenantID, "", 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)

		pending, err := repo.List(ctx, tenantID, dossierDomain.StatusPendingApproval, 0, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, first.ID, pending[0].ID)

		empty, err := repo.List(ctx, tenantID, "", 5, 10)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("list frozen", func(t *testing.T) {
		generated := second.Clone()
		generated.Status = dossierDomain.StatusGenerated
		require.NoError(t, repo.Update(ctx, generated, dossierDomain.StatusDraft))

		frozen, err := repo.ListFrozen(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, frozen, 1)
		assert.Equal(t, second.ID, frozen[0].ID)
	})
}

func TestMemoryTrailRepositories(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.Must(uuid.NewV7())
	dossierID := uuid.Must(uuid.NewV7())

	audit := NewMemoryAuditRepository()
	require.NoError(t, audit.Append(ctx, &dossierDomain.AuditEntry{
		ID:         uuid.Must(uuid.NewV7()),
		DossierID:  dossierID,
		TenantID:   tenantID,
		FromStatus: dossierDomain.StatusDraft,
		ToStatus:   dossierDomain.StatusPendingApproval,
		At:         baseTime,
	}))
	require.NoError(t, audit.Append(ctx, &dossierDomain.AuditEntry{
		ID:        uuid.Must(uuid.NewV7()),
		DossierID: uuid.Must(uuid.NewV7()),
		TenantID:  tenantID,
	}))

	entries, err := audit.List(ctx, tenantID, dossierID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, dossierDomain.StatusPendingApproval, entries[0].ToStatus)

	accesses := NewMemoryAccessRepository()
	for range 3 {
		require.NoError(t, accesses.Append(ctx, &dossierDomain.Access{
			ID:        uuid.Must(uuid.NewV7()),
			DossierID: dossierID,
			TenantID:  tenantID,
			Kind:      dossierDomain.AccessView,
			At:        baseTime,
		}))
	}

	list, err := accesses.List(ctx, tenantID, dossierID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := accesses.List(ctx, uuid.Must(uuid.NewV7()), dossierID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
