// Package repository implements operator and token persistence for
// PostgreSQL, MySQL and the in-memory driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

const operatorColumns = `id, username, secret, is_active, allowed_cidrs, access_window_from,
	access_window_to, valid_until, failed_attempts, locked_until, created_at`

// SQLOperatorRepository persists operators in the operators table and their
// memberships in operator_memberships.
type SQLOperatorRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts the operator and its memberships.
func (r *SQLOperatorRepository) Create(ctx context.Context, operator *authDomain.Operator) error {
	querier := database.GetTx(ctx, r.db)

	from, to := windowColumns(operator.AccessWindow)
	query := r.dialect.Rebind(`INSERT INTO operators (` + operatorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		operator.ID,
		operator.Username,
		operator.Secret,
		operator.IsActive,
		joinPrefixes(operator.AllowedCIDRs),
		from,
		to,
		operator.ValidUntil,
		operator.FailedAttempts,
		operator.LockedUntil,
		operator.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create operator")
	}

	return r.insertMemberships(ctx, querier, operator)
}

// Update rewrites the operator row and replaces its memberships.
func (r *SQLOperatorRepository) Update(ctx context.Context, operator *authDomain.Operator) error {
	querier := database.GetTx(ctx, r.db)

	from, to := windowColumns(operator.AccessWindow)
	query := r.dialect.Rebind(`UPDATE operators
		SET secret = $1,
			is_active = $2,
			allowed_cidrs = $3,
			access_window_from = $4,
			access_window_to = $5,
			valid_until = $6
		WHERE id = $7`)

	result, err := querier.ExecContext(
		ctx,
		query,
		operator.Secret,
		operator.IsActive,
		joinPrefixes(operator.AllowedCIDRs),
		from,
		to,
		operator.ValidUntil,
		operator.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update operator")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return authDomain.ErrOperatorNotFound
	}

	_, err = querier.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM operator_memberships WHERE operator_id = $1`), operator.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to clear operator memberships")
	}
	return r.insertMemberships(ctx, querier, operator)
}

// Get retrieves an operator by id.
func (r *SQLOperatorRepository) Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error) {
	query := r.dialect.Rebind(`SELECT ` + operatorColumns + ` FROM operators WHERE id = $1`)
	return r.getOne(ctx, query, operatorID)
}

// GetByUsername retrieves an operator by username.
func (r *SQLOperatorRepository) GetByUsername(ctx context.Context, username string) (*authDomain.Operator, error) {
	query := r.dialect.Rebind(`SELECT ` + operatorColumns + ` FROM operators WHERE username = $1`)
	return r.getOne(ctx, query, username)
}

// List returns operators ordered by username.
func (r *SQLOperatorRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + operatorColumns + ` FROM operators ORDER BY username LIMIT $1 OFFSET $2`)
	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list operators")
	}

	operators := make([]*authDomain.Operator, 0)
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		operators = append(operators, op)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, apperrors.Wrap(err, "failed to iterate operators")
	}
	_ = rows.Close()

	for _, op := range operators {
		if op.Memberships, err = r.loadMemberships(ctx, querier, op.ID); err != nil {
			return nil, err
		}
	}
	return operators, nil
}

// UpdateLockState sets the failed attempt counter and lockout deadline.
func (r *SQLOperatorRepository) UpdateLockState(
	ctx context.Context,
	operatorID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE operators SET failed_attempts = $1, locked_until = $2 WHERE id = $3`)
	if _, err := querier.ExecContext(ctx, query, failedAttempts, lockedUntil, operatorID); err != nil {
		return apperrors.Wrap(err, "failed to update operator lock state")
	}
	return nil
}

func (r *SQLOperatorRepository) getOne(ctx context.Context, query string, arg any) (*authDomain.Operator, error) {
	querier := database.GetTx(ctx, r.db)

	op, err := scanOperator(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrOperatorNotFound
		}
		return nil, err
	}

	if op.Memberships, err = r.loadMemberships(ctx, querier, op.ID); err != nil {
		return nil, err
	}
	return op, nil
}

func (r *SQLOperatorRepository) insertMemberships(
	ctx context.Context,
	querier database.Querier,
	operator *authDomain.Operator,
) error {
	query := r.dialect.Rebind(`INSERT INTO operator_memberships (operator_id, tenant_id, role, permissions)
		VALUES ($1, $2, $3, $4)`)

	for _, m := range operator.Memberships {
		perms := make([]string, len(m.Permissions))
		for i, p := range m.Permissions {
			perms[i] = string(p)
		}
		_, err := querier.ExecContext(ctx, query, operator.ID, m.TenantID, string(m.Role), strings.Join(perms, ","))
		if err != nil {
			return apperrors.Wrap(database.TranslateError(err), "failed to create operator membership")
		}
	}
	return nil
}

func (r *SQLOperatorRepository) loadMemberships(
	ctx context.Context,
	querier database.Querier,
	operatorID uuid.UUID,
) ([]authDomain.Membership, error) {
	query := r.dialect.Rebind(`SELECT tenant_id, role, permissions FROM operator_memberships
		WHERE operator_id = $1 ORDER BY tenant_id`)

	rows, err := querier.QueryContext(ctx, query, operatorID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load operator memberships")
	}
	defer func() {
		_ = rows.Close()
	}()

	memberships := make([]authDomain.Membership, 0)
	for rows.Next() {
		var (
			m     authDomain.Membership
			role  string
			perms string
		)
		if err := rows.Scan(&m.TenantID, &role, &perms); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan operator membership")
		}
		m.Role = authDomain.Role(role)
		for _, p := range strings.Split(perms, ",") {
			if p != "" {
				m.Permissions = append(m.Permissions, authDomain.Permission(p))
			}
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate operator memberships")
	}
	return memberships, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperator(row scanner) (*authDomain.Operator, error) {
	var (
		op          authDomain.Operator
		cidrs       string
		from, to    sql.NullInt64
		validUntil  sql.NullTime
		lockedUntil sql.NullTime
	)

	err := row.Scan(
		&op.ID,
		&op.Username,
		&op.Secret,
		&op.IsActive,
		&cidrs,
		&from,
		&to,
		&validUntil,
		&op.FailedAttempts,
		&lockedUntil,
		&op.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan operator")
	}

	for _, raw := range strings.Split(cidrs, ",") {
		if raw == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, apperrors.Wrapf(err, "invalid stored cidr %q", raw)
		}
		op.AllowedCIDRs = append(op.AllowedCIDRs, prefix)
	}
	if from.Valid && to.Valid {
		op.AccessWindow = &authDomain.AccessWindow{From: int(from.Int64), To: int(to.Int64)}
	}
	if validUntil.Valid {
		t := validUntil.Time.UTC()
		op.ValidUntil = &t
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		op.LockedUntil = &t
	}
	op.CreatedAt = op.CreatedAt.UTC()
	return &op, nil
}

func windowColumns(w *authDomain.AccessWindow) (from, to sql.NullInt64) {
	if w == nil {
		return from, to
	}
	return sql.NullInt64{Int64: int64(w.From), Valid: true}, sql.NullInt64{Int64: int64(w.To), Valid: true}
}

func joinPrefixes(prefixes []netip.Prefix) string {
	parts := make([]string, len(prefixes))
	for i, p := range prefixes {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

// NewSQLOperatorRepository creates an operator repository for the given dialect.
func NewSQLOperatorRepository(db *sql.DB, dialect database.Dialect) *SQLOperatorRepository {
	return &SQLOperatorRepository{db: db, dialect: dialect}
}
