// Package repository implements alert bus persistence for PostgreSQL, MySQL
// and the in-memory driver.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

const ruleColumns = `id, tenant_id, name, trigger_kind, event_kinds, predicate, window_ms, threshold,
	severity_floor, severity, cooldown_ms, max_per_hour, max_per_day, channels, active, last_fired_at,
	created_at, updated_at`

// SQLRuleRepository stores rules in the alert_rules table. Event kinds and
// channels are JSON documents; durations are milliseconds.
type SQLRuleRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func ruleArgs(rule *alertDomain.Rule) ([]any, error) {
	kinds, err := json.Marshal(rule.EventKinds)
	if err != nil {
		return nil, err
	}
	channels, err := json.Marshal(rule.Channels)
	if err != nil {
		return nil, err
	}
	return []any{
		rule.ID,
		rule.TenantID,
		rule.Name,
		string(rule.Trigger),
		string(kinds),
		rule.Predicate,
		rule.Window.Milliseconds(),
		rule.Threshold,
		string(rule.SeverityFloor),
		string(rule.Severity),
		rule.Cooldown.Milliseconds(),
		rule.MaxPerHour,
		rule.MaxPerDay,
		string(channels),
		rule.Active,
		rule.LastFiredAt,
		rule.CreatedAt,
		rule.UpdatedAt,
	}, nil
}

// Create inserts a rule.
func (r *SQLRuleRepository) Create(ctx context.Context, rule *alertDomain.Rule) error {
	querier := database.GetTx(ctx, r.db)

	args, err := ruleArgs(rule)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode rule")
	}

	query := r.dialect.Rebind(`INSERT INTO alert_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create rule")
	}
	return nil
}

// Update rewrites the mutable columns of a rule.
func (r *SQLRuleRepository) Update(ctx context.Context, rule *alertDomain.Rule) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE alert_rules SET active = $1, last_fired_at = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5`)

	result, err := querier.ExecContext(ctx, query, rule.Active, rule.LastFiredAt, rule.UpdatedAt, rule.ID, rule.TenantID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update rule")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return alertDomain.ErrRuleNotFound
	}
	return nil
}

// Get returns one rule of the tenant.
func (r *SQLRuleRepository) Get(ctx context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + ruleColumns + ` FROM alert_rules WHERE tenant_id = $1 AND id = $2`)

	rule, err := scanRule(querier.QueryRowContext(ctx, query, tenantID, ruleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alertDomain.ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// List returns rules of the tenant in creation order.
func (r *SQLRuleRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Rule, error) {
	query := r.dialect.Rebind(`SELECT ` + ruleColumns + ` FROM alert_rules WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`)
	return r.list(ctx, query, tenantID, limit, offset)
}

// ListActive returns the active rules of the tenant.
func (r *SQLRuleRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*alertDomain.Rule, error) {
	query := r.dialect.Rebind(`SELECT ` + ruleColumns + ` FROM alert_rules WHERE tenant_id = $1 AND active = $2
		ORDER BY created_at ASC, id ASC`)
	return r.list(ctx, query, tenantID, true)
}

// ListScheduled returns the active schedule rules of every tenant.
func (r *SQLRuleRepository) ListScheduled(ctx context.Context) ([]*alertDomain.Rule, error) {
	query := r.dialect.Rebind(`SELECT ` + ruleColumns + ` FROM alert_rules WHERE trigger_kind = $1 AND active = $2
		ORDER BY created_at ASC, id ASC`)
	return r.list(ctx, query, string(alertDomain.TriggerSchedule), true)
}

// Delete removes a rule.
func (r *SQLRuleRepository) Delete(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`DELETE FROM alert_rules WHERE tenant_id = $1 AND id = $2`)

	result, err := querier.ExecContext(ctx, query, tenantID, ruleID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to delete rule")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return alertDomain.ErrRuleNotFound
	}
	return nil
}

func (r *SQLRuleRepository) list(ctx context.Context, query string, args ...any) ([]*alertDomain.Rule, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list rules")
	}
	defer func() {
		_ = rows.Close()
	}()

	rules := make([]*alertDomain.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate rules")
	}
	return rules, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*alertDomain.Rule, error) {
	var (
		rule          alertDomain.Rule
		trigger       string
		kinds         string
		windowMS      int64
		severityFloor string
		severity      string
		cooldownMS    int64
		channels      string
		lastFiredAt   sql.NullTime
	)

	err := row.Scan(
		&rule.ID,
		&rule.TenantID,
		&rule.Name,
		&trigger,
		&kinds,
		&rule.Predicate,
		&windowMS,
		&rule.Threshold,
		&severityFloor,
		&severity,
		&cooldownMS,
		&rule.MaxPerHour,
		&rule.MaxPerDay,
		&channels,
		&rule.Active,
		&lastFiredAt,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan rule")
	}

	rule.Trigger = alertDomain.Trigger(trigger)
	rule.Window = time.Duration(windowMS) * time.Millisecond
	rule.Cooldown = time.Duration(cooldownMS) * time.Millisecond
	rule.SeverityFloor = alertDomain.Severity(severityFloor)
	rule.Severity = alertDomain.Severity(severity)
	rule.LastFiredAt = nullTime(lastFiredAt)
	if err := json.Unmarshal([]byte(kinds), &rule.EventKinds); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode rule event kinds")
	}
	if err := json.Unmarshal([]byte(channels), &rule.Channels); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode rule channels")
	}
	return &rule, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	at := t.Time.UTC()
	return &at
}

func nullID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

// NewSQLRuleRepository creates a rule repository for the given dialect.
func NewSQLRuleRepository(db *sql.DB, dialect database.Dialect) *SQLRuleRepository {
	return &SQLRuleRepository{db: db, dialect: dialect}
}
