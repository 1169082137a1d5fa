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

const alertColumns = `id, tenant_id, rule_id, event_id, event_kind, record_id, severity, title, message,
	event_count, fields, status, suppression_id, acknowledged_by, acknowledged_at, resolved_at,
	created_at, updated_at`

// SQLAlertRepository stores raised alerts in the alerts table.
type SQLAlertRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts an alert.
func (r *SQLAlertRepository) Create(ctx context.Context, alert *alertDomain.Alert) error {
	querier := database.GetTx(ctx, r.db)

	fields, err := json.Marshal(alert.Fields)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode alert fields")
	}

	query := r.dialect.Rebind(`INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		alert.ID,
		alert.TenantID,
		alert.RuleID,
		alert.EventID,
		alert.EventKind,
		alert.RecordID,
		string(alert.Severity),
		alert.Title,
		alert.Message,
		alert.EventCount,
		string(fields),
		string(alert.Status),
		alert.SuppressionID,
		alert.AcknowledgedBy,
		alert.AcknowledgedAt,
		alert.ResolvedAt,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create alert")
	}
	return nil
}

// Update rewrites the operator-facing state of an alert.
func (r *SQLAlertRepository) Update(ctx context.Context, alert *alertDomain.Alert) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE alerts SET status = $1, acknowledged_by = $2, acknowledged_at = $3,
		resolved_at = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7`)

	result, err := querier.ExecContext(
		ctx,
		query,
		string(alert.Status),
		alert.AcknowledgedBy,
		alert.AcknowledgedAt,
		alert.ResolvedAt,
		alert.UpdatedAt,
		alert.ID,
		alert.TenantID,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update alert")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return alertDomain.ErrAlertNotFound
	}
	return nil
}

// Get returns one alert of the tenant.
func (r *SQLAlertRepository) Get(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = $1 AND id = $2`)

	alert, err := scanAlert(querier.QueryRowContext(ctx, query, tenantID, alertID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alertDomain.ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

// List returns alerts newest first, filtered by status unless empty.
func (r *SQLAlertRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status alertDomain.Status,
	offset, limit int,
) ([]*alertDomain.Alert, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		query string
		args  []any
	)
	if status == "" {
		query = `SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`
		args = []any{tenantID, limit, offset}
	} else {
		query = `SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = $1 AND status = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3 OFFSET $4`
		args = []any{tenantID, string(status), limit, offset}
	}

	rows, err := querier.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list alerts")
	}
	defer func() {
		_ = rows.Close()
	}()

	alerts := make([]*alertDomain.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate alerts")
	}
	return alerts, nil
}

// CountByRuleSince counts alerts raised by a rule at or after since.
func (r *SQLAlertRepository) CountByRuleSince(ctx context.Context, ruleID uuid.UUID, since time.Time) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT COUNT(*) FROM alerts WHERE rule_id = $1 AND created_at >= $2`)

	var n int
	if err := querier.QueryRowContext(ctx, query, ruleID, since).Scan(&n); err != nil {
		return 0, apperrors.Wrap(err, "failed to count rule alerts")
	}
	return n, nil
}

func scanAlert(row scanner) (*alertDomain.Alert, error) {
	var (
		alert          alertDomain.Alert
		ruleID         uuid.NullUUID
		recordID       uuid.NullUUID
		severity       string
		fields         string
		status         string
		suppressionID  uuid.NullUUID
		acknowledgedBy uuid.NullUUID
		acknowledgedAt sql.NullTime
		resolvedAt     sql.NullTime
	)

	err := row.Scan(
		&alert.ID,
		&alert.TenantID,
		&ruleID,
		&alert.EventID,
		&alert.EventKind,
		&recordID,
		&severity,
		&alert.Title,
		&alert.Message,
		&alert.EventCount,
		&fields,
		&status,
		&suppressionID,
		&acknowledgedBy,
		&acknowledgedAt,
		&resolvedAt,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan alert")
	}

	alert.RuleID = nullID(ruleID)
	alert.RecordID = nullID(recordID)
	alert.SuppressionID = nullID(suppressionID)
	alert.AcknowledgedBy = nullID(acknowledgedBy)
	alert.AcknowledgedAt = nullTime(acknowledgedAt)
	alert.ResolvedAt = nullTime(resolvedAt)
	alert.Severity = alertDomain.Severity(severity)
	alert.Status = alertDomain.Status(status)
	if err := json.Unmarshal([]byte(fields), &alert.Fields); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode alert fields")
	}
	return &alert, nil
}

// NewSQLAlertRepository creates an alert repository for the given dialect.
func NewSQLAlertRepository(db *sql.DB, dialect database.Dialect) *SQLAlertRepository {
	return &SQLAlertRepository{db: db, dialect: dialect}
}

const deliveryColumns = `id, alert_id, tenant_id, channel, target, state, error, retry_count, created_at, updated_at`

// SQLDeliveryRepository stores the delivery log in the alert_deliveries table.
type SQLDeliveryRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a delivery row.
func (r *SQLDeliveryRepository) Create(ctx context.Context, d *alertDomain.Delivery) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO alert_deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		d.ID,
		d.AlertID,
		d.TenantID,
		string(d.Channel),
		d.Target,
		string(d.State),
		d.Error,
		d.RetryCount,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create delivery")
	}
	return nil
}

// Update records the outcome of a delivery.
func (r *SQLDeliveryRepository) Update(ctx context.Context, d *alertDomain.Delivery) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE alert_deliveries SET state = $1, error = $2, retry_count = $3, updated_at = $4
		WHERE id = $5`)

	_, err := querier.ExecContext(ctx, query, string(d.State), d.Error, d.RetryCount, d.UpdatedAt, d.ID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update delivery")
	}
	return nil
}

// ListByAlert returns the deliveries of an alert in creation order.
func (r *SQLDeliveryRepository) ListByAlert(ctx context.Context, alertID uuid.UUID) ([]*alertDomain.Delivery, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + deliveryColumns + ` FROM alert_deliveries WHERE alert_id = $1
		ORDER BY created_at ASC, id ASC`)

	rows, err := querier.QueryContext(ctx, query, alertID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deliveries")
	}
	defer func() {
		_ = rows.Close()
	}()

	deliveries := make([]*alertDomain.Delivery, 0)
	for rows.Next() {
		var (
			d       alertDomain.Delivery
			channel string
			state   string
		)
		err := rows.Scan(
			&d.ID,
			&d.AlertID,
			&d.TenantID,
			&channel,
			&d.Target,
			&state,
			&d.Error,
			&d.RetryCount,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan delivery")
		}
		d.Channel = alertDomain.ChannelKind(channel)
		d.State = alertDomain.DeliveryState(state)
		deliveries = append(deliveries, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate deliveries")
	}
	return deliveries, nil
}

// NewSQLDeliveryRepository creates a delivery repository for the given dialect.
func NewSQLDeliveryRepository(db *sql.DB, dialect database.Dialect) *SQLDeliveryRepository {
	return &SQLDeliveryRepository{db: db, dialect: dialect}
}
