package repository

import (
	"context"
	"errors"
	"fmt"

	"taxlaw-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaxReturnRepository handles database operations for tax returns and their
// audit trail
type TaxReturnRepository struct {
	db *pgxpool.Pool
}

// NewTaxReturnRepository creates a new tax return repository
func NewTaxReturnRepository(db *pgxpool.Pool) *TaxReturnRepository {
	return &TaxReturnRepository{db: db}
}

// CreateWithAudit inserts the return and its audit entry in one transaction.
// On success ret.ID, ret.CreatedAt, audit.ID and audit.CreatedAt are set and
// audit.Details carries the new return_id.
func (r *TaxReturnRepository) CreateWithAudit(ctx context.Context, ret *models.TaxReturn, audit *models.AuditLog) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO tax_returns (
			tin, assessment_year, payable, refundable, computation, citations
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		ret.TIN,
		ret.AssessmentYear,
		ret.Payable,
		ret.Refundable,
		ret.Computation,
		ret.Citations,
	).Scan(&ret.ID, &ret.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tax return: %w", err)
	}

	if audit.Details == nil {
		audit.Details = models.AuditDetails{}
	}
	audit.Details["return_id"] = ret.ID

	err = tx.QueryRow(ctx, `
		INSERT INTO audit_logs (event_type, details, user_tin)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		audit.EventType,
		audit.Details,
		audit.UserTIN,
	).Scan(&audit.ID, &audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tax return: %w", err)
	}
	return nil
}

// GetByID retrieves a tax return by ID
func (r *TaxReturnRepository) GetByID(ctx context.Context, id int64) (*models.TaxReturn, error) {
	ret := &models.TaxReturn{}
	query := `
		SELECT id, tin, assessment_year, payable, refundable, computation, citations, created_at
		FROM tax_returns
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&ret.ID,
		&ret.TIN,
		&ret.AssessmentYear,
		&ret.Payable,
		&ret.Refundable,
		&ret.Computation,
		&ret.Citations,
		&ret.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// List retrieves the most recent returns, newest first
func (r *TaxReturnRepository) List(ctx context.Context, limit int) ([]*models.TaxReturn, error) {
	query := `
		SELECT id, tin, assessment_year, payable, refundable, computation, citations, created_at
		FROM tax_returns
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := []*models.TaxReturn{}
	for rows.Next() {
		ret := &models.TaxReturn{}
		err := rows.Scan(
			&ret.ID,
			&ret.TIN,
			&ret.AssessmentYear,
			&ret.Payable,
			&ret.Refundable,
			&ret.Computation,
			&ret.Citations,
			&ret.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}

	return returns, rows.Err()
}

// ListAuditLogs retrieves the most recent audit entries, newest first
func (r *TaxReturnRepository) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_type, details, COALESCE(user_tin, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		l := &models.AuditLog{}
		if err := rows.Scan(&l.ID, &l.EventType, &l.Details, &l.UserTIN, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
