package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taxlaw-backend/models"
)

// SQLiteTaxReturnRepository is the SQLite flavour of TaxReturnRepository.
type SQLiteTaxReturnRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteTaxReturnRepository uses a database opened with OpenSQLite.
func NewSQLiteTaxReturnRepository(db *sql.DB) *SQLiteTaxReturnRepository {
	return &SQLiteTaxReturnRepository{db: db, now: time.Now}
}

// CreateWithAudit inserts the return and its audit entry in one transaction.
func (r *SQLiteTaxReturnRepository) CreateWithAudit(ctx context.Context, ret *models.TaxReturn, audit *models.AuditLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := r.now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO tax_returns (
			tin, assessment_year, payable, refundable, computation, citations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ret.TIN,
		ret.AssessmentYear,
		ret.Payable,
		ret.Refundable,
		ret.Computation,
		ret.Citations,
		formatSQLiteTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tax return: %w", err)
	}
	returnID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tax return id: %w", err)
	}

	if audit.Details == nil {
		audit.Details = models.AuditDetails{}
	}
	audit.Details["return_id"] = returnID

	res, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (event_type, details, user_tin, created_at)
		VALUES (?, ?, ?, ?)`,
		audit.EventType,
		audit.Details,
		audit.UserTIN,
		formatSQLiteTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	auditID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read audit log id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tax return: %w", err)
	}

	ret.ID, ret.CreatedAt = returnID, createdAt
	audit.ID, audit.CreatedAt = auditID, createdAt
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReturn(row rowScanner) (*models.TaxReturn, error) {
	ret := &models.TaxReturn{}
	var createdAt string
	if err := row.Scan(
		&ret.ID,
		&ret.TIN,
		&ret.AssessmentYear,
		&ret.Payable,
		&ret.Refundable,
		&ret.Computation,
		&ret.Citations,
		&createdAt,
	); err != nil {
		return nil, err
	}
	t, err := parseSQLiteTime(createdAt)
	if err != nil {
		return nil, err
	}
	ret.CreatedAt = t
	return ret, nil
}

// GetByID retrieves a tax return by ID
func (r *SQLiteTaxReturnRepository) GetByID(ctx context.Context, id int64) (*models.TaxReturn, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tin, assessment_year, payable, refundable, computation, citations, created_at
		FROM tax_returns
		WHERE id = ?`, id)

	ret, err := scanSQLiteReturn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// List retrieves the most recent returns, newest first
func (r *SQLiteTaxReturnRepository) List(ctx context.Context, limit int) ([]*models.TaxReturn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tin, assessment_year, payable, refundable, computation, citations, created_at
		FROM tax_returns
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := []*models.TaxReturn{}
	for rows.Next() {
		ret, err := scanSQLiteReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

// ListAuditLogs retrieves the most recent audit entries, newest first
func (r *SQLiteTaxReturnRepository) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, details, COALESCE(user_tin, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		l := &models.AuditLog{}
		var createdAt string
		if err := rows.Scan(&l.ID, &l.EventType, &l.Details, &l.UserTIN, &createdAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
