package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// PostgresContactsRepository 联系人Repository实现
type PostgresContactsRepository struct {
	db *sql.DB
}

// NewPostgresContactsRepository 创建联系人Repository
func NewPostgresContactsRepository(db *sql.DB) *PostgresContactsRepository {
	return &PostgresContactsRepository{db: db}
}

// 确保实现了接口
var _ ContactsRepository = (*PostgresContactsRepository)(nil)

// isUniqueViolation Postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// GetByPhone 根据手机号获取联系人
func (r *PostgresContactsRepository) GetByPhone(ctx context.Context, phoneNumber string) (*domain.Contact, error) {
	if phoneNumber == "" {
		return nil, fmt.Errorf("phone_number is required")
	}

	query := `
		SELECT id, phone_number, created_at
		FROM contacts
		WHERE phone_number = $1
	`

	var contact domain.Contact
	err := r.db.QueryRowContext(ctx, query, phoneNumber).Scan(
		&contact.ID,
		&contact.PhoneNumber,
		&contact.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact by phone: %w", err)
	}

	return &contact, nil
}

// GetByID 根据ID获取联系人
func (r *PostgresContactsRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	query := `
		SELECT id, phone_number, created_at
		FROM contacts
		WHERE id = $1
	`

	var contact domain.Contact
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&contact.ID,
		&contact.PhoneNumber,
		&contact.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &contact, nil
}

// CreateWithPreference 同一事务写入联系人和配套偏好行
// 手机号撞唯一约束时整个事务回滚并返回 domain.ErrDuplicatePhone，
// 由调用方回读已有行（注册幂等的兜底路径）
func (r *PostgresContactsRepository) CreateWithPreference(ctx context.Context, c *domain.Contact, p *domain.Preference) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contacts (id, phone_number, created_at)
		VALUES ($1, $2, $3)
	`, c.ID, c.PhoneNumber, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("failed to insert contact: %w", err)
	}

	if p != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_preferences
				(id, contact_id, has_opted_in, awaiting_optin, intro_sent_today, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.ContactID, p.HasOptedIn, p.AwaitingOptin, p.IntroSentToday, p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicatePhone
			}
			return fmt.Errorf("failed to insert preference: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ListConsent 联系人+同意状态全量导出
func (r *PostgresContactsRepository) ListConsent(ctx context.Context) ([]*domain.ConsentExportRow, error) {
	query := `
		SELECT
			c.id,
			c.phone_number,
			c.created_at,
			p.id IS NOT NULL AS has_preference,
			COALESCE(p.has_opted_in, FALSE) AS has_opted_in,
			COALESCE(p.awaiting_optin, TRUE) AS awaiting_optin,
			COALESCE(p.intro_sent_today, FALSE) AS intro_sent_today,
			p.opted_in_at,
			p.opted_out_at
		FROM contacts c
		LEFT JOIN user_preferences p ON p.contact_id = c.id
		ORDER BY c.created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list consent rows: %w", err)
	}
	defer rows.Close()

	var result []*domain.ConsentExportRow
	for rows.Next() {
		var row domain.ConsentExportRow
		var hasOptedIn, awaiting bool
		var optedInAt, optedOutAt sql.NullTime
		if err := rows.Scan(
			&row.ContactID,
			&row.PhoneNumber,
			&row.CreatedAt,
			&row.HasPreference,
			&hasOptedIn,
			&awaiting,
			&row.IntroSentToday,
			&optedInAt,
			&optedOutAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consent row: %w", err)
		}
		pref := domain.Preference{HasOptedIn: hasOptedIn, AwaitingOptin: awaiting}
		row.State = pref.State()
		if optedInAt.Valid {
			row.OptedInAt = &optedInAt.Time
		}
		if optedOutAt.Valid {
			row.OptedOutAt = &optedOutAt.Time
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate consent rows: %w", err)
	}

	return result, nil
}
