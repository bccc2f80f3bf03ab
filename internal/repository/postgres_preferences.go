package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Danne56/chatbot-api/internal/config"
	"github.com/Danne56/chatbot-api/internal/domain"
)

// PostgresPreferencesRepository 用户偏好Repository实现
// 写入策略（upsert / strict）在构造时确定，对三个转移操作统一生效
type PostgresPreferencesRepository struct {
	db     *sql.DB
	policy config.WritePolicy
}

// NewPostgresPreferencesRepository 创建用户偏好Repository
func NewPostgresPreferencesRepository(db *sql.DB, policy config.WritePolicy) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{db: db, policy: policy}
}

// 确保实现了接口
var _ PreferencesRepository = (*PostgresPreferencesRepository)(nil)

// GetByContactID 根据联系人ID获取偏好
func (r *PostgresPreferencesRepository) GetByContactID(ctx context.Context, contactID string) (*domain.Preference, error) {
	if contactID == "" {
		return nil, fmt.Errorf("contact_id is required")
	}

	query := `
		SELECT id, contact_id, has_opted_in, awaiting_optin, intro_sent_today,
		       opted_in_at, opted_out_at, updated_at
		FROM user_preferences
		WHERE contact_id = $1
	`

	var pref domain.Preference
	var optedInAt, optedOutAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, contactID).Scan(
		&pref.ID,
		&pref.ContactID,
		&pref.HasOptedIn,
		&pref.AwaitingOptin,
		&pref.IntroSentToday,
		&optedInAt,
		&optedOutAt,
		&pref.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	if optedInAt.Valid {
		pref.OptedInAt = &optedInAt.Time
	}
	if optedOutAt.Valid {
		pref.OptedOutAt = &optedOutAt.Time
	}
	return &pref, nil
}

// OptIn 置为 OPTED_IN（单条原子语句）
func (r *PostgresPreferencesRepository) OptIn(ctx context.Context, contactID, newID string, at time.Time) error {
	if r.policy == config.WritePolicyStrict {
		return r.strictExec(ctx, `
			UPDATE user_preferences
			SET has_opted_in = TRUE,
			    awaiting_optin = FALSE,
			    opted_in_at = $2,
			    updated_at = $2
			WHERE contact_id = $1
		`, "opt-in", contactID, at)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences
			(id, contact_id, has_opted_in, awaiting_optin, intro_sent_today, opted_in_at, updated_at)
		VALUES ($1, $2, TRUE, FALSE, FALSE, $3, $3)
		ON CONFLICT (contact_id) DO UPDATE SET
			has_opted_in = TRUE,
			awaiting_optin = FALSE,
			opted_in_at = EXCLUDED.opted_in_at,
			updated_at = EXCLUDED.updated_at
	`, newID, contactID, at)
	if err != nil {
		return fmt.Errorf("failed to upsert opt-in: %w", err)
	}
	return nil
}

// OptOut 置为 OPTED_OUT（单条原子语句）
func (r *PostgresPreferencesRepository) OptOut(ctx context.Context, contactID, newID string, at time.Time) error {
	if r.policy == config.WritePolicyStrict {
		return r.strictExec(ctx, `
			UPDATE user_preferences
			SET has_opted_in = FALSE,
			    awaiting_optin = FALSE,
			    opted_out_at = $2,
			    updated_at = $2
			WHERE contact_id = $1
		`, "opt-out", contactID, at)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences
			(id, contact_id, has_opted_in, awaiting_optin, intro_sent_today, opted_out_at, updated_at)
		VALUES ($1, $2, FALSE, FALSE, FALSE, $3, $3)
		ON CONFLICT (contact_id) DO UPDATE SET
			has_opted_in = FALSE,
			awaiting_optin = FALSE,
			opted_out_at = EXCLUDED.opted_out_at,
			updated_at = EXCLUDED.updated_at
	`, newID, contactID, at)
	if err != nil {
		return fmt.Errorf("failed to upsert opt-out: %w", err)
	}
	return nil
}

// MarkIntroSent 置 intro_sent_today = true，同意状态不变
func (r *PostgresPreferencesRepository) MarkIntroSent(ctx context.Context, contactID, newID string, at time.Time) error {
	if r.policy == config.WritePolicyStrict {
		return r.strictExec(ctx, `
			UPDATE user_preferences
			SET intro_sent_today = TRUE,
			    updated_at = $2
			WHERE contact_id = $1
		`, "mark-intro-sent", contactID, at)
	}

	// 新建行时保持初始 AWAITING 状态，仅带上 intro 标记
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences
			(id, contact_id, has_opted_in, awaiting_optin, intro_sent_today, updated_at)
		VALUES ($1, $2, FALSE, TRUE, TRUE, $3)
		ON CONFLICT (contact_id) DO UPDATE SET
			intro_sent_today = TRUE,
			updated_at = EXCLUDED.updated_at
	`, newID, contactID, at)
	if err != nil {
		return fmt.Errorf("failed to upsert intro-sent: %w", err)
	}
	return nil
}

// ResetDailyFlags 单条批量语句清除每日标记，只改当前已置位的行
func (r *PostgresPreferencesRepository) ResetDailyFlags(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_preferences
		SET intro_sent_today = FALSE,
		    updated_at = $1
		WHERE intro_sent_today = TRUE
	`, at)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily flags: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// strictExec strict 策略下的按键 UPDATE，0 行受影响视为 NotFound
func (r *PostgresPreferencesRepository) strictExec(ctx context.Context, query, op, contactID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, query, contactID, at)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
