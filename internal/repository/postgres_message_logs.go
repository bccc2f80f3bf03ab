package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// PostgresMessageLogsRepository 消息日志Repository实现（只追加）
type PostgresMessageLogsRepository struct {
	db *sql.DB
}

// NewPostgresMessageLogsRepository 创建消息日志Repository
func NewPostgresMessageLogsRepository(db *sql.DB) *PostgresMessageLogsRepository {
	return &PostgresMessageLogsRepository{db: db}
}

// 确保实现了接口
var _ MessageLogsRepository = (*PostgresMessageLogsRepository)(nil)

// Append 追加一条消息日志
func (r *PostgresMessageLogsRepository) Append(ctx context.Context, entry *domain.MessageLogEntry) error {
	var messageOut sql.NullString
	if entry.MessageOut != nil {
		messageOut = sql.NullString{String: *entry.MessageOut, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_logs (id, contact_id, ts, message_in, message_out)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.ContactID, entry.Timestamp, entry.MessageIn, messageOut)
	if err != nil {
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	return nil
}

// ListByContact 按联系人查询消息日志（时间倒序）
func (r *PostgresMessageLogsRepository) ListByContact(ctx context.Context, contactID string, limit int) ([]*domain.MessageLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contact_id, ts, message_in, message_out
		FROM message_logs
		WHERE contact_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`, contactID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list message logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MessageLogEntry
	for rows.Next() {
		var entry domain.MessageLogEntry
		var messageOut sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.ContactID,
			&entry.Timestamp,
			&entry.MessageIn,
			&messageOut,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message log: %w", err)
		}
		if messageOut.Valid {
			entry.MessageOut = &messageOut.String
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message logs: %w", err)
	}

	return entries, nil
}
