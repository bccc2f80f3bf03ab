package repository

import (
	"context"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// MessageLogsRepository 消息日志数据访问接口（只追加）
type MessageLogsRepository interface {
	// Append 追加一条日志；不做联系人存在性校验（由 service 层在写前检查）
	Append(ctx context.Context, entry *domain.MessageLogEntry) error

	// ListByContact 按联系人查询日志，按时间倒序，最多 limit 条
	ListByContact(ctx context.Context, contactID string, limit int) ([]*domain.MessageLogEntry, error)
}
