package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/domain"
	"github.com/Danne56/chatbot-api/internal/idgen"
	"github.com/Danne56/chatbot-api/internal/repository"
)

// MessageLogService 消息日志服务接口（只追加）
type MessageLogService interface {
	// Append 记录一对入/出消息；联系人不存在返回 domain.ErrInvalidReference
	Append(ctx context.Context, req AppendMessageRequest) (*AppendMessageResponse, error)

	// List 按联系人查询日志（时间倒序）
	List(ctx context.Context, contactID string, limit int) ([]*domain.MessageLogEntry, error)
}

// AppendMessageRequest 记录消息请求
type AppendMessageRequest struct {
	ContactID  string  // 必填
	MessageIn  string  // 必填
	MessageOut *string // 可选
}

// AppendMessageResponse 记录消息响应
type AppendMessageResponse struct {
	ID string
}

// messageLogService 实现
type messageLogService struct {
	logsRepo     repository.MessageLogsRepository
	contactsRepo repository.ContactsRepository
	logger       *zap.Logger
}

// NewMessageLogService 创建 MessageLogService 实例
func NewMessageLogService(
	logsRepo repository.MessageLogsRepository,
	contactsRepo repository.ContactsRepository,
	logger *zap.Logger,
) MessageLogService {
	return &messageLogService{
		logsRepo:     logsRepo,
		contactsRepo: contactsRepo,
		logger:       logger,
	}
}

func (s *messageLogService) Append(ctx context.Context, req AppendMessageRequest) (*AppendMessageResponse, error) {
	// 写前显式检查引用（存储层不保证开启外键约束）
	if _, err := s.contactsRepo.GetByID(ctx, req.ContactID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidReference
		}
		return nil, fmt.Errorf("failed to verify contact: %w", err)
	}

	entry := &domain.MessageLogEntry{
		ID:         idgen.NewDefault(),
		ContactID:  req.ContactID,
		Timestamp:  time.Now().UTC(),
		MessageIn:  req.MessageIn,
		MessageOut: req.MessageOut,
	}
	if err := s.logsRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append message log: %w", err)
	}

	return &AppendMessageResponse{ID: entry.ID}, nil
}

func (s *messageLogService) List(ctx context.Context, contactID string, limit int) ([]*domain.MessageLogEntry, error) {
	return s.logsRepo.ListByContact(ctx, contactID, limit)
}
