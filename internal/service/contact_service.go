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

// ContactService 联系人注册/查询服务接口
type ContactService interface {
	// Register 按手机号幂等注册：已存在则返回现有ID（Existed=true），
	// 不存在则创建联系人 + 初始 AWAITING 偏好行
	Register(ctx context.Context, req RegisterContactRequest) (*RegisterContactResponse, error)

	// Lookup 按手机号查询，未命中返回 domain.ErrNotFound
	Lookup(ctx context.Context, phoneNumber string) (*domain.Contact, error)

	// ExportConsent 联系人+同意状态全量导出
	ExportConsent(ctx context.Context) ([]*domain.ConsentExportRow, error)
}

// RegisterContactRequest 注册请求
type RegisterContactRequest struct {
	PhoneNumber string // 必填，5-20 字符（handler 层已校验）
}

// RegisterContactResponse 注册响应
type RegisterContactResponse struct {
	ID      string
	Existed bool
}

// contactService 实现
type contactService struct {
	contactsRepo repository.ContactsRepository
	logger       *zap.Logger
}

// NewContactService 创建 ContactService 实例
func NewContactService(contactsRepo repository.ContactsRepository, logger *zap.Logger) ContactService {
	return &contactService{
		contactsRepo: contactsRepo,
		logger:       logger,
	}
}

func (s *contactService) Register(ctx context.Context, req RegisterContactRequest) (*RegisterContactResponse, error) {
	// 先查再插：重复注册的常规路径是这里直接命中，零写入
	existing, err := s.contactsRepo.GetByPhone(ctx, req.PhoneNumber)
	if err == nil {
		return &RegisterContactResponse{ID: existing.ID, Existed: true}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing contact: %w", err)
	}

	now := time.Now().UTC()
	contact := &domain.Contact{
		ID:          idgen.NewDefault(),
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   now,
	}
	pref := &domain.Preference{
		ID:            idgen.NewDefault(),
		ContactID:     contact.ID,
		HasOptedIn:    false,
		AwaitingOptin: true,
		UpdatedAt:     now,
	}

	err = s.contactsRepo.CreateWithPreference(ctx, contact, pref)
	if err == nil {
		return &RegisterContactResponse{ID: contact.ID, Existed: false}, nil
	}

	// 并发注册撞唯一约束：回读赢家的行，作为 "already existed" 成功返回。
	// 这一步是正确性要求，不能把约束冲突当 5xx 抛给调用方。
	if errors.Is(err, domain.ErrDuplicatePhone) {
		winner, readErr := s.contactsRepo.GetByPhone(ctx, req.PhoneNumber)
		if readErr != nil {
			return nil, fmt.Errorf("failed to reconcile duplicate registration: %w", readErr)
		}
		s.logger.Debug("concurrent registration reconciled",
			zap.String("phone_number", req.PhoneNumber),
			zap.String("contact_id", winner.ID))
		return &RegisterContactResponse{ID: winner.ID, Existed: true}, nil
	}

	return nil, fmt.Errorf("failed to create contact: %w", err)
}

func (s *contactService) Lookup(ctx context.Context, phoneNumber string) (*domain.Contact, error) {
	return s.contactsRepo.GetByPhone(ctx, phoneNumber)
}

func (s *contactService) ExportConsent(ctx context.Context) ([]*domain.ConsentExportRow, error) {
	return s.contactsRepo.ListConsent(ctx)
}
