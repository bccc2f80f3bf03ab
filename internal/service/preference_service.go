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
	"github.com/Danne56/chatbot-api/internal/store"
)

// PreferenceService 偏好状态机服务接口
//
// 状态：AWAITING / OPTED_IN / OPTED_OUT，intro_sent_today 为正交标记。
// 所有转移要求联系人存在（否则 domain.ErrInvalidReference）；转移幂等，
// 重复 opt-in 只重写 opted_in_at。
type PreferenceService interface {
	OptIn(ctx context.Context, contactID string) error
	OptOut(ctx context.Context, contactID string) error
	MarkIntroSent(ctx context.Context, contactID string) error

	// Get 按联系人ID查询偏好，未命中返回 domain.ErrNotFound
	Get(ctx context.Context, contactID string) (*domain.Preference, error)

	// ResetDailyFlags 批量清除每日标记，返回变更行数
	ResetDailyFlags(ctx context.Context) (int64, error)
}

// ConsentNotifier 同意状态变更的外部通知（webhook）
type ConsentNotifier interface {
	NotifyConsentChange(ctx context.Context, event domain.ConsentEvent) error
}

// preferenceService 实现
type preferenceService struct {
	prefsRepo    repository.PreferencesRepository
	contactsRepo repository.ContactsRepository
	publisher    store.ConsentPublisher
	notifier     ConsentNotifier // 可为 nil（webhook 未启用）
	logger       *zap.Logger
}

// NewPreferenceService 创建 PreferenceService 实例
func NewPreferenceService(
	prefsRepo repository.PreferencesRepository,
	contactsRepo repository.ContactsRepository,
	publisher store.ConsentPublisher,
	notifier ConsentNotifier,
	logger *zap.Logger,
) PreferenceService {
	return &preferenceService{
		prefsRepo:    prefsRepo,
		contactsRepo: contactsRepo,
		publisher:    publisher,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *preferenceService) OptIn(ctx context.Context, contactID string) error {
	at, err := s.transition(ctx, contactID, s.prefsRepo.OptIn)
	if err != nil {
		return err
	}
	s.emitConsentEvent(ctx, domain.ConsentEvent{
		ContactID: contactID,
		Event:     domain.ConsentEventOptIn,
		At:        at,
	})
	return nil
}

func (s *preferenceService) OptOut(ctx context.Context, contactID string) error {
	at, err := s.transition(ctx, contactID, s.prefsRepo.OptOut)
	if err != nil {
		return err
	}
	s.emitConsentEvent(ctx, domain.ConsentEvent{
		ContactID: contactID,
		Event:     domain.ConsentEventOptOut,
		At:        at,
	})
	return nil
}

func (s *preferenceService) MarkIntroSent(ctx context.Context, contactID string) error {
	_, err := s.transition(ctx, contactID, s.prefsRepo.MarkIntroSent)
	return err
}

func (s *preferenceService) Get(ctx context.Context, contactID string) (*domain.Preference, error) {
	return s.prefsRepo.GetByContactID(ctx, contactID)
}

func (s *preferenceService) ResetDailyFlags(ctx context.Context) (int64, error) {
	affected, err := s.prefsRepo.ResetDailyFlags(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily flags: %w", err)
	}
	s.logger.Info("daily flags reset", zap.Int64("affected_count", affected))
	return affected, nil
}

// transition 联系人存在性检查 + 单条原子转移语句
func (s *preferenceService) transition(
	ctx context.Context,
	contactID string,
	op func(ctx context.Context, contactID, newID string, at time.Time) error,
) (time.Time, error) {
	// 显式检查引用：部分部署不开外键约束，不能只依赖存储兜底
	if _, err := s.contactsRepo.GetByID(ctx, contactID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return time.Time{}, domain.ErrInvalidReference
		}
		return time.Time{}, fmt.Errorf("failed to verify contact: %w", err)
	}

	at := time.Now().UTC()
	if err := op(ctx, contactID, idgen.NewDefault(), at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// emitConsentEvent 转移成功后的旁路通知；失败只记日志，不影响转移结果
func (s *preferenceService) emitConsentEvent(ctx context.Context, event domain.ConsentEvent) {
	if s.publisher != nil {
		if _, err := s.publisher.PublishConsentEvent(ctx, event); err != nil {
			s.logger.Warn("failed to publish consent event",
				zap.String("contact_id", event.ContactID),
				zap.String("event", event.Event),
				zap.Error(err))
		}
	}

	if s.notifier != nil && event.Event == domain.ConsentEventOptOut {
		// webhook 走后台，不占请求路径
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.NotifyConsentChange(ctx, event); err != nil {
				s.logger.Warn("failed to notify consent webhook",
					zap.String("contact_id", event.ContactID),
					zap.Error(err))
			}
		}()
	}
}
