package repository

import (
	"context"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// ContactsRepository 联系人数据访问接口
type ContactsRepository interface {
	// GetByPhone 按手机号查询，未命中返回 domain.ErrNotFound
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.Contact, error)

	// GetByID 按ID查询，未命中返回 domain.ErrNotFound
	GetByID(ctx context.Context, id string) (*domain.Contact, error)

	// CreateWithPreference 原子地写入联系人及配套偏好行（同一事务）
	// 手机号唯一约束冲突时返回 domain.ErrDuplicatePhone，调用方负责
	// 回读已存在的行完成幂等注册
	CreateWithPreference(ctx context.Context, c *domain.Contact, p *domain.Preference) error

	// ListConsent 联系人+同意状态全量导出（LEFT JOIN user_preferences）
	ListConsent(ctx context.Context) ([]*domain.ConsentExportRow, error)
}
