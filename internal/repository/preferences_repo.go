package repository

import (
	"context"
	"time"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// PreferencesRepository 用户偏好数据访问接口
//
// 三个转移操作都是对存储的单条原子语句（upsert 策略下为
// INSERT ... ON CONFLICT DO UPDATE，strict 策略下为按键 UPDATE +
// RowsAffected 检查），绝不是读-改-写两趟。并发的 opt-in / opt-out
// 在存储层按行串行化，最终行内字段一定来自同一次转移。
//
// 写入策略由实现的构造参数决定，对三个转移操作统一生效；strict
// 策略下偏好行不存在时返回 domain.ErrNotFound。
type PreferencesRepository interface {
	// GetByContactID 按联系人ID查询，未命中返回 domain.ErrNotFound
	GetByContactID(ctx context.Context, contactID string) (*domain.Preference, error)

	// OptIn 置为 OPTED_IN，清除 awaiting_optin，写 opted_in_at
	// newID 仅在 upsert 策略需要新建行时用作主键
	OptIn(ctx context.Context, contactID, newID string, at time.Time) error

	// OptOut 置为 OPTED_OUT，写 opted_out_at
	OptOut(ctx context.Context, contactID, newID string, at time.Time) error

	// MarkIntroSent 置 intro_sent_today = true，不影响同意状态
	MarkIntroSent(ctx context.Context, contactID, newID string, at time.Time) error

	// ResetDailyFlags 单条批量语句清除所有 intro_sent_today 标记，
	// 返回实际变更的行数
	ResetDailyFlags(ctx context.Context, at time.Time) (int64, error)
}
