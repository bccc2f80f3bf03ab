package repository

import (
	"context"
	"time"

	"github.com/Danne56/chatbot-api/internal/config"
	"github.com/Danne56/chatbot-api/internal/domain"
)

// MemoryPreferencesRepo 内存版用户偏好Repository（与 MemoryContactsRepo 共享存储）
// 锁内的整段更新等价于存储层的单条原子语句
type MemoryPreferencesRepo struct {
	store  *MemoryStore
	policy config.WritePolicy
}

func NewMemoryPreferencesRepo(store *MemoryStore, policy config.WritePolicy) *MemoryPreferencesRepo {
	return &MemoryPreferencesRepo{store: store, policy: policy}
}

var _ PreferencesRepository = (*MemoryPreferencesRepo)(nil)

func (r *MemoryPreferencesRepo) GetByContactID(_ context.Context, contactID string) (*domain.Preference, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.preferences[contactID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryPreferencesRepo) OptIn(_ context.Context, contactID, newID string, at time.Time) error {
	return r.apply(contactID, newID, at, func(p *domain.Preference) {
		p.HasOptedIn = true
		p.AwaitingOptin = false
		t := at
		p.OptedInAt = &t
	})
}

func (r *MemoryPreferencesRepo) OptOut(_ context.Context, contactID, newID string, at time.Time) error {
	return r.apply(contactID, newID, at, func(p *domain.Preference) {
		p.HasOptedIn = false
		p.AwaitingOptin = false
		t := at
		p.OptedOutAt = &t
	})
}

func (r *MemoryPreferencesRepo) MarkIntroSent(_ context.Context, contactID, newID string, at time.Time) error {
	return r.apply(contactID, newID, at, func(p *domain.Preference) {
		p.IntroSentToday = true
	})
}

func (r *MemoryPreferencesRepo) ResetDailyFlags(_ context.Context, at time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var affected int64
	for id, p := range r.store.preferences {
		if !p.IntroSentToday {
			continue
		}
		p.IntroSentToday = false
		p.UpdatedAt = at
		r.store.preferences[id] = p
		affected++
	}
	return affected, nil
}

func (r *MemoryPreferencesRepo) apply(contactID, newID string, at time.Time, mutate func(*domain.Preference)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.preferences[contactID]
	if !ok {
		if r.policy == config.WritePolicyStrict {
			return domain.ErrNotFound
		}
		// upsert 策略：按键新建初始 AWAITING 行
		p = domain.Preference{
			ID:            newID,
			ContactID:     contactID,
			AwaitingOptin: true,
		}
	}
	mutate(&p)
	p.UpdatedAt = at
	r.store.preferences[contactID] = p
	return nil
}
