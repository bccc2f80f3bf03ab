package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// MemoryContactsRepo supports DB-less dev runs and service-level tests.
// Shares one store with MemoryPreferencesRepo so the eager preference row and
// the export join behave like the real schema.
type MemoryContactsRepo struct {
	store *MemoryStore
}

// MemoryStore 内存模式下 contacts / user_preferences / message_logs 的共享存储
type MemoryStore struct {
	mu          sync.RWMutex
	contacts    map[string]domain.Contact    // id -> Contact
	byPhone     map[string]string            // phone_number -> id
	preferences map[string]domain.Preference // contact_id -> Preference
	messages    []domain.MessageLogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts:    map[string]domain.Contact{},
		byPhone:     map[string]string{},
		preferences: map[string]domain.Preference{},
	}
}

func NewMemoryContactsRepo(store *MemoryStore) *MemoryContactsRepo {
	return &MemoryContactsRepo{store: store}
}

var _ ContactsRepository = (*MemoryContactsRepo)(nil)

func (r *MemoryContactsRepo) GetByPhone(_ context.Context, phoneNumber string) (*domain.Contact, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byPhone[phoneNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := r.store.contacts[id]
	return &c, nil
}

func (r *MemoryContactsRepo) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *MemoryContactsRepo) CreateWithPreference(_ context.Context, c *domain.Contact, p *domain.Preference) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// 模拟 UNIQUE(phone_number)：锁内检查即是“约束仲裁”
	if _, exists := r.store.byPhone[c.PhoneNumber]; exists {
		return domain.ErrDuplicatePhone
	}

	r.store.contacts[c.ID] = *c
	r.store.byPhone[c.PhoneNumber] = c.ID
	if p != nil {
		r.store.preferences[p.ContactID] = *p
	}
	return nil
}

func (r *MemoryContactsRepo) ListConsent(_ context.Context) ([]*domain.ConsentExportRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]*domain.ConsentExportRow, 0, len(r.store.contacts))
	for _, c := range r.store.contacts {
		row := domain.ConsentExportRow{
			ContactID:   c.ID,
			PhoneNumber: c.PhoneNumber,
			CreatedAt:   c.CreatedAt,
		}
		if p, ok := r.store.preferences[c.ID]; ok {
			row.HasPreference = true
			row.State = p.State()
			row.IntroSentToday = p.IntroSentToday
			row.OptedInAt = p.OptedInAt
			row.OptedOutAt = p.OptedOutAt
		} else {
			// 无偏好行视为尚未应答
			row.State = domain.StateAwaiting
		}
		rows = append(rows, &row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows, nil
}
