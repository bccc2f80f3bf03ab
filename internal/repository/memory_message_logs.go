package repository

import (
	"context"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// MemoryMessageLogsRepo 内存版消息日志Repository
type MemoryMessageLogsRepo struct {
	store *MemoryStore
}

func NewMemoryMessageLogsRepo(store *MemoryStore) *MemoryMessageLogsRepo {
	return &MemoryMessageLogsRepo{store: store}
}

var _ MessageLogsRepository = (*MemoryMessageLogsRepo)(nil)

func (r *MemoryMessageLogsRepo) Append(_ context.Context, entry *domain.MessageLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.messages = append(r.store.messages, *entry)
	return nil
}

func (r *MemoryMessageLogsRepo) ListByContact(_ context.Context, contactID string, limit int) ([]*domain.MessageLogEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	var entries []*domain.MessageLogEntry
	// 倒序遍历得到时间倒序（追加即按时间有序）
	for i := len(r.store.messages) - 1; i >= 0 && len(entries) < limit; i-- {
		if r.store.messages[i].ContactID != contactID {
			continue
		}
		e := r.store.messages[i]
		entries = append(entries, &e)
	}
	return entries, nil
}
