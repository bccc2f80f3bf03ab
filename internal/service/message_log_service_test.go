package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/domain"
	"github.com/Danne56/chatbot-api/internal/repository"
)

func newMessageLogServiceForTest() (MessageLogService, ContactService) {
	store := repository.NewMemoryStore()
	contactsRepo := repository.NewMemoryContactsRepo(store)
	logsRepo := repository.NewMemoryMessageLogsRepo(store)
	return NewMessageLogService(logsRepo, contactsRepo, zap.NewNop()),
		NewContactService(contactsRepo, zap.NewNop())
}

func TestAppend_Success(t *testing.T) {
	logs, contacts := newMessageLogServiceForTest()
	ctx := context.Background()

	reg, err := contacts.Register(ctx, RegisterContactRequest{PhoneNumber: "+15550001"})
	require.NoError(t, err)

	out := "hello back"
	resp, err := logs.Append(ctx, AppendMessageRequest{
		ContactID:  reg.ID,
		MessageIn:  "hi",
		MessageOut: &out,
	})
	require.NoError(t, err)
	assert.Len(t, resp.ID, 12)

	entries, err := logs.List(ctx, reg.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].MessageIn)
	require.NotNil(t, entries[0].MessageOut)
	assert.Equal(t, "hello back", *entries[0].MessageOut)
}

func TestAppend_InvalidReference(t *testing.T) {
	logs, _ := newMessageLogServiceForTest()
	ctx := context.Background()

	resp, err := logs.Append(ctx, AppendMessageRequest{
		ContactID: "zzz999zzz999",
		MessageIn: "hi",
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	// 失败的写入不留下任何行
	entries, err := logs.List(ctx, "zzz999zzz999", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_NewestFirst(t *testing.T) {
	logs, contacts := newMessageLogServiceForTest()
	ctx := context.Background()

	reg, err := contacts.Register(ctx, RegisterContactRequest{PhoneNumber: "+15550001"})
	require.NoError(t, err)

	for _, msg := range []string{"first", "second", "third"} {
		_, err := logs.Append(ctx, AppendMessageRequest{ContactID: reg.ID, MessageIn: msg})
		require.NoError(t, err)
	}

	entries, err := logs.List(ctx, reg.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].MessageIn)
	assert.Equal(t, "second", entries[1].MessageIn)
}
