package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danne56/chatbot-api/internal/domain"
)

func setupMessageLogsMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresMessageLogsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresMessageLogsRepository(db)
	return db, mock, repo
}

func TestAppend_WithMessageOut(t *testing.T) {
	db, mock, repo := setupMessageLogsMockDB(t)
	defer db.Close()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := "welcome aboard"
	entry := &domain.MessageLogEntry{
		ID:         "msg123msg456",
		ContactID:  "abc123def456",
		Timestamp:  ts,
		MessageIn:  "hi",
		MessageOut: &out,
	}

	mock.ExpectExec(`INSERT INTO message_logs`).
		WithArgs("msg123msg456", "abc123def456", ts, "hi", sql.NullString{String: out, Valid: true}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), entry)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_WithoutMessageOut(t *testing.T) {
	db, mock, repo := setupMessageLogsMockDB(t)
	defer db.Close()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := &domain.MessageLogEntry{
		ID:        "msg123msg456",
		ContactID: "abc123def456",
		Timestamp: ts,
		MessageIn: "hi",
	}

	mock.ExpectExec(`INSERT INTO message_logs`).
		WithArgs("msg123msg456", "abc123def456", ts, "hi", sql.NullString{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), entry)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByContact(t *testing.T) {
	db, mock, repo := setupMessageLogsMockDB(t)
	defer db.Close()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "contact_id", "ts", "message_in", "message_out"}).
		AddRow("msg2", "abc123def456", ts.Add(time.Minute), "second", nil).
		AddRow("msg1", "abc123def456", ts, "first", "reply")

	mock.ExpectQuery(`SELECT id, contact_id, ts, message_in, message_out`).
		WithArgs("abc123def456", 50).
		WillReturnRows(rows)

	entries, err := repo.ListByContact(context.Background(), "abc123def456", 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].MessageIn)
	assert.Nil(t, entries[0].MessageOut)
	require.NotNil(t, entries[1].MessageOut)
	assert.Equal(t, "reply", *entries[1].MessageOut)

	assert.NoError(t, mock.ExpectationsWereMet())
}
