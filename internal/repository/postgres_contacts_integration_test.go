// +build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Danne56/chatbot-api/internal/config"
	"github.com/Danne56/chatbot-api/internal/database"
	"github.com/Danne56/chatbot-api/internal/domain"
	"github.com/Danne56/chatbot-api/internal/idgen"
)

// 获取测试数据库连接
func getTestDB(t *testing.T) *sql.DB {
	cfg := &database.Config{
		Host:     getTestEnv("TEST_DB_HOST", "localhost"),
		Port:     getTestEnvInt("TEST_DB_PORT", 5432),
		User:     getTestEnv("TEST_DB_USER", "postgres"),
		Password: getTestEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getTestEnv("TEST_DB_NAME", "chatbot"),
		SSLMode:  getTestEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}

	return db
}

func getTestEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getTestEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// 清理测试数据
func cleanupContact(t *testing.T, db *sql.DB, phoneNumber string) {
	db.Exec(`DELETE FROM message_logs WHERE contact_id IN (SELECT id FROM contacts WHERE phone_number = $1)`, phoneNumber)
	db.Exec(`DELETE FROM user_preferences WHERE contact_id IN (SELECT id FROM contacts WHERE phone_number = $1)`, phoneNumber)
	db.Exec(`DELETE FROM contacts WHERE phone_number = $1`, phoneNumber)
}

func newTestContact(phoneNumber string) (*domain.Contact, *domain.Preference) {
	now := time.Now().UTC()
	c := &domain.Contact{ID: idgen.NewDefault(), PhoneNumber: phoneNumber, CreatedAt: now}
	p := &domain.Preference{ID: idgen.NewDefault(), ContactID: c.ID, AwaitingOptin: true, UpdatedAt: now}
	return c, p
}

// 并发创建同一手机号：恰好一个成功，其余拿到 ErrDuplicatePhone 且可回读赢家
func TestPostgresContactsRepository_ConcurrentCreate(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	phone := "+1555" + idgen.New(8)
	defer cleanupContact(t, db, phone)

	repo := NewPostgresContactsRepository(db)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, p := newTestContact(phone)
			errs[i] = repo.CreateWithPreference(ctx, c, p)
		}(i)
	}
	wg.Wait()

	var created, dup int
	for i, err := range errs {
		switch {
		case err == nil:
			created++
		case err == domain.ErrDuplicatePhone:
			dup++
		default:
			t.Fatalf("unexpected error from goroutine %d: %v", i, err)
		}
	}
	if created != 1 {
		t.Fatalf("Expected exactly 1 successful insert, got %d (dup=%d)", created, dup)
	}

	winner, err := repo.GetByPhone(ctx, phone)
	if err != nil {
		t.Fatalf("GetByPhone after race failed: %v", err)
	}

	// 赢家的偏好行必须在同一事务里落库
	prefs := NewPostgresPreferencesRepository(db, config.WritePolicyUpsert)
	pref, err := prefs.GetByContactID(ctx, winner.ID)
	if err != nil {
		t.Fatalf("GetByContactID for winner failed: %v", err)
	}
	if pref.State() != domain.StateAwaiting {
		t.Errorf("Expected initial state %s, got %s", domain.StateAwaiting, pref.State())
	}
}

// 并发 opt-in / opt-out：终态必须是某一次完整转移，不允许字段拼接
func TestPostgresPreferencesRepository_ConcurrentTransitions(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	phone := "+1555" + idgen.New(8)
	defer cleanupContact(t, db, phone)

	contacts := NewPostgresContactsRepository(db)
	prefs := NewPostgresPreferencesRepository(db, config.WritePolicyUpsert)
	ctx := context.Background()

	c, p := newTestContact(phone)
	if err := contacts.CreateWithPreference(ctx, c, p); err != nil {
		t.Fatalf("CreateWithPreference failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := prefs.OptIn(ctx, c.ID, idgen.NewDefault(), time.Now().UTC()); err != nil {
				t.Errorf("OptIn failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := prefs.OptOut(ctx, c.ID, idgen.NewDefault(), time.Now().UTC()); err != nil {
				t.Errorf("OptOut failed: %v", err)
			}
		}()
	}
	wg.Wait()

	final, err := prefs.GetByContactID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByContactID failed: %v", err)
	}

	switch final.State() {
	case domain.StateOptedIn:
		if final.OptedInAt == nil {
			t.Error("OPTED_IN final state must carry opted_in_at")
		}
	case domain.StateOptedOut:
		if final.OptedOutAt == nil {
			t.Error("OPTED_OUT final state must carry opted_out_at")
		}
	default:
		t.Fatalf("unexpected final state %q", final.State())
	}
	if final.AwaitingOptin {
		t.Error("awaiting_optin must be cleared after any transition")
	}
}

// strict 策略对不存在的偏好行必须返回 NotFound 且不写入
func TestPostgresPreferencesRepository_StrictNoRow(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	phone := "+1555" + idgen.New(8)
	defer cleanupContact(t, db, phone)

	contacts := NewPostgresContactsRepository(db)
	prefs := NewPostgresPreferencesRepository(db, config.WritePolicyStrict)
	ctx := context.Background()

	c, _ := newTestContact(phone)
	if err := contacts.CreateWithPreference(ctx, c, nil); err != nil {
		t.Fatalf("CreateWithPreference failed: %v", err)
	}

	if err := prefs.OptIn(ctx, c.ID, idgen.NewDefault(), time.Now().UTC()); err != domain.ErrNotFound {
		t.Fatalf("Expected ErrNotFound under strict policy, got %v", err)
	}
	if _, err := prefs.GetByContactID(ctx, c.ID); err != domain.ErrNotFound {
		t.Fatalf("Expected no preference row after failed strict transition, got %v", err)
	}
}
