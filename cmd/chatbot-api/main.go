package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/config"
	"github.com/Danne56/chatbot-api/internal/database"
	httpapi "github.com/Danne56/chatbot-api/internal/http"
	"github.com/Danne56/chatbot-api/internal/logger"
	"github.com/Danne56/chatbot-api/internal/repository"
	"github.com/Danne56/chatbot-api/internal/service"
	"github.com/Danne56/chatbot-api/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "chatbot-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	// 同意事件发布：Redis 不可用时转移仍要成功，publisher 内部失败只记日志
	var publisher store.ConsentPublisher = store.NewRedisConsentPublisher(redisClient, cfg.ConsentStream)
	if pingErr := redisClient.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn("redis unavailable, consent events disabled", zap.Error(pingErr))
		publisher = store.NoopConsentPublisher{}
	}

	// DB 未就绪时退化为内存 repo 支持本地联测
	var (
		db           *sql.DB
		contactsRepo repository.ContactsRepository
		prefsRepo    repository.PreferencesRepository
		logsRepo     repository.MessageLogsRepository
	)
	if cfg.DBEnabled {
		if d, dbErr := database.NewPostgresDB(&cfg.Database); dbErr == nil {
			db = d
			log.Info("DB enabled for chatbot-api")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(dbErr))
		}
	}
	if db != nil {
		contactsRepo = repository.NewPostgresContactsRepository(db)
		prefsRepo = repository.NewPostgresPreferencesRepository(db, cfg.Preferences.WritePolicy)
		logsRepo = repository.NewPostgresMessageLogsRepository(db)
	} else {
		mem := repository.NewMemoryStore()
		contactsRepo = repository.NewMemoryContactsRepo(mem)
		prefsRepo = repository.NewMemoryPreferencesRepo(mem, cfg.Preferences.WritePolicy)
		logsRepo = repository.NewMemoryMessageLogsRepo(mem)
	}

	var notifier service.ConsentNotifier
	if cfg.Webhook.Enabled && cfg.Webhook.URL != "" {
		notifier = service.NewWebhookNotifier(cfg.Webhook.URL, log)
		log.Info("consent webhook enabled", zap.String("url", cfg.Webhook.URL))
	}

	contactService := service.NewContactService(contactsRepo, log)
	prefService := service.NewPreferenceService(prefsRepo, contactsRepo, publisher, notifier, log)
	logService := service.NewMessageLogService(logsRepo, contactsRepo, log)

	if cfg.APIKey == "" {
		log.Warn("API_KEY is empty, authentication disabled")
	}

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoute()
	router.RegisterAPIRoutes(
		httpapi.NewContactHandler(contactService, cfg.Contacts.LookupNotFound, log),
		httpapi.NewMessageLogHandler(logService, log),
		httpapi.NewPreferenceHandler(prefService, log),
		httpapi.RequestID(),
		httpapi.RateLimit(kv, cfg.RateLimit.Max, cfg.RateLimit.Window, log),
		httpapi.APIKeyAuth(cfg.APIKey, log),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
