package config

import (
	"os"
	"strconv"
	"time"

	"github.com/Danne56/chatbot-api/internal/database"
)

// WritePolicy 偏好写入策略（必须在三个转移操作上统一使用）
// - upsert: 转移时若偏好行不存在则自动创建（以 contact_id 为冲突键）
// - strict: 转移要求偏好行已存在，0 行受影响视为 NotFound
type WritePolicy string

const (
	WritePolicyUpsert WritePolicy = "upsert"
	WritePolicyStrict WritePolicy = "strict"
)

// LookupNotFoundMode 按手机号查询联系人未命中时的返回形态
// - empty: 200 + {data:null}（与旧网关行为一致）
// - 404:   404 + 错误体
type LookupNotFoundMode string

const (
	LookupNotFoundEmpty LookupNotFoundMode = "empty"
	LookupNotFound404   LookupNotFoundMode = "404"
)

// Config chatbot-api（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  database.Config
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}

	// 共享密钥鉴权（为空则关闭鉴权，仅限本地联测）
	APIKey string

	RateLimit struct {
		Max    int           // 窗口内最大请求数
		Window time.Duration // 固定窗口长度
	}

	Preferences struct {
		WritePolicy WritePolicy
	}
	Contacts struct {
		LookupNotFound LookupNotFoundMode
	}

	// 同意状态事件流（Redis Streams）
	ConsentStream string

	Webhook struct {
		Enabled bool
		URL     string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":3000")

	// Default to true for local dev: if DB is unavailable, chatbot-api falls
	// back to in-memory repos instead of refusing to start.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "chatbot")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.APIKey = getEnv("API_KEY", "")

	// 与旧网关的 express-rate-limit 默认值一致：15 分钟 100 次
	cfg.RateLimit.Max = parseInt(getEnv("RATE_LIMIT_MAX", "100"), 100)
	cfg.RateLimit.Window = parseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"), 15*time.Minute)

	cfg.Preferences.WritePolicy = parseWritePolicy(getEnv("PREF_WRITE_POLICY", "upsert"))
	cfg.Contacts.LookupNotFound = parseLookupMode(getEnv("CONTACT_LOOKUP_NOT_FOUND", "empty"))

	cfg.ConsentStream = getEnv("CONSENT_STREAM", "consent:events")

	cfg.Webhook.Enabled = getEnv("WEBHOOK_ENABLED", "false") == "true"
	cfg.Webhook.URL = getEnv("WEBHOOK_URL", "")

	return cfg
}

func parseWritePolicy(s string) WritePolicy {
	if s == string(WritePolicyStrict) {
		return WritePolicyStrict
	}
	return WritePolicyUpsert
}

func parseLookupMode(s string) LookupNotFoundMode {
	if s == string(LookupNotFound404) {
		return LookupNotFound404
	}
	return LookupNotFoundEmpty
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
