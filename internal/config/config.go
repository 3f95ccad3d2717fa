package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 运行模式：production 下启用严格触发鉴权与 60 分钟选稿窗口，
// development 下放宽触发鉴权并把窗口缩短到 1 分钟，方便本地联调。
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

type Config struct {
	AppPort string
	Mode    string

	PostgresDSN string
	RedisAddr   string

	// 定时触发共享密钥：外部调度器通过 Authorization: Bearer <CronSecret> 调用触发接口
	CronSecret string

	// 管理端手动触发：需要管理员令牌 + 可信 Origin 双重校验
	AdminToken     string
	TrustedOrigins []string

	// Telegram 推送凭据；AdminChatID 用于接收发布结果通知
	TelegramBotToken string
	TelegramChatID   string
	AdminChatID      string

	// 数据源配置
	NewsAPIKey    string
	RSSFeeds      []string
	ScrapeURL     string
	ScrapeItemSel string

	// 外部增强任务（AI 加工）的入口；为空时退化为进程内简单加工
	JobRunnerURL string

	// 站点对外域名，用于拼接成稿的正文链接
	SiteBaseURL string

	// 选稿窗口（分钟）与限流参数
	WindowMinutes    int
	RateLimitMax     int
	RateLimitWindowS int

	// 进程内自调度的 cron 表达式；为空表示只接受外部 HTTP 触发
	CronSpec string
}

func Load() *Config {
	// .env 仅在本地开发存在，找不到时静默忽略
	_ = godotenv.Load()

	mode := getEnv("APP_MODE", ModeDevelopment)
	if mode != ModeProduction {
		mode = ModeDevelopment
	}

	cfg := &Config{
		AppPort: getEnv("APP_PORT", "9000"),
		Mode:    mode,

		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=newspulse password=newspulse dbname=newspulse port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6380"),

		CronSecret:     os.Getenv("CRON_SECRET"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		TrustedOrigins: splitList(os.Getenv("TRUSTED_ORIGINS")),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		AdminChatID:      os.Getenv("ADMIN_CHAT_ID"),

		NewsAPIKey:    os.Getenv("NEWSAPI_KEY"),
		RSSFeeds:      splitList(getEnv("RSS_FEEDS", "https://hnrss.org/frontpage")),
		ScrapeURL:     os.Getenv("SCRAPE_URL"),
		ScrapeItemSel: getEnv("SCRAPE_ITEM_SELECTOR", "article a"),

		JobRunnerURL: os.Getenv("JOB_RUNNER_URL"),
		SiteBaseURL:  getEnv("SITE_BASE_URL", "https://newspulse.example.com"),

		WindowMinutes:    getEnvInt("PUBLISH_WINDOW_MINUTES", defaultWindowMinutes(mode)),
		RateLimitMax:     getEnvInt("RATE_LIMIT_MAX", 10),
		RateLimitWindowS: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 300),

		CronSpec: os.Getenv("CRON_SPEC"),
	}

	log.Printf("config loaded: port=%s mode=%s window=%dm ratelimit=%d/%ds",
		cfg.AppPort, cfg.Mode, cfg.WindowMinutes, cfg.RateLimitMax, cfg.RateLimitWindowS)
	return cfg
}

// Production 表示是否处于生产模式；非生产模式下触发鉴权放行、选稿窗口缩短
func (c *Config) Production() bool {
	return c.Mode == ModeProduction
}

// RetryAttempts 发布环节的重试预算：生产 2 次，开发 1 次
func (c *Config) RetryAttempts() int {
	if c.Production() {
		return 2
	}
	return 1
}

// Window 把窗口分钟数转换成 time.Duration
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// RateLimitWindow 把限流窗口秒数转换成 time.Duration
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowS) * time.Second
}

func defaultWindowMinutes(mode string) int {
	if mode == ModeProduction {
		return 60
	}
	return 1
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

// splitList 解析逗号分隔列表，去掉空项与首尾空白
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
