package main

import (
	"log"

	"github.com/LJTian/NewsPulse/internal/api"
	"github.com/LJTian/NewsPulse/internal/auth"
	"github.com/LJTian/NewsPulse/internal/config"
	"github.com/LJTian/NewsPulse/internal/pipeline"
	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/LJTian/NewsPulse/internal/provider"
	"github.com/LJTian/NewsPulse/internal/ratelimit"
	"github.com/LJTian/NewsPulse/internal/retry"
	"github.com/LJTian/NewsPulse/internal/scheduler"
	"github.com/LJTian/NewsPulse/internal/storage"
	"github.com/LJTian/NewsPulse/internal/telegram"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	providers := buildProviders(cfg)
	syncer := &pipeline.Syncer{Providers: providers, Store: store}

	dispatcher := &pipeline.Dispatcher{
		Store:        store,
		JobRunnerURL: cfg.JobRunnerURL,
		Secret:       cfg.CronSecret,
		Processor:    processor.NewSimpleProcessor(),
	}

	tg := telegram.NewClient(cfg.TelegramBotToken)
	cycle := &pipeline.Cycle{
		Selector:    pipeline.NewSelector(store),
		Publisher:   pipeline.NewPublisher(store, tg, cfg.TelegramChatID, cfg.SiteBaseURL),
		Retry:       retry.New(),
		Attempts:    cfg.RetryAttempts(),
		Window:      cfg.Window(),
		Notify:      tg,
		AdminChatID: cfg.AdminChatID,
	}

	// 自托管模式：配置了 CRON_SPEC 时进程内自调度整条流水线
	if cfg.CronSpec != "" {
		s, err := scheduler.New(cfg.CronSpec, syncer, dispatcher, cycle)
		if err != nil {
			log.Fatalf("init scheduler failed: %v", err)
		}
		s.Start()
	}

	server := &api.Server{
		Syncer:     syncer,
		Dispatcher: dispatcher,
		Cycle:      cycle,
		Trigger: &auth.TriggerAuthorizer{
			Secret:     cfg.CronSecret,
			Production: cfg.Production(),
		},
		Admin: &auth.AdminAuthorizer{
			Token:          cfg.AdminToken,
			TrustedOrigins: cfg.TrustedOrigins,
		},
		Limiter:         ratelimit.New(),
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow(),
		Articles:        store,
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), api.Recovery())
	server.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

func buildProviders(cfg *config.Config) []provider.Provider {
	var providers []provider.Provider

	// NewsAPI 没有配置 key 时也注册：同步时快速失败并记入该源的结果
	providers = append(providers, &provider.NewsAPIProvider{APIKey: cfg.NewsAPIKey})

	if len(cfg.RSSFeeds) > 0 {
		providers = append(providers, provider.NewRSSProvider(cfg.RSSFeeds))
	}
	if cfg.ScrapeURL != "" {
		providers = append(providers, &provider.ScraperProvider{
			PageURL:      cfg.ScrapeURL,
			ItemSelector: cfg.ScrapeItemSel,
		})
	}

	return providers
}
