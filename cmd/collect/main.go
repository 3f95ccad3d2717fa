package main

import (
	"log"

	"github.com/LJTian/NewsPulse/internal/config"
	"github.com/LJTian/NewsPulse/internal/pipeline"
	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/LJTian/NewsPulse/internal/provider"
	"github.com/LJTian/NewsPulse/internal/storage"
)

// 一个仅执行一次“同步 + 加工”的命令行入口：适合手动补数据
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 注册数据源（与 cmd/api 保持一致）
	var providers []provider.Provider
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

	syncer := &pipeline.Syncer{Providers: providers, Store: store}
	for _, res := range syncer.SyncAll() {
		if res.Error != "" {
			log.Printf("collect: %s failed: %s", res.Provider, res.Error)
			continue
		}
		log.Printf("collect: %s fetched=%d saved=%d", res.Provider, res.Fetched, res.Saved)
	}

	dispatcher := &pipeline.Dispatcher{
		Store:        store,
		JobRunnerURL: cfg.JobRunnerURL,
		Secret:       cfg.CronSecret,
		Processor:    processor.NewSimpleProcessor(),
	}
	res, err := dispatcher.Dispatch()
	if err != nil {
		log.Fatalf("collect: dispatch failed: %v", err)
	}
	log.Printf("collect: dispatch done, before=%d after=%d created=%d total=%d",
		res.Before, res.After, res.Created, res.Total)
}
