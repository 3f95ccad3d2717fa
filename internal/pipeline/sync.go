package pipeline

import (
	"log"
	"sync"

	"github.com/LJTian/NewsPulse/internal/provider"
	"github.com/LJTian/NewsPulse/internal/storage"
	"gorm.io/datatypes"
)

// SourceStore 是同步环节需要的存储能力
type SourceStore interface {
	EnsureSource(name, url, typ string) (*storage.NewsSource, error)
	InsertRaw(raw *storage.RawArticle) (bool, error)
}

// ProviderResult 是单个数据源一轮同步的结果
type ProviderResult struct {
	Provider string `json:"provider"`
	Fetched  int    `json:"fetched"`
	Saved    int    `json:"saved"`
	Error    string `json:"error,omitempty"`
}

// Syncer 遍历注册的数据源抓取原始条目并入库。
// 各数据源并发执行、失败互相隔离：一个源挂掉只记入它自己的结果。
type Syncer struct {
	Providers []provider.Provider
	Store     SourceStore
}

// ProviderNames 返回已注册数据源的名字，用于状态接口
func (s *Syncer) ProviderNames() []string {
	names := make([]string, 0, len(s.Providers))
	for _, p := range s.Providers {
		names = append(names, p.Name())
	}
	return names
}

// SyncAll 对所有数据源各执行一轮抓取与去重入库。
// saved 只统计真正新增的行；重复 ExternalID 的条目直接跳过。
func (s *Syncer) SyncAll() []ProviderResult {
	log.Println("sync: start provider sync...")

	results := make([]ProviderResult, len(s.Providers))

	var wg sync.WaitGroup
	for i, p := range s.Providers {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			results[i] = s.syncOne(p)
		}(i, p)
	}
	wg.Wait()

	log.Println("sync: provider sync done (all sources)")
	return results
}

func (s *Syncer) syncOne(p provider.Provider) ProviderResult {
	name := p.Name()
	res := ProviderResult{Provider: name}

	src, err := s.Store.EnsureSource(name, p.URL(), p.Type())
	if err != nil {
		log.Printf("sync: ensure source %s error: %v", name, err)
		res.Error = err.Error()
		return res
	}

	items, err := p.FetchArticles()
	if err != nil {
		ferr := &ProviderFetchError{Provider: name, Err: err}
		log.Printf("sync: %v", ferr)
		res.Error = ferr.Error()
		return res
	}

	res.Fetched = len(items)
	for _, it := range items {
		raw := &storage.RawArticle{
			ExternalID:  it.ExternalID,
			SourceID:    src.ID,
			Title:       it.Title,
			Description: it.Description,
			Content:     it.Content,
			PublishedAt: it.PublishedAt,
			ExtraData:   datatypes.JSONMap(it.Extra),
		}
		created, err := s.Store.InsertRaw(raw)
		if err != nil {
			log.Printf("sync: insert %s item error: %v", name, err)
			res.Error = err.Error()
			continue
		}
		if created {
			res.Saved++
		}
	}

	log.Printf("sync: %s done, fetched=%d saved=%d", name, res.Fetched, res.Saved)
	return res
}
