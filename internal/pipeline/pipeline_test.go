package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LJTian/NewsPulse/internal/provider"
	"github.com/LJTian/NewsPulse/internal/storage"
)

// fakeStore 是覆盖全部流水线存储接口的内存实现，测试共用
type fakeStore struct {
	mu       sync.Mutex
	sources  map[string]*storage.NewsSource
	raws     map[string]*storage.RawArticle
	articles map[string]*storage.Article

	nextSourceID uint

	// 可注入的故障
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sources:  make(map[string]*storage.NewsSource),
		raws:     make(map[string]*storage.RawArticle),
		articles: make(map[string]*storage.Article),
	}
}

func (f *fakeStore) EnsureSource(name, url, typ string) (*storage.NewsSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if src, ok := f.sources[url]; ok {
		return src, nil
	}
	f.nextSourceID++
	src := &storage.NewsSource{ID: f.nextSourceID, Name: name, URL: url, Type: typ, IsActive: true}
	f.sources[url] = src
	return src, nil
}

func (f *fakeStore) InsertRaw(raw *storage.RawArticle) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if _, ok := f.raws[raw.ExternalID]; ok {
		return false, nil
	}
	cp := *raw
	f.raws[raw.ExternalID] = &cp
	return true, nil
}

func (f *fakeStore) CountRaw(processed bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.raws {
		if r.IsProcessed == processed {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListUnprocessedRaw(limit int) ([]storage.RawArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.RawArticle
	for _, r := range f.raws {
		if !r.IsProcessed {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MarkRawProcessed(externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.raws[externalID]; ok {
		r.IsProcessed = true
	}
	return nil
}

func (f *fakeStore) CreateArticle(a *storage.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.articles[a.ID] = &cp
	return nil
}

func (f *fakeStore) CountArticles() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.articles)), nil
}

func (f *fakeStore) GetArticle(id string) (*storage.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) ListUnpublishedSince(since time.Time) ([]storage.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Article
	for _, a := range f.articles {
		if a.TelegramPostedAt == nil && !a.CreatedAt.Before(since) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkPosted(id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok || a.TelegramPostedAt != nil {
		return false, nil
	}
	t := at
	a.TelegramPostedAt = &t
	return true, nil
}

// fakeProvider 返回固定条目或固定错误
type fakeProvider struct {
	name  string
	typ   string
	items []provider.RawArticleCandidate
	err   error
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Type() string {
	if p.typ == "" {
		return provider.TypeRSS
	}
	return p.typ
}
func (p *fakeProvider) URL() string { return "https://" + p.name + ".example" }
func (p *fakeProvider) FetchArticles() ([]provider.RawArticleCandidate, error) {
	return p.items, p.err
}

// fakeSender 记录发送的消息，可注入若干次失败
type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	failures int
}

func (s *fakeSender) SendMessage(chatID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("channel unreachable")
	}
	s.sent = append(s.sent, chatID+"|"+text)
	return nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func candidate(id string, publishedAt time.Time) provider.RawArticleCandidate {
	return provider.RawArticleCandidate{
		ExternalID:  "https://example.com/" + id,
		Title:       "Item " + id,
		Description: "desc " + id,
		PublishedAt: publishedAt,
	}
}
