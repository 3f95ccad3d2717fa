package provider

import (
	"errors"
	"time"
)

// 数据源类型，与 storage.NewsSource.Type 对应
const (
	TypeNewsAPI = "NEWS_API"
	TypeRSS     = "RSS"
	TypeScraper = "SCRAPER"
)

// ErrMissingCredential 表示数据源缺少必要凭据：直接快速失败、返回零条，
// 不允许在抓取中途才暴露
var ErrMissingCredential = errors.New("provider: missing required credential")

// RawArticleCandidate 是各数据源统一产出的原始条目。
// ExternalID 是去重键（条目 URL 或数据源自带的 id），同一 ExternalID 不会入库两次。
type RawArticleCandidate struct {
	ExternalID  string
	Title       string
	Description string
	Content     string
	PublishedAt time.Time
	Extra       map[string]any
}

// Provider 抽象每一个数据源
type Provider interface {
	Name() string
	Type() string
	URL() string
	FetchArticles() ([]RawArticleCandidate, error)
}
