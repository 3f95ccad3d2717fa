package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// 重要度等级，由增强任务在加工阶段评定
const (
	ImportanceLow      = "LOW"
	ImportanceMedium   = "MEDIUM"
	ImportanceHigh     = "HIGH"
	ImportanceCritical = "CRITICAL"
)

// ImportanceRank 把重要度映射为可比较的序数，未知值按最低处理
func ImportanceRank(importance string) int {
	switch importance {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// NewsSource 描述一个数据源，例如 newsapi / rss / scraper
type NewsSource struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:128" json:"name"`
	URL      string `gorm:"size:512;uniqueIndex" json:"url"`
	Type     string `gorm:"size:32;index" json:"type"` // NEWS_API / RSS / SCRAPER
	IsActive bool   `gorm:"index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RawArticle 是抓取后、加工前的原始条目。
// ExternalID 作为主键承担去重职责；IsProcessed 只会从 false 翻转到 true 一次。
type RawArticle struct {
	ExternalID  string            `gorm:"primaryKey;size:768" json:"externalId"`
	SourceID    uint              `gorm:"index" json:"sourceId"`
	Title       string            `gorm:"size:512" json:"title"`
	Description string            `gorm:"size:2000" json:"description"`
	Content     string            `gorm:"type:text" json:"content"`
	PublishedAt time.Time         `gorm:"index" json:"publishedAt"`
	IsProcessed bool              `gorm:"index" json:"isProcessed"`
	ExtraData   datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
}

// Article 是加工完成、可进入选稿与发布环节的成稿。
// TelegramPostedAt 为空表示尚未发布，是幂等发布的标记位。
type Article struct {
	ID           string    `gorm:"primaryKey;size:40" json:"id"`
	Slug         string    `gorm:"size:256;uniqueIndex" json:"slug"`
	Title        string    `gorm:"size:512" json:"title"`
	Summary      string    `gorm:"size:2000" json:"summary"`
	Importance   string    `gorm:"size:16;index" json:"importance"`
	ImageURL     string    `gorm:"size:1024" json:"imageUrl"`
	CategoryName string    `gorm:"size:128;index" json:"categoryName"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`

	TelegramPostedAt *time.Time `gorm:"index" json:"telegramPostedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&NewsSource{}, &RawArticle{}, &Article{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// EnsureSource 确保某个数据源存在，返回其记录。
// URL 在活跃数据源中唯一；已存在时不重复创建。
func (s *Store) EnsureSource(name, url, typ string) (*NewsSource, error) {
	src := &NewsSource{}
	if err := s.DB.Where("url = ?", url).First(src).Error; err == nil {
		return src, nil
	}

	src = &NewsSource{
		Name:     name,
		URL:      url,
		Type:     typ,
		IsActive: true,
	}
	if err := s.DB.Create(src).Error; err != nil {
		return nil, err
	}
	return src, nil
}

// DeactivateSource 停用数据源。流水线自身只停用、从不硬删
func (s *Store) DeactivateSource(id uint) error {
	return s.DB.Model(&NewsSource{}).Where("id = ?", id).Update("is_active", false).Error
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度。
// 防止上游数据源返回异常长文本导致入库失败。
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// InsertRaw 以 ExternalID 为幂等键插入原始条目，返回是否真正新增。
// 已存在的条目保持原样，不做更新。
func (s *Store) InsertRaw(raw *RawArticle) (bool, error) {
	raw.Title = truncateRunesDB(toValidUTF8(raw.Title), 500)
	raw.Description = truncateRunesDB(toValidUTF8(raw.Description), 2000)
	raw.Content = toValidUTF8(raw.Content)

	res := s.DB.Where("external_id = ?", raw.ExternalID).FirstOrCreate(raw)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountRaw 按加工状态统计原始条目数量
func (s *Store) CountRaw(processed bool) (int64, error) {
	var n int64
	err := s.DB.Model(&RawArticle{}).Where("is_processed = ?", processed).Count(&n).Error
	return n, err
}

// ListUnprocessedRaw 返回待加工的原始条目，按抓取时间先进先出
func (s *Store) ListUnprocessedRaw(limit int) ([]RawArticle, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var list []RawArticle
	err := s.DB.Where("is_processed = ?", false).
		Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

// MarkRawProcessed 把一条原始条目标记为已加工；IsProcessed 只允许翻转一次，
// 用条件更新保证重复调用无副作用
func (s *Store) MarkRawProcessed(externalID string) error {
	return s.DB.Model(&RawArticle{}).
		Where("external_id = ? AND is_processed = ?", externalID, false).
		Update("is_processed", true).Error
}

// CreateArticle 落库一篇成稿
func (s *Store) CreateArticle(a *Article) error {
	a.Title = truncateRunesDB(toValidUTF8(a.Title), 500)
	a.Summary = truncateRunesDB(toValidUTF8(a.Summary), 2000)
	return s.DB.Create(a).Error
}

// CountArticles 返回成稿总数
func (s *Store) CountArticles() (int64, error) {
	var n int64
	err := s.DB.Model(&Article{}).Count(&n).Error
	return n, err
}

// GetArticle 按 id 取成稿
func (s *Store) GetArticle(id string) (*Article, error) {
	var a Article
	if err := s.DB.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListUnpublishedSince 返回窗口内尚未发布的成稿（telegram_posted_at 为空），
// 排序交给上层的纯函数做，这里只负责筛选
func (s *Store) ListUnpublishedSince(since time.Time) ([]Article, error) {
	var list []Article
	err := s.DB.Where("telegram_posted_at IS NULL AND created_at >= ?", since).
		Find(&list).Error
	return list, err
}

// MarkPosted 原子地设置发布标记：只在 telegram_posted_at 仍为空时写入。
// 返回 false 表示并发调用方已经抢先标记，调用方应按“已发布”处理。
// 单条 UPDATE ... WHERE telegram_posted_at IS NULL 关闭读-写竞态窗口。
func (s *Store) MarkPosted(id string, at time.Time) (bool, error) {
	res := s.DB.Model(&Article{}).
		Where("id = ? AND telegram_posted_at IS NULL", id).
		Update("telegram_posted_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListArticles 返回最新成稿列表，并使用 Redis 做简单缓存（5 分钟），
// 减轻管理端轮询带来的 DB 压力
func (s *Store) ListArticles(limit int) ([]Article, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("articles:list:%d", limit)

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []Article
	if err := s.DB.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	const listCacheTTL = 5 * time.Minute
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}

	return list, nil
}
