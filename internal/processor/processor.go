package processor

import (
	"strings"
	"time"

	"github.com/LJTian/NewsPulse/internal/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const summaryMaxRunes = 300

// SimpleProcessor 是进程内的兜底加工器：在没有配置外部增强任务时，
// 把原始条目转换为可发布的成稿。重要度用关键词启发式评定，
// 不做任何 AI 调用。
type SimpleProcessor struct {
	now func() time.Time
}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{now: time.Now}
}

// Process 把一条原始条目转换为成稿
func (p *SimpleProcessor) Process(raw storage.RawArticle) storage.Article {
	title := strings.TrimSpace(raw.Title)

	summary := strings.TrimSpace(raw.Description)
	if summary == "" {
		// 没有摘要时用标题兜底
		summary = title
	}
	summary = truncateRunes(summary, summaryMaxRunes)

	imageURL, _ := raw.ExtraData["imageUrl"].(string)

	return storage.Article{
		ID:           uuid.NewString(),
		Slug:         slug.Make(title),
		Title:        title,
		Summary:      summary,
		Importance:   classifyImportance(title, summary),
		ImageURL:     imageURL,
		CategoryName: "technology",
		CreatedAt:    p.now(),
	}
}

// 启发式重要度关键词，按等级从高到低匹配
var (
	criticalKeywords = []string{"zero-day", "0-day", "breach", "outage", "exploit", "emergency"}
	highKeywords     = []string{"security", "vulnerability", "release", "launch", "acquisition", "ai"}
	lowKeywords      = []string{"rumor", "opinion", "review", "deal", "sale"}
)

// classifyImportance 在标题与摘要上做大小写不敏感的关键词匹配，
// 无命中时给 MEDIUM
func classifyImportance(title, summary string) string {
	text := strings.ToLower(title + " " + summary)

	for _, kw := range criticalKeywords {
		if strings.Contains(text, kw) {
			return storage.ImportanceCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(text, kw) {
			return storage.ImportanceHigh
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(text, kw) {
			return storage.ImportanceLow
		}
	}
	return storage.ImportanceMedium
}

// truncateRunes 按 rune 数截断并追加省略号
func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
