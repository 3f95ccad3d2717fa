package pipeline

import (
	"fmt"
	"time"

	"github.com/LJTian/NewsPulse/internal/storage"
)

// NoCandidateReason 是窗口内无可发布成稿时的统一说明，
// 属于正常结果而不是错误
const NoCandidateReason = "no articles in selected window"

// WindowStore 是选稿环节需要的存储能力
type WindowStore interface {
	ListUnpublishedSince(since time.Time) ([]storage.Article, error)
}

// Selector 在时间窗口内挑出唯一一篇最值得发布的成稿
type Selector struct {
	Store WindowStore

	now func() time.Time
}

func NewSelector(store WindowStore) *Selector {
	return &Selector{Store: store, now: time.Now}
}

// SelectCandidate 返回窗口内最佳候选；没有候选时返回 (nil, NoCandidateReason)
func (s *Selector) SelectCandidate(window time.Duration) (*storage.Article, string, error) {
	since := s.now().Add(-window)
	list, err := s.Store.ListUnpublishedSince(since)
	if err != nil {
		return nil, "", fmt.Errorf("list unpublished: %w", err)
	}
	best := pickBest(list)
	if best == nil {
		return nil, NoCandidateReason, nil
	}
	return best, "", nil
}

// pickBest 取重要度最高的一篇；重要度相同时取 CreatedAt 最新的
func pickBest(list []storage.Article) *storage.Article {
	var best *storage.Article
	for i := range list {
		a := &list[i]
		if best == nil {
			best = a
			continue
		}
		ra, rb := storage.ImportanceRank(a.Importance), storage.ImportanceRank(best.Importance)
		if ra > rb || (ra == rb && a.CreatedAt.After(best.CreatedAt)) {
			best = a
		}
	}
	return best
}
