package pipeline

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/NewsPulse/internal/storage"
)

// AlreadyPostedReason 表示幂等保护拦下了一次重复发布
const AlreadyPostedReason = "already posted"

// PublishStore 是发布环节需要的存储能力
type PublishStore interface {
	GetArticle(id string) (*storage.Article, error)
	MarkPosted(id string, at time.Time) (bool, error)
}

// Sender 是外部消息通道的发送能力（Telegram 客户端实现）
type Sender interface {
	SendMessage(chatID, text string) error
}

// PublishResult 汇报一次发布的结果
type PublishResult struct {
	Posted       bool   `json:"posted"`
	Reason       string `json:"reason,omitempty"`
	ArticleTitle string `json:"articleTitle,omitempty"`
	ArticleURL   string `json:"articleUrl,omitempty"`
}

// Publisher 把选出的成稿推送到消息频道，并保证恰好发布一次。
// 发送失败时不写发布标记、错误原样透出，留给重试包装器处理；
// 发送成功后用条件更新写标记，并发触发下只有一方能写入成功。
type Publisher struct {
	Store       PublishStore
	Sender      Sender
	ChatID      string
	SiteBaseURL string

	now func() time.Time
}

func NewPublisher(store PublishStore, sender Sender, chatID, siteBaseURL string) *Publisher {
	return &Publisher{
		Store:       store,
		Sender:      sender,
		ChatID:      chatID,
		SiteBaseURL: siteBaseURL,
		now:         time.Now,
	}
}

// Publish 发布指定成稿
func (p *Publisher) Publish(articleID string) (PublishResult, error) {
	a, err := p.Store.GetArticle(articleID)
	if err != nil {
		return PublishResult{}, fmt.Errorf("load article %s: %w", articleID, err)
	}

	if a.TelegramPostedAt != nil {
		return PublishResult{Posted: false, Reason: AlreadyPostedReason, ArticleTitle: a.Title}, nil
	}

	articleURL := p.canonicalURL(a.Slug)
	if err := p.Sender.SendMessage(p.ChatID, composeMessage(a, articleURL)); err != nil {
		// 标记保持为空，确保重试后的发布不会被幂等保护误拦
		return PublishResult{}, err
	}

	claimed, err := p.Store.MarkPosted(a.ID, p.now())
	if err != nil {
		return PublishResult{}, fmt.Errorf("mark posted %s: %w", a.ID, err)
	}
	if !claimed {
		// 并发触发下另一方已经抢先标记
		return PublishResult{Posted: false, Reason: AlreadyPostedReason, ArticleTitle: a.Title}, nil
	}

	log.Printf("publish: posted %q (%s)", a.Title, a.ID)
	return PublishResult{Posted: true, ArticleTitle: a.Title, ArticleURL: articleURL}, nil
}

func (p *Publisher) canonicalURL(slug string) string {
	base := strings.TrimRight(p.SiteBaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/news/" + slug
}

// composeMessage 组装出站消息：标题、摘要、正文链接，可选配图链接
func composeMessage(a *storage.Article, articleURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n%s", a.Title, a.Summary)
	if articleURL != "" {
		fmt.Fprintf(&b, "\n\n%s", articleURL)
	}
	if a.ImageURL != "" {
		fmt.Fprintf(&b, "\n%s", a.ImageURL)
	}
	return b.String()
}
