package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/LJTian/NewsPulse/internal/retry"
)

const (
	cycleInitialDelay = time.Second
	cycleMaxDelay     = 5 * time.Second
)

// CycleResult 是一次“选稿+发布”周期的结果
type CycleResult struct {
	Posted       bool   `json:"posted"`
	Reason       string `json:"reason,omitempty"`
	ArticleTitle string `json:"articleTitle,omitempty"`
}

// Cycle 把选稿与发布串成一个定时触发的周期，发布环节用有界重试包装。
// 结果（无论成败）都会通知到管理员会话。
type Cycle struct {
	Selector  *Selector
	Publisher *Publisher
	Retry     *retry.Executor

	// Attempts 是发布重试预算：生产 2 次，开发 1 次
	Attempts int
	Window   time.Duration

	// 管理员通知，未配置时跳过
	Notify      Sender
	AdminChatID string
}

// Run 执行一轮选稿+发布
func (c *Cycle) Run() (CycleResult, error) {
	candidate, reason, err := c.Selector.SelectCandidate(c.Window)
	if err != nil {
		return CycleResult{}, fmt.Errorf("select candidate: %w", err)
	}
	if candidate == nil {
		log.Printf("cycle: %s", reason)
		return CycleResult{Posted: false, Reason: reason}, nil
	}

	var pubRes PublishResult
	err = c.Retry.Do(func() error {
		var perr error
		pubRes, perr = c.Publisher.Publish(candidate.ID)
		return perr
	}, c.Attempts, cycleInitialDelay, cycleMaxDelay)

	if err != nil {
		// 重试预算耗尽，向管理员上报后原样返回
		c.notifyAdmin(fmt.Sprintf("publish failed after %d attempts: %v\narticle: %s",
			c.Attempts, err, candidate.Title))
		return CycleResult{}, err
	}

	res := CycleResult{
		Posted:       pubRes.Posted,
		Reason:       pubRes.Reason,
		ArticleTitle: pubRes.ArticleTitle,
	}
	if pubRes.Posted {
		c.notifyAdmin(fmt.Sprintf("posted to channel: %s\n%s", pubRes.ArticleTitle, pubRes.ArticleURL))
	}
	return res, nil
}

func (c *Cycle) notifyAdmin(text string) {
	if c.Notify == nil || c.AdminChatID == "" {
		return
	}
	if err := c.Notify.SendMessage(c.AdminChatID, text); err != nil {
		log.Printf("cycle: admin notify error: %v", err)
	}
}
