package telegram

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const clientTimeout = 10 * time.Second

// Client 通过 Bot API 发送消息，既用于频道发布也用于管理员通知
type Client struct {
	BotToken string

	// BaseURL 仅测试时覆盖
	BaseURL string

	httpClient *http.Client
}

func NewClient(botToken string) *Client {
	return &Client{
		BotToken:   botToken,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// SendMessage 向指定会话发送一条 Markdown 消息
func (c *Client) SendMessage(chatID, text string) error {
	if c.BotToken == "" || chatID == "" {
		return fmt.Errorf("telegram: bot token or chat id not configured")
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: clientTimeout}
	}

	base := c.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, c.BotToken)

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	resp, err := c.httpClient.Post(endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %s", resp.Status)
	}
	return nil
}
