package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	newsAPIBaseURL      = "https://newsapi.org/v2"
	newsAPIMaxItems     = 50
	newsAPIMaxBodyBytes = 2 << 20 // 2MB，防止超大响应拖垮进程
	newsAPITimeout      = 10 * time.Second
	newsAPIDefaultTopic = "technology"
)

// NewsAPIProvider 通过 NewsAPI 的 top-headlines 接口抓取科技新闻
type NewsAPIProvider struct {
	APIKey string
	Topic  string

	// BaseURL 仅测试时覆盖
	BaseURL string
}

func (p *NewsAPIProvider) Name() string { return "newsapi" }
func (p *NewsAPIProvider) Type() string { return TypeNewsAPI }

func (p *NewsAPIProvider) URL() string {
	return "https://newsapi.org"
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (p *NewsAPIProvider) FetchArticles() ([]RawArticleCandidate, error) {
	// 凭据缺失时快速失败，而不是发出一个注定 401 的请求
	if p.APIKey == "" {
		return nil, ErrMissingCredential
	}

	log.Println("fetch NewsAPI top headlines...")

	base := p.BaseURL
	if base == "" {
		base = newsAPIBaseURL
	}
	topic := p.Topic
	if topic == "" {
		topic = newsAPIDefaultTopic
	}

	endpoint := fmt.Sprintf("%s/top-headlines?category=%s&pageSize=%d",
		base, url.QueryEscape(topic), newsAPIMaxItems)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.APIKey)

	client := &http.Client{Timeout: newsAPITimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: fetch headlines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, newsAPIMaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("newsapi: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi: unexpected status %d", resp.StatusCode)
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("newsapi: unmarshal response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("newsapi: api error: %s", parsed.Message)
	}

	results := make([]RawArticleCandidate, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		publishedAt, perr := time.Parse(time.RFC3339, a.PublishedAt)
		if perr != nil {
			publishedAt = time.Now()
		}
		results = append(results, RawArticleCandidate{
			ExternalID:  a.URL,
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			PublishedAt: publishedAt,
			Extra: map[string]any{
				"origin":   a.Source.Name,
				"imageUrl": a.URLToImage,
			},
		})
	}

	if len(results) == 0 {
		log.Println("newsapi: no items fetched")
	}
	return results, nil
}
