package provider

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	scraperMaxItems = 40
	scraperTimeout  = 15 * time.Second
	scraperUA       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ScraperProvider 用 colly 抓取没有 API 也没有 RSS 的站点，
// 按配置的 CSS 选择器提取条目链接与标题
type ScraperProvider struct {
	PageURL      string
	ItemSelector string
}

func (p *ScraperProvider) Name() string { return "scraper" }
func (p *ScraperProvider) Type() string { return TypeScraper }
func (p *ScraperProvider) URL() string  { return p.PageURL }

func (p *ScraperProvider) FetchArticles() ([]RawArticleCandidate, error) {
	if p.PageURL == "" {
		return nil, fmt.Errorf("scraper: no page url configured")
	}
	selector := p.ItemSelector
	if selector == "" {
		selector = "article a"
	}

	log.Printf("scrape %s...", p.PageURL)

	c := colly.NewCollector(
		colly.UserAgent(scraperUA),
	)
	c.SetRequestTimeout(scraperTimeout)

	now := time.Now()
	var results []RawArticleCandidate
	seen := make(map[string]bool)

	c.OnHTML(selector, func(e *colly.HTMLElement) {
		if len(results) >= scraperMaxItems {
			return
		}
		href := e.Request.AbsoluteURL(e.Attr("href"))
		title := strings.TrimSpace(e.Text)
		if href == "" || title == "" || seen[href] {
			return
		}
		seen[href] = true
		results = append(results, RawArticleCandidate{
			ExternalID:  href,
			Title:       title,
			PublishedAt: now,
			Extra: map[string]any{
				"page": p.PageURL,
				"rank": len(results) + 1,
			},
		})
	})

	if err := c.Visit(p.PageURL); err != nil {
		return nil, fmt.Errorf("scraper: visit %s: %w", p.PageURL, err)
	}

	if len(results) == 0 {
		log.Println("scraper: no items extracted")
	}
	return results, nil
}
