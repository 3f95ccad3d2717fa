package provider

import (
	"fmt"
	"log"
	"time"

	"github.com/mmcdole/gofeed"
)

const rssMaxItemsPerFeed = 30

// RSSProvider 通过 gofeed 解析一组 RSS/Atom 订阅源。
// 单个 feed 解析失败只记录日志，不影响其余 feed。
type RSSProvider struct {
	Feeds []string

	parser *gofeed.Parser
}

func NewRSSProvider(feeds []string) *RSSProvider {
	return &RSSProvider{Feeds: feeds, parser: gofeed.NewParser()}
}

func (p *RSSProvider) Name() string { return "rss" }
func (p *RSSProvider) Type() string { return TypeRSS }

func (p *RSSProvider) URL() string {
	if len(p.Feeds) > 0 {
		return p.Feeds[0]
	}
	return ""
}

func (p *RSSProvider) FetchArticles() ([]RawArticleCandidate, error) {
	if len(p.Feeds) == 0 {
		return nil, fmt.Errorf("rss: no feeds configured")
	}
	if p.parser == nil {
		p.parser = gofeed.NewParser()
	}

	var results []RawArticleCandidate
	for _, feedURL := range p.Feeds {
		log.Printf("fetch rss feed %s...", feedURL)
		feed, err := p.parser.ParseURL(feedURL)
		if err != nil {
			log.Printf("rss: parse %s error: %v", feedURL, err)
			continue
		}

		items := feed.Items
		if len(items) > rssMaxItemsPerFeed {
			items = items[:rssMaxItemsPerFeed]
		}

		for _, it := range items {
			if it.Title == "" || it.Link == "" {
				continue
			}

			// 去重键优先用 GUID，条目没有 GUID 时退回链接
			externalID := it.GUID
			if externalID == "" {
				externalID = it.Link
			}

			publishedAt := time.Now()
			if it.PublishedParsed != nil {
				publishedAt = *it.PublishedParsed
			} else if it.UpdatedParsed != nil {
				publishedAt = *it.UpdatedParsed
			}

			results = append(results, RawArticleCandidate{
				ExternalID:  externalID,
				Title:       it.Title,
				Description: it.Description,
				Content:     it.Content,
				PublishedAt: publishedAt,
				Extra: map[string]any{
					"feed": feed.Title,
					"link": it.Link,
				},
			})
		}
	}

	if len(results) == 0 {
		log.Println("rss: no items fetched")
	}
	return results, nil
}
