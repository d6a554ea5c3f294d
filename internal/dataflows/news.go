package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/stockpilot-agent/stockpilot/internal/config"
)

const googleNewsRSS = "https://news.google.com/rss/search"

// NewsClient searches Google News for market headlines.
type NewsClient struct {
	client  *resty.Client
	baseURL string
	cache   *CacheManager
}

func NewNewsClient(cfg *config.Config) *NewsClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "news")

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; StockPilot/1.0)")

	return &NewsClient{
		client:  client,
		baseURL: googleNewsRSS,
		cache:   NewCacheManager(cacheDir, 2*time.Hour, cfg.CacheEnabled),
	}
}

// SetBaseURL points the client at a different feed host, used by tests.
func (nc *NewsClient) SetBaseURL(u string) {
	nc.baseURL = u
}

// Search fetches up to maxResults articles matching the query.
func (nc *NewsClient) Search(ctx context.Context, query string, maxResults int) ([]*NewsArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	cacheKey := map[string]any{"query": query, "max": maxResults}
	var cached []*NewsArticle
	if nc.cache.Get("google_news", "search", cacheKey, &cached) {
		return cached, nil
	}

	feedURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", nc.baseURL, url.QueryEscape(query))

	var articles []*NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := nc.client.R().SetContext(ctx).Get(feedURL)
		if err != nil {
			return fmt.Errorf("fetch news feed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("news feed: HTTP %d", resp.StatusCode())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("parse news feed: %w", err)
		}

		articles = parseNewsFeed(doc, query)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(articles) > maxResults {
		articles = articles[:maxResults]
	}

	nc.cache.Set("google_news", "search", cacheKey, articles)
	return articles, nil
}

func parseNewsFeed(doc *goquery.Document, query string) []*NewsArticle {
	var articles []*NewsArticle

	doc.Find("item").Each(func(_ int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find("title").First().Text())
		if title == "" {
			return
		}

		source := strings.TrimSpace(item.Find("source").First().Text())
		if source == "" {
			source = "Google News"
		}

		published := time.Time{}
		if pubDate := strings.TrimSpace(item.Find("pubdate").First().Text()); pubDate != "" {
			if parsed, err := time.Parse(time.RFC1123, pubDate); err == nil {
				published = parsed
			} else if parsed, err := time.Parse(time.RFC1123Z, pubDate); err == nil {
				published = parsed
			}
		}

		// goquery lowercases tags when parsing XML as HTML; links in
		// RSS items surface as trailing text rather than an element.
		link := strings.TrimSpace(item.Find("link").First().Text())

		articles = append(articles, &NewsArticle{
			Title:       title,
			URL:         link,
			Source:      source,
			PublishedAt: published,
			Keywords:    []string{query},
			Metadata:    map[string]string{"scraper": "google_news"},
		})
	})

	return articles
}
