package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// coindeskResponse is the CoinDesk article-list response envelope.
type coindeskResponse struct {
	Data []coindeskArticle `json:"Data"`
}

type coindeskArticle struct {
	Title       string `json:"TITLE"`
	Subtitle    string `json:"SUBTITLE"`
	Body        string `json:"BODY"`
	PublishedOn int64  `json:"PUBLISHED_ON"` // Unix seconds
	SourceData  struct {
		Name string `json:"NAME"`
	} `json:"SOURCE_DATA"`
}

// FetchCoinDeskNews fetches crypto news from the CoinDesk API. The key is
// required; a missing key errors here so the caller can show it on the
// panel instead of failing startup.
func FetchCoinDeskNews(ctx context.Context, apiKey, symbol string, start, end time.Time) ([]Article, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("coindesk: missing COINDESK_API_KEY")
	}

	q := url.Values{}
	q.Set("lang", "EN")
	q.Set("limit", "50")
	q.Set("categories", strings.ToUpper(symbol))
	q.Set("api_key", apiKey)
	u := "https://data-api.coindesk.com/news/v1/article/list?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coindesk: status %d", resp.StatusCode)
	}

	var body coindeskResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var articles []Article
	for _, a := range body.Data {
		t := time.Unix(a.PublishedOn, 0).UTC()
		if t.Before(start) || t.After(end) || a.Title == "" {
			continue
		}
		content := a.Subtitle
		if content == "" {
			content = summarize(a.Body, 400)
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "coindesk",
			Headline: a.Title,
			Content:  content,
		})
	}
	return articles, nil
}

// summarize trims plain text to roughly n bytes at a word boundary.
func summarize(s string, n int) string {
	s = StripHTML(s)
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
