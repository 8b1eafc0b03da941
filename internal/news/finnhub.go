package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"agentdeck/internal/util"
)

// Finnhub's free tier allows 60 calls per minute.
var finnhubLimiter = util.NewRateLimiter(60)

// finnhubArticle is one row of the Finnhub company-news response.
type finnhubArticle struct {
	Datetime int64  `json:"datetime"` // Unix seconds
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
}

// FetchFinnhubNews fetches company news from the Finnhub API for the given
// date window.
func FetchFinnhubNews(ctx context.Context, apiKey, symbol string, start, end time.Time) ([]Article, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("finnhub: missing FINNHUB_API_KEY")
	}
	if err := finnhubLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", start.Format("2006-01-02"))
	q.Set("to", end.Format("2006-01-02"))
	q.Set("token", apiKey)
	u := "https://finnhub.io/api/v1/company-news?" + q.Encode()

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
		return nil, fmt.Errorf("finnhub: status %d", resp.StatusCode)
	}

	var rows []finnhubArticle
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	var articles []Article
	for _, r := range rows {
		t := time.Unix(r.Datetime, 0).UTC()
		if t.Before(start) || t.After(end) || r.Headline == "" {
			continue
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "finnhub",
			Headline: r.Headline,
			Content:  r.Summary,
		})
	}
	return articles, nil
}
