// Package news fetches headlines for the dashboard's news panel from
// multiple sources: Alpaca, Google News RSS, GlobeNewswire RSS, Finnhub,
// and CoinDesk for crypto symbols. Sources degrade independently; one
// failing feed never blanks the panel.
package news

import (
	"context"
	"encoding/xml"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Article is a single news article from any source.
type Article struct {
	Time     time.Time
	Source   string
	Headline string
	Content  string
}

// --- HTTP client ---

var httpClient = &http.Client{Timeout: 10 * time.Second}

// ---------------------------------------------------------------------------
// Fetcher
// ---------------------------------------------------------------------------

// Fetcher aggregates the configured sources. A nil marketdata client or an
// empty API key simply disables that source.
type Fetcher struct {
	md          *marketdata.Client
	finnhubKey  string
	coindeskKey string
}

// NewFetcher builds a Fetcher. md may be nil when Alpaca credentials are
// absent; finnhubKey and coindeskKey may be empty.
func NewFetcher(md *marketdata.Client, finnhubKey, coindeskKey string) *Fetcher {
	return &Fetcher{md: md, finnhubKey: finnhubKey, coindeskKey: coindeskKey}
}

// Fetch gathers articles for an equity symbol from every enabled source,
// merged and sorted by publish time. It returns an error only when every
// enabled source failed; partial results win otherwise.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	type result struct {
		articles []Article
		err      error
	}

	var fetches []func() result
	if f.md != nil {
		fetches = append(fetches, func() result {
			a, err := FetchAlpacaNews(ctx, f.md, symbol, start, end)
			return result{a, err}
		})
	}
	fetches = append(fetches,
		func() result {
			a, err := FetchGoogleNews(ctx, symbol, start, end)
			return result{a, err}
		},
		func() result {
			a, err := FetchGlobeNewswire(ctx, symbol, start, end)
			return result{a, err}
		},
	)
	if f.finnhubKey != "" {
		fetches = append(fetches, func() result {
			a, err := FetchFinnhubNews(ctx, f.finnhubKey, symbol, start, end)
			return result{a, err}
		})
	}

	results := make(chan result, len(fetches))
	for _, fetch := range fetches {
		fetch := fetch
		go func() { results <- fetch() }()
	}

	var all []Article
	var firstErr error
	failed := 0
	for range fetches {
		r := <-results
		if r.err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		all = append(all, r.articles...)
	}
	if failed == len(fetches) && firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })
	return all, nil
}

// FetchCrypto gathers CoinDesk articles for a crypto symbol. A missing
// CoinDesk key surfaces as the returned error so the panel can show it.
func (f *Fetcher) FetchCrypto(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	return FetchCoinDeskNews(ctx, f.coindeskKey, symbol, start, end)
}

// ---------------------------------------------------------------------------
// Alpaca
// ---------------------------------------------------------------------------

// FetchAlpacaNews fetches news from the Alpaca marketdata API.
func FetchAlpacaNews(ctx context.Context, mdc *marketdata.Client, symbol string, start, end time.Time) ([]Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alpacaNews, err := mdc.GetNews(marketdata.GetNewsRequest{
		Symbols:            []string{symbol},
		Start:              start,
		End:                end,
		TotalLimit:         50,
		IncludeContent:     true,
		ExcludeContentless: true,
		Sort:               marketdata.SortAsc,
	})
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(alpacaNews))
	for _, a := range alpacaNews {
		body := ""
		if a.Content != "" {
			body = ExtractSymbolContent(a.Content, symbol)
		} else if a.Summary != "" {
			body = a.Summary
		}
		articles = append(articles, Article{
			Time:     a.CreatedAt,
			Source:   "alpaca",
			Headline: a.Headline,
			Content:  body,
		})
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// RSS sources
// ---------------------------------------------------------------------------

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

func fetchRSS(ctx context.Context, u string) (rssResponse, error) {
	var rss rssResponse
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return rss, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return rss, err
	}
	defer resp.Body.Close()

	err = xml.NewDecoder(resp.Body).Decode(&rss)
	return rss, err
}

// parsePubDate tries the date layouts RSS feeds use in the wild.
func parsePubDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, "Mon, 02 Jan 2006 15:04 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FetchGoogleNews fetches news from Google News RSS.
func FetchGoogleNews(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	q := url.QueryEscape(symbol + " stock")
	u := "https://news.google.com/rss/search?q=" + q + "&hl=en-US&gl=US&ceid=US:en"

	rss, err := fetchRSS(ctx, u)
	if err != nil {
		return nil, err
	}

	var articles []Article
	for _, item := range rss.Channel.Items {
		t, ok := parsePubDate(item.PubDate)
		if !ok || t.Before(start) || t.After(end) {
			continue
		}
		// Google appends " - Publisher" to titles.
		headline := item.Title
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			headline = headline[:idx]
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "google",
			Headline: headline,
			Content:  StripHTML(item.Desc),
		})
	}
	return articles, nil
}

// FetchGlobeNewswire fetches press releases from GlobeNewswire RSS.
func FetchGlobeNewswire(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	u := "https://www.globenewswire.com/RssFeed/keyword/" + url.PathEscape(symbol) + "/feedTitle/GlobeNewswire.xml"

	rss, err := fetchRSS(ctx, u)
	if err != nil {
		return nil, err
	}

	var articles []Article
	for _, item := range rss.Channel.Items {
		t, ok := parsePubDate(item.PubDate)
		if !ok || t.Before(start) || t.After(end) {
			continue
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "globenewswire",
			Headline: item.Title,
			Content:  StripHTML(item.Desc),
		})
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// HTML helpers
// ---------------------------------------------------------------------------

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var htmlParaRe = regexp.MustCompile(`(?i)</?(p|br|div|li|h[1-6])\b[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ExtractSymbolContent extracts paragraphs mentioning the symbol from HTML
// content. Falls back to full stripped HTML if no paragraph matches.
func ExtractSymbolContent(rawHTML, symbol string) string {
	chunks := htmlParaRe.Split(rawHTML, -1)
	var matched []string
	upper := strings.ToUpper(symbol)
	for _, chunk := range chunks {
		plain := StripHTML(chunk)
		if plain == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(plain), upper) {
			matched = append(matched, plain)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, " ")
	}
	return StripHTML(rawHTML)
}
