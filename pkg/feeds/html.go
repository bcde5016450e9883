package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podcast-pipeline/pkg/domain"
	"podcast-pipeline/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// HTMLFetcher discovers episodes from providers that publish an HTML
// episode-listing page instead of an RSS feed. Each <article> element is
// expected to contain an audio link; the page's readable text supplies a
// show-notes excerpt used as the episode subtitle when nothing better is
// available.
type HTMLFetcher struct {
	client *httpclient.HTTPClient
}

// NewHTMLFetcher creates a new HTML episode fetcher
func NewHTMLFetcher(client *httpclient.HTTPClient) *HTMLFetcher {
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient)
	}
	return &HTMLFetcher{client: client}
}

var audioExtensions = []string{".mp3", ".m4a", ".ogg", ".wav", ".aac"}

// Fetch downloads the listing page and extracts episodes from it.
func (f *HTMLFetcher) Fetch(ctx context.Context, source domain.Source) ([]domain.Episode, error) {
	resp, err := f.client.Get(ctx, source.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	pageURL, err := url.Parse(source.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page HTML: %w", err)
	}

	excerpt := pageExcerpt(body, pageURL)

	var episodes []domain.Episode
	doc.Find("article").Each(func(_ int, article *goquery.Selection) {
		episode, ok := f.episodeFromArticle(source, pageURL, article, excerpt)
		if ok {
			episodes = append(episodes, episode)
		}
	})

	// Pages without <article> markup: fall back to scanning every audio link.
	if len(episodes) == 0 {
		doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href := link.AttrOr("href", "")
			if !isAudioLink(href) {
				return
			}
			audioURL := resolveURL(pageURL, href)
			episodes = append(episodes, domain.Episode{
				ID:          domain.EpisodeID(source, audioURL),
				Provider:    source.Provider,
				Channel:     source.Channel,
				AudioURL:    audioURL,
				Title:       strings.TrimSpace(link.Text()),
				Subtitle:    excerpt,
				PublishedAt: time.Now(),
				Language:    source.Language,
			})
		})
	}

	if len(episodes) == 0 {
		return nil, fmt.Errorf("no episodes found on listing page")
	}

	return episodes, nil
}

func (f *HTMLFetcher) episodeFromArticle(source domain.Source, pageURL *url.URL, article *goquery.Selection, excerpt string) (domain.Episode, bool) {
	var audioURL string
	article.Find("a[href], audio[src], source[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := sel.AttrOr("href", sel.AttrOr("src", ""))
		if isAudioLink(href) {
			audioURL = resolveURL(pageURL, href)
			return false
		}
		return true
	})
	if audioURL == "" {
		return domain.Episode{}, false
	}

	title := strings.TrimSpace(article.Find("h1, h2, h3").First().Text())
	if title == "" {
		title = strings.TrimSpace(article.Find("a").First().Text())
	}

	publishedAt := time.Now()
	if datetime := article.Find("time").First().AttrOr("datetime", ""); datetime != "" {
		if parsed, err := time.Parse(time.RFC3339, datetime); err == nil {
			publishedAt = parsed
		}
	}

	subtitle := strings.TrimSpace(article.Find("p").First().Text())
	if subtitle == "" {
		subtitle = excerpt
	}

	return domain.Episode{
		ID:          domain.EpisodeID(source, audioURL),
		Provider:    source.Provider,
		Channel:     source.Channel,
		AudioURL:    audioURL,
		Title:       title,
		Subtitle:    subtitle,
		PublishedAt: publishedAt,
		Language:    source.Language,
	}, true
}

// pageExcerpt runs readability over the listing page to produce a short
// show-notes excerpt. Extraction failures just mean no excerpt.
func pageExcerpt(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	if article.Excerpt != "" {
		return strings.TrimSpace(article.Excerpt)
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func isAudioLink(href string) bool {
	if href == "" {
		return false
	}
	lowered := strings.ToLower(href)
	if i := strings.IndexAny(lowered, "?#"); i >= 0 {
		lowered = lowered[:i]
	}
	for _, ext := range audioExtensions {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}
	return false
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
