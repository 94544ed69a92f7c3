package reddit

import (
	"context"
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
	domsvc "BubbleWatch/internal/domain/service"
	"BubbleWatch/internal/service/ratelimit"
	xhttp "BubbleWatch/pkg/http"
)

// Client pulls recent ticker mentions from subreddit search. Uses the public
// JSON listing endpoints, so a descriptive User-Agent is mandatory.
type Client struct {
	baseURL    string
	userAgent  string
	subreddits []string
	timeFilter string
	client     *xhttp.Client
	rl         *ratelimit.Limiter
}

func New(baseURL, userAgent string, subreddits []string, timeFilter string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if timeFilter == "" {
		timeFilter = "week"
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		subreddits: subreddits,
		timeFilter: timeFilter,
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		rl:         ratelimit.New(),
	}
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// ForumPosts searches each configured subreddit for the ticker. A failed
// subreddit is skipped; the fetch fails only when every subreddit failed.
func (c *Client) ForumPosts(ctx context.Context, ticker string) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	failures := 0

	for _, sub := range c.subreddits {
		if !c.rl.Allow("reddit", 5, 1) {
			failures++
			continue
		}
		var l listing
		err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    fmt.Sprintf("%s/r/%s/search.json", c.baseURL, sub),
			Headers: map[string]string{
				"User-Agent": c.userAgent,
			},
			QueryParams: map[string][]string{
				"q":           {ticker},
				"restrict_sr": {"1"},
				"sort":        {"relevance"},
				"t":           {c.timeFilter},
			},
		}, &l)
		if err != nil {
			failures++
			continue
		}
		for _, ch := range l.Data.Children {
			posts = append(posts, models.ForumPost{
				Title:       ch.Data.Title,
				Score:       ch.Data.Score,
				NumComments: ch.Data.NumComments,
				Subreddit:   sub,
				CreatedUTC:  int64(ch.Data.CreatedUTC),
			})
		}
	}

	if failures == len(c.subreddits) {
		return nil, fmt.Errorf("reddit: all %d subreddit fetches failed for %s", failures, ticker)
	}
	if posts == nil {
		posts = []models.ForumPost{}
	}
	return posts, nil
}

var _ domsvc.ForumProvider = (*Client)(nil)
