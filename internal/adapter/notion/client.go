package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiVersion = "2022-06-28"
	pageSize   = 100
)

// TokenFunc returns the integration token, or "" when none is configured.
type TokenFunc func(ctx context.Context) (string, error)

type Client struct {
	baseURL string
	token   TokenFunc
	limiter *rate.Limiter
	client  *http.Client
}

// NewClient builds a client allowed rps requests per second.
func NewClient(baseURL string, rps float64, token TokenFunc) *Client {
	if rps <= 0 {
		rps = 3
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a token is available.
func (c *Client) Configured(ctx context.Context) bool {
	tok, err := c.token(ctx)
	return err == nil && tok != ""
}

// Children returns every direct child block of blockID, following cursors.
func (c *Client) Children(ctx context.Context, blockID string) ([]Block, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("notion token: %w", err)
	}
	if tok == "" {
		return nil, fmt.Errorf("notion api key not configured")
	}

	var blocks []Block
	cursor := ""
	for {
		page, err := c.listChildren(ctx, tok, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, page.Results...)
		if !page.HasMore || page.NextCursor == "" {
			return blocks, nil
		}
		cursor = page.NextCursor
	}
}

type childrenPage struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

func (c *Client) listChildren(ctx context.Context, token, blockID, cursor string) (*childrenPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("page_size", fmt.Sprint(pageSize))
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	endpoint := fmt.Sprintf("%s/v1/blocks/%s/children?%s", c.baseURL, url.PathEscape(blockID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("notion api error: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page childrenPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode notion blocks: %w", err)
	}
	return &page, nil
}
