package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tannerhall/repowatch/internal/logging"
)

// fetchTimeout bounds a single commits request.
const fetchTimeout = 10 * time.Second

// Revision is a single commit as seen by the rest of the application.
// The ID is opaque and comparable only by equality.
type Revision struct {
	ID      string
	Author  string
	Message string
}

// ShortID returns the first 7 characters of the revision id, or the full
// id if it is shorter.
func (r Revision) ShortID() string {
	if len(r.ID) > 7 {
		return r.ID[:7]
	}
	return r.ID
}

// Client fetches commit lists from the GitHub REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a GitHub API client. baseURL may be empty, in which
// case the public API endpoint is used.
func NewClient(baseURL string, logger logging.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger.Named("github_client"),
	}
}

// commitItem mirrors the fields used from the GitHub commits endpoint.
type commitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
		Message string `json:"message"`
	} `json:"commit"`
}

// FetchRevisions returns the commits for a branch, newest first, or nil
// when the upstream is unavailable. Transport failures and non-success
// statuses are logged here and never propagated; the next poll cycle is
// the retry.
func (c *Client) FetchRevisions(ctx context.Context, owner, repo, branch, token string) []Revision {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?sha=%s", c.baseURL, owner, repo, url.QueryEscape(branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("Failed to build commits request", "owner", owner, "repo", repo, "error", err)
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Commits request failed", "owner", owner, "repo", repo, "error", err)
		return nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decode.
	case http.StatusForbidden, http.StatusTooManyRequests:
		c.logger.Warn("GitHub API rate limited or access denied, check token", "owner", owner, "repo", repo, "status", resp.StatusCode)
		return nil
	case http.StatusNotFound:
		c.logger.Error("Repository or branch not found", "owner", owner, "repo", repo, "branch", branch)
		return nil
	default:
		c.logger.Error("Unexpected GitHub API status", "owner", owner, "repo", repo, "status", resp.StatusCode)
		return nil
	}

	var items []commitItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		c.logger.Error("Failed to decode commits response", "owner", owner, "repo", repo, "error", err)
		return nil
	}

	revisions := make([]Revision, 0, len(items))
	for _, item := range items {
		revisions = append(revisions, Revision{
			ID:      item.SHA,
			Author:  item.Commit.Author.Name,
			Message: item.Commit.Message,
		})
	}
	c.logger.Debug("Fetched commits", "owner", owner, "repo", repo, "branch", branch, "count", len(revisions))
	return revisions
}
