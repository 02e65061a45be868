// Package github implements the collaborator API over the GitHub REST
// API using a personal access token with repo scope.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/repogate-inc/repogate/internal/application/access"
	"github.com/repogate-inc/repogate/internal/shared/config"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

const (
	defaultAPIBaseURL = "https://api.github.com"

	httpTimeout     = 10 * time.Second
	maxResponseSize = 1 << 20

	acceptHeader = "application/vnd.github.v3+json"
	userAgent    = "repogate-backend"
)

// Client talks to the GitHub REST API. User-existence checks go through
// singleflight so a burst of webhooks for the same username costs one
// API call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userGroup  singleflight.Group
	logger     logger.Interface
}

var _ access.CollaboratorAPI = (*Client)(nil)

func NewClient(cfg *config.GitHubConfig, log logger.Interface) *Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.PersonalAccessToken})
	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = httpTimeout

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.Named("github"),
	}
}

// CheckUserExists resolves the username via GET /users/{username}.
// A 404 means the account does not exist; other failures are errors so
// callers do not mistake an outage for a missing user.
func (c *Client) CheckUserExists(ctx context.Context, username string) (bool, error) {
	result, err, _ := c.userGroup.Do(username, func() (any, error) {
		resp, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil)
		if err != nil {
			return false, err
		}
		defer drainAndClose(resp.Body)

		switch resp.StatusCode {
		case http.StatusOK:
			return true, nil
		case http.StatusNotFound:
			return false, nil
		default:
			return false, c.statusError(resp, "check user")
		}
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// AddCollaborator invites username to owner/repo. GitHub answers 201
// when an invitation is created and 204 when the user already has
// access, both of which count as success.
func (c *Client) AddCollaborator(ctx context.Context, owner, repo, username, permission string) error {
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(username))

	payload, err := json.Marshal(map[string]string{"permission": permission})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusNoContent:
		c.logger.Infow("collaborator invited",
			"owner", owner,
			"repo", repo,
			"username", username,
			"permission", permission,
		)
		return nil
	default:
		return c.statusError(resp, "add collaborator")
	}
}

// RemoveCollaborator deletes the collaboration. 404 is treated as
// success: the user already has no access.
func (c *Client) RemoveCollaborator(ctx context.Context, owner, repo, username string) error {
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(username))

	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound:
		c.logger.Infow("collaborator removed",
			"owner", owner,
			"repo", repo,
			"username", username,
		)
		return nil
	default:
		return c.statusError(resp, "remove collaborator")
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) statusError(resp *http.Response, operation string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	if apiErr.Message != "" {
		return fmt.Errorf("github %s: status %d: %s", operation, resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("github %s: unexpected status %d", operation, resp.StatusCode)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseSize))
	_ = body.Close()
}
