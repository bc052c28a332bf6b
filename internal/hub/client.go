// Package hub talks to the hub's repository API, the upstream service that
// owns tag collections.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hublabs.dev/tagger/core/config"
)

// TagService is the narrow surface the agent tools need: read a repo's
// current tags and add one. Implementations must treat adding an existing
// tag as a no-op.
type TagService interface {
	GetTags(ctx context.Context, repoName string) ([]string, error)
	AddTag(ctx context.Context, repoName, tag string) error
}

var ErrNotFound = errors.New("repo not found")

const requestTimeout = 15 * time.Second

// Client is the HTTP implementation of TagService against the hub API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.HubConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// GetTags fetches the repository's current tag set.
func (c *Client) GetTags(ctx context.Context, repoName string) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.tagsURL(repoName), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get tags for %s: %w", repoName, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("get tags for %s: %w", repoName, ErrNotFound)
	default:
		return nil, fmt.Errorf("get tags for %s: %s", repoName, readError(resp))
	}

	var body struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", repoName, err)
	}
	return body.Tags, nil
}

// AddTag adds a tag to the repository. The hub treats adding an existing
// tag as a conflict; that case is swallowed here to keep the call
// idempotent.
func (c *Client) AddTag(ctx context.Context, repoName, tag string) error {
	payload, err := json.Marshal(map[string]string{"tag": tag})
	if err != nil {
		return fmt.Errorf("encode tag: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.tagsURL(repoName), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("add tag %q to %s: %w", tag, repoName, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("add tag %q to %s: %w", tag, repoName, ErrNotFound)
	default:
		return fmt.Errorf("add tag %q to %s: %s", tag, repoName, readError(resp))
	}
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) tagsURL(repoName string) string {
	return fmt.Sprintf("%s/repos/%s/tags", c.baseURL, url.PathEscape(repoName))
}

func readError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(data) == 0 {
		return fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
