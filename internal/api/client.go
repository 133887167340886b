// Package api implements the REST client for the profile service: the
// paginated posts endpoint, the extraction trigger, and the task monitoring
// endpoints consumed by the posts view.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

const defaultTimeout = 15 * time.Second

// Config captures runtime configuration for the REST client.
type Config struct {
	// BaseURL is the service root, e.g. "https://profilewatch.internal".
	BaseURL string
	// TokenSource, when set, supplies bearer tokens for every request.
	TokenSource oauth2.TokenSource
	Timeout     time.Duration
	// Client overrides the transport; TokenSource is ignored when set.
	Client *http.Client
}

// Client talks to the profile service's JSON API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
}

// NewClient constructs a Client from config. Callers must provide a base URL.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := cfg.Client
	if hc == nil {
		if cfg.TokenSource != nil {
			hc = oauth2.NewClient(context.Background(), cfg.TokenSource)
		} else {
			hc = &http.Client{}
		}
		hc.Timeout = timeout
	}

	return &Client{baseURL: base, client: hc}, nil
}

// ProfilePosts fetches one page of posts for a profile.
func (c *Client) ProfilePosts(ctx context.Context, profileID int64, page, rpp int) (*model.PostsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("rpp", strconv.Itoa(rpp))

	var out model.PostsPage
	err := c.get(ctx, fmt.Sprintf("/api/profile/%d/posts", profileID), q, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EnqueuePostsFetch asks the service to schedule a new posts-extraction job
// for the profile.
func (c *Client) EnqueuePostsFetch(ctx context.Context, profileID int64) error {
	return c.post(ctx, fmt.Sprintf("/api/profile/%d/posts/fetch", profileID), nil, nil)
}

// Workers lists the service's extraction workers and their current jobs.
func (c *Client) Workers(ctx context.Context) ([]model.WorkerDescriptor, error) {
	var out model.WorkerList
	if err := c.get(ctx, "/api/tasks/workers", nil, &out); err != nil {
		return nil, err
	}
	return out.Workers, nil
}

// FailedTasks lists tasks that ended in failure.
func (c *Client) FailedTasks(ctx context.Context) ([]model.FailedTask, error) {
	var out model.FailedTaskList
	if err := c.get(ctx, "/api/tasks/failed", nil, &out); err != nil {
		return nil, err
	}
	return out.Failed, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build api request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "profile service timed out")
		case errors.Is(err, context.Canceled):
			return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "api request canceled")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeRemote, "profile service unreachable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeRemote, "decode api response")
	}
	return nil
}

// errorEnvelope is the service's JSON error body.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope errorEnvelope
	message := ""
	if json.Unmarshal(raw, &envelope) == nil {
		message = strings.TrimSpace(envelope.Message)
		if message == "" {
			message = strings.TrimSpace(envelope.Error)
		}
	}
	if message == "" {
		message = fmt.Sprintf("profile service error (%s)", resp.Status)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFound(message)
	case http.StatusConflict:
		return apperrors.Conflict(message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.Validation(message)
	default:
		return apperrors.Remote(message)
	}
}
