package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/net/html"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

const (
	defaultExtractTimeout = 30 * time.Second
	defaultSessionTTL     = 12 * time.Hour
	maxErrorBody          = 4 << 10
)

// ExtractedPost is one post pulled out of a site's posts API.
type ExtractedPost struct {
	OriginalID string
	Content    string
	PostedAt   time.Time
}

// ExtractorOptions groups dependencies for Extractor.
type ExtractorOptions struct {
	Client   *http.Client // Optional: defaults to a client with a 30s timeout
	Sessions SessionCache // Optional: only needed for sites with a LoginURL
	Logger   *slog.Logger // Optional
}

// Extractor scrapes profile identity from a site's HTML page and posts from
// its paginated JSON API, driven by a SiteConfig.
type Extractor struct {
	client   *http.Client
	sessions SessionCache
	logger   *slog.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(opts ExtractorOptions) *Extractor {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultExtractTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:   client,
		sessions: opts.Sessions,
		logger:   logger.With("component", "extractor"),
	}
}

// Identity fetches the profile page and reads the identity fields and
// counters out of its meta tags.
func (e *Extractor) Identity(ctx context.Context, site SiteConfig, originalID string) (*model.UpsertProfileRequest, error) {
	target := fmt.Sprintf(site.ProfileURL, url.PathEscape(originalID))
	body, err := e.get(ctx, site, target)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	meta, err := parseMetaTags(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeRemote, "profile page is not parseable")
	}

	username := meta[site.UsernameMeta]
	if username == "" {
		return nil, apperrors.Remotef("profile page is missing the %q meta tag", site.UsernameMeta)
	}

	return &model.UpsertProfileRequest{
		Site:          site.Name,
		OriginalID:    originalID,
		Username:      username,
		Description:   meta[site.DescriptionMeta],
		PostCount:     parseCount(meta[site.PostCountMeta]),
		FriendCount:   parseCount(meta[site.FriendCountMeta]),
		FollowerCount: parseCount(meta[site.FollowerCountMeta]),
	}, nil
}

// PostsPage fetches one page of the site's posts API and extracts posts via
// the site's JMESPath expressions. The second return reports whether more
// pages remain.
func (e *Extractor) PostsPage(ctx context.Context, site SiteConfig, originalID string, page int) ([]ExtractedPost, bool, error) {
	target := fmt.Sprintf(site.PostsURL, url.PathEscape(originalID), page)
	body, err := e.get(ctx, site, target)
	if err != nil {
		return nil, false, err
	}
	defer body.Close()

	var doc any
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeRemote, "posts response is not valid JSON")
	}

	rawItems, err := jmespath.Search(site.ItemsExpr, doc)
	if err != nil {
		return nil, false, fmt.Errorf("evaluate items expression: %w", err)
	}
	items, _ := rawItems.([]any)

	posts := make([]ExtractedPost, 0, len(items))
	for _, item := range items {
		post, err := e.extractPost(site, item)
		if err != nil {
			e.logger.Warn("skipping unparseable post",
				"site", site.Name, "profile", originalID, "error", err)
			continue
		}
		posts = append(posts, post)
	}

	hasMore := len(items) > 0
	if site.HasMoreExpr != "" {
		raw, err := jmespath.Search(site.HasMoreExpr, doc)
		if err != nil {
			return nil, false, fmt.Errorf("evaluate has-more expression: %w", err)
		}
		if b, ok := raw.(bool); ok {
			hasMore = b
		}
	}

	return posts, hasMore, nil
}

func (e *Extractor) extractPost(site SiteConfig, item any) (ExtractedPost, error) {
	id, err := searchString(site.PostIDExpr, item)
	if err != nil || id == "" {
		return ExtractedPost{}, fmt.Errorf("post id: %w", orMissing(err))
	}
	content, err := searchString(site.ContentExpr, item)
	if err != nil {
		return ExtractedPost{}, fmt.Errorf("content: %w", err)
	}

	post := ExtractedPost{OriginalID: id, Content: content}
	if site.PostedAtExpr != "" {
		raw, err := searchString(site.PostedAtExpr, item)
		if err != nil || raw == "" {
			return ExtractedPost{}, fmt.Errorf("posted at: %w", orMissing(err))
		}
		ts, err := time.Parse(site.timeLayout(), raw)
		if err != nil {
			return ExtractedPost{}, fmt.Errorf("posted at: %w", err)
		}
		post.PostedAt = ts
	}
	return post, nil
}

// get issues an authenticated GET against the site, logging in and retrying
// once when a cached session has gone stale.
func (e *Extractor) get(ctx context.Context, site SiteConfig, target string) (io.ReadCloser, error) {
	cookie, err := e.sessionCookie(ctx, site, false)
	if err != nil {
		return nil, err
	}

	body, status, err := e.doGet(ctx, target, cookie)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		body.Close()
		if site.LoginURL == "" {
			return nil, apperrors.Remotef("site %s denied access", site.Name)
		}
		cookie, err = e.sessionCookie(ctx, site, true)
		if err != nil {
			return nil, err
		}
		body, status, err = e.doGet(ctx, target, cookie)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case status == http.StatusOK:
		return body, nil
	case status == http.StatusNotFound:
		body.Close()
		return nil, apperrors.NotFoundf("site %s has no such profile", site.Name)
	default:
		body.Close()
		return nil, apperrors.Remotef("site %s returned status %d", site.Name, status)
	}
}

func (e *Extractor) doGet(ctx context.Context, target, cookie string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeCanceled, "extraction canceled")
		}
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeRemote, "site unreachable")
	}
	return resp.Body, resp.StatusCode, nil
}

// sessionCookie returns the cookie for a login-gated site, logging in when no
// valid session is cached or when refresh forces one.
func (e *Extractor) sessionCookie(ctx context.Context, site SiteConfig, refresh bool) (string, error) {
	if site.LoginURL == "" {
		return "", nil
	}
	if e.sessions == nil {
		return "", fmt.Errorf("site %s requires a login but no session cache is configured", site.Name)
	}

	if !refresh {
		sess, err := e.sessions.Get(ctx, site.Name)
		if err == nil {
			return sess.Cookie, nil
		}
		if !errors.Is(err, ErrNoSession) {
			return "", fmt.Errorf("session cache: %w", err)
		}
	} else if err := e.sessions.Delete(ctx, site.Name); err != nil {
		return "", fmt.Errorf("drop stale session: %w", err)
	}

	cookie, err := e.login(ctx, site)
	if err != nil {
		return "", err
	}

	sess := Session{Cookie: cookie, ExpiresAt: time.Now().Add(defaultSessionTTL)}
	if err := e.sessions.Set(ctx, site.Name, sess); err != nil {
		e.logger.Warn("caching session failed", "site", site.Name, "error", err)
	}
	return cookie, nil
}

func (e *Extractor) login(ctx context.Context, site SiteConfig) (string, error) {
	form := url.Values{
		"username": {site.LoginUser},
		"password": {site.LoginPassword},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, site.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeRemote, "login endpoint unreachable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Remotef("site %s login failed with status %d", site.Name, resp.StatusCode)
	}

	var parts []string
	for _, c := range resp.Cookies() {
		parts = append(parts, c.Name+"="+c.Value)
	}
	if len(parts) == 0 {
		return "", apperrors.Remotef("site %s login returned no session cookie", site.Name)
	}
	return strings.Join(parts, "; "), nil
}

// parseMetaTags walks an HTML document and collects meta tag name/property to
// content mappings.
func parseMetaTags(r io.Reader) (map[string]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var key, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name", "property":
					key = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if key != "" {
				meta[key] = content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return meta, nil
}

// parseCount parses a counter meta value, tolerating separators like
// "12,345". Unparseable values collapse to zero.
func parseCount(v string) int {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func searchString(expr string, data any) (string, error) {
	raw, err := jmespath.Search(expr, data)
	if err != nil {
		return "", err
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func orMissing(err error) error {
	if err != nil {
		return err
	}
	return errors.New("missing")
}
