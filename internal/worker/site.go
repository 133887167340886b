// Package worker runs posts-extraction jobs: it reserves queued jobs,
// scrapes the profile's site, stores the results, and publishes push events
// while it works.
package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// SiteConfig describes how to extract a profile and its posts from one site.
//
// ProfileURL and PostsURL are fmt templates: ProfileURL takes the profile's
// original id, PostsURL takes the original id and a 1-based page number. The
// Meta fields name the HTML meta tags identity fields are read from, and the
// Expr fields are JMESPath expressions over the posts API's JSON pages.
type SiteConfig struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	PostsURL   string `json:"posts_url"`

	// Login, when set, points at a form endpoint that issues a session
	// cookie for the credentials below.
	LoginURL      string `json:"login_url,omitempty"`
	LoginUser     string `json:"login_user,omitempty"`
	LoginPassword string `json:"login_password,omitempty"`

	UsernameMeta      string `json:"username_meta"`
	DescriptionMeta   string `json:"description_meta,omitempty"`
	PostCountMeta     string `json:"post_count_meta,omitempty"`
	FriendCountMeta   string `json:"friend_count_meta,omitempty"`
	FollowerCountMeta string `json:"follower_count_meta,omitempty"`

	ItemsExpr    string `json:"items_expr"`
	PostIDExpr   string `json:"post_id_expr"`
	ContentExpr  string `json:"content_expr"`
	PostedAtExpr string `json:"posted_at_expr,omitempty"`
	HasMoreExpr  string `json:"has_more_expr,omitempty"`

	// TimeLayout parses PostedAtExpr results; defaults to RFC 3339.
	TimeLayout string `json:"time_layout,omitempty"`
}

// Validate checks the config is complete enough to extract with.
func (c SiteConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("site name is required")
	}
	if strings.TrimSpace(c.ProfileURL) == "" {
		return errors.New("profile URL is required")
	}
	if strings.TrimSpace(c.PostsURL) == "" {
		return errors.New("posts URL is required")
	}
	if c.LoginURL != "" && (c.LoginUser == "" || c.LoginPassword == "") {
		return errors.New("login credentials are required when a login URL is set")
	}
	for _, expr := range []struct {
		name  string
		value string
	}{
		{"items", c.ItemsExpr},
		{"post id", c.PostIDExpr},
		{"content", c.ContentExpr},
	} {
		if strings.TrimSpace(expr.value) == "" {
			return fmt.Errorf("%s expression is required", expr.name)
		}
	}
	for _, expr := range []string{c.ItemsExpr, c.PostIDExpr, c.ContentExpr, c.PostedAtExpr, c.HasMoreExpr} {
		if expr == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("compile expression %q: %w", expr, err)
		}
	}
	return nil
}

func (c SiteConfig) timeLayout() string {
	if c.TimeLayout != "" {
		return c.TimeLayout
	}
	return time.RFC3339
}
