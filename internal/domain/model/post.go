package model

import "time"

// Post represents one item authored by a profile.
type Post struct {
	ID         int64     `json:"id"          db:"id"`
	ProfileID  int64     `json:"profile_id"  db:"profile_id"`
	OriginalID string    `json:"original_id" db:"original_id"`
	Content    string    `json:"content"     db:"content"`
	PostedAt   time.Time `json:"posted_at"   db:"posted_at"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// PostsPage is one page of a profile's posts plus the identity fields the
// posts endpoint returns alongside them.
type PostsPage struct {
	SiteName   string `json:"site_name"`
	Username   string `json:"username"`
	Posts      []Post `json:"posts"`
	TotalCount int    `json:"total_count"`
}
