package model

import (
	"errors"
	"strings"
	"time"
)

// Profile represents a tracked social-media account.
type Profile struct {
	ID            int64     `json:"id"             db:"id"`
	Site          string    `json:"site"           db:"site"`
	OriginalID    string    `json:"original_id"    db:"original_id"`
	Username      string    `json:"username"       db:"username"`
	Description   string    `json:"description"    db:"description"`
	PostCount     int       `json:"post_count"     db:"post_count"`
	FriendCount   int       `json:"friend_count"   db:"friend_count"`
	FollowerCount int       `json:"follower_count" db:"follower_count"`
	AutoRefresh   bool      `json:"auto_refresh"   db:"auto_refresh"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// UpsertProfileRequest carries the identity and counters extracted from a site.
type UpsertProfileRequest struct {
	Site          string `json:"site"`
	OriginalID    string `json:"original_id"`
	Username      string `json:"username"`
	Description   string `json:"description"`
	PostCount     int    `json:"post_count"`
	FriendCount   int    `json:"friend_count"`
	FollowerCount int    `json:"follower_count"`
}

// Validate validates the UpsertProfileRequest fields.
func (r *UpsertProfileRequest) Validate() error {
	if strings.TrimSpace(r.Site) == "" {
		return errors.New("site is required")
	}
	if strings.TrimSpace(r.OriginalID) == "" {
		return errors.New("original id is required")
	}
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	return nil
}
