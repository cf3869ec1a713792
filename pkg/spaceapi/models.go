package spaceapi

import (
	"slices"
	"time"
)

// Author is the denormalized user summary embedded in posts, comments and
// notifications. Anonymous posts carry a placeholder name and no avatar.
type Author struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type Comment struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Author    Author     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Edited reports whether the server recorded an edit.
func (c Comment) Edited() bool {
	return c.UpdatedAt != nil
}

type Post struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Author      Author    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	IsAnonymous bool      `json:"isAnonymous"`

	// Likes holds the ids of liking users when the server sends records,
	// LikesCount is always populated.
	Likes      []string `json:"likes"`
	LikesCount int      `json:"likesCount"`
	Liked      bool     `json:"liked"`

	Comments      []Comment `json:"comments"`
	CommentsCount int       `json:"commentsCount"`

	Bookmarked bool `json:"bookmarked"`

	// Placeholder marks the offline stand-ins returned when the backend is
	// unreachable.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Clone returns a deep copy.
func (p Post) Clone() Post {
	p.Likes = slices.Clone(p.Likes)
	p.Comments = slices.Clone(p.Comments)
	return p
}

type Pagination struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	Total      int  `json:"total"`
	HasNext    bool `json:"hasNext"`
}

// PostPage is one normalized page of the feed. Pagination is nil when the
// server answered with a bare array.
type PostPage struct {
	Posts      []Post
	Pagination *Pagination
}

type LikeResult struct {
	Likes      []string `json:"likes"`
	LikesCount int      `json:"likesCount"`
	Liked      bool     `json:"liked"`
}

type NotificationType string

const (
	NotificationLike     NotificationType = "like"
	NotificationComment  NotificationType = "comment"
	NotificationBookmark NotificationType = "bookmark"
)

// PostRef is the post a notification points at, with a content preview.
type PostRef struct {
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
}

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Actor     Author           `json:"actor"`
	Post      PostRef          `json:"post"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is returned by login and registration.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
