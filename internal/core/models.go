package core

import (
	"time"

	"safespace/pkg/spaceapi"
)

// FeedSnapshot is the persisted first page of the home feed.
type FeedSnapshot struct {
	Posts   []spaceapi.Post `json:"posts"`
	HasMore bool            `json:"hasMore"`
	SavedAt time.Time       `json:"savedAt"`
}

// UserSnapshot is the persisted profile of the signed in user.
type UserSnapshot struct {
	User    spaceapi.User `json:"user"`
	SavedAt time.Time     `json:"savedAt"`
}
