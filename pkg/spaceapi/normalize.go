package spaceapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Jeffail/gabs/v2"
)

// The backend is inconsistent about shapes: lists come bare or wrapped in an
// envelope, identities come as "id" or "_id", counters come as lists or
// numbers. Everything is folded into one shape here so that nothing above
// this package compares two identity fields.

// canonicalIDs rewrites "_id" to "id" in every object of the tree and turns
// numeric ids into strings.
func canonicalIDs(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if raw, ok := t["_id"]; ok {
			if _, has := t["id"]; !has {
				t["id"] = raw
			}
			delete(t, "_id")
		}
		if id, ok := t["id"]; ok && id != nil {
			t["id"] = idString(id)
		}
		for k, child := range t {
			t[k] = canonicalIDs(child)
		}
	case []any:
		for i := range t {
			t[i] = canonicalIDs(t[i])
		}
	}
	return v
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case map[string]any:
		if id, ok := t["id"]; ok {
			return idString(id)
		}
		if id, ok := t["_id"]; ok {
			return idString(id)
		}
	}
	return fmt.Sprint(v)
}

// listOf returns the elements of c: c itself when it is an array, the array
// under key when c is an envelope, or c as a single element otherwise.
func listOf(c *gabs.Container, key string) []*gabs.Container {
	switch t := c.Data().(type) {
	case []any:
		return c.Children()
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		if _, ok := t[key].([]any); ok {
			return c.Search(key).Children()
		}
		return []*gabs.Container{c}
	}
	return nil
}

// unwrap returns the object under key when c is an envelope around it.
func unwrap(c *gabs.Container, key string) *gabs.Container {
	if m, ok := c.Data().(map[string]any); ok {
		if _, ok := m[key].(map[string]any); ok {
			return c.Search(key)
		}
	}
	return c
}

func alias(m map[string]any, canonical string, aliases ...string) {
	if _, ok := m[canonical]; ok {
		return
	}
	for _, a := range aliases {
		if v, ok := m[a]; ok {
			m[canonical] = v
			delete(m, a)
			return
		}
	}
}

func normalizeAuthor(v any) any {
	switch t := v.(type) {
	case string:
		return map[string]any{"name": t}
	case map[string]any:
		alias(t, "name", "username", "displayName")
		alias(t, "avatar", "avatarUrl", "profilePicture")
		return t
	}
	return map[string]any{"name": "Anonymous"}
}

func normalizeTime(m map[string]any, key string) {
	switch t := m[key].(type) {
	case float64:
		sec, frac := math.Modf(t / 1000)
		m[key] = time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(time.RFC3339Nano)
	case string:
		if t == "" {
			delete(m, key)
		}
	case nil:
		delete(m, key)
	}
}

func likeIDs(items []any) []any {
	ids := make([]any, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			ids = append(ids, t)
		case map[string]any:
			if u, ok := t["user"]; ok {
				ids = append(ids, idString(u))
				continue
			}
			ids = append(ids, idString(t))
		default:
			ids = append(ids, idString(t))
		}
	}
	return ids
}

func normalizeComment(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}

	alias(m, "content", "text")
	alias(m, "author", "user")
	m["author"] = normalizeAuthor(m["author"])
	normalizeTime(m, "createdAt")
	normalizeTime(m, "updatedAt")

	return m
}

func normalizePost(m map[string]any) {
	alias(m, "author", "user")
	m["author"] = normalizeAuthor(m["author"])
	alias(m, "liked", "isLiked")
	alias(m, "bookmarked", "isBookmarked")
	alias(m, "likesCount", "likeCount")
	alias(m, "commentsCount", "commentCount")
	normalizeTime(m, "createdAt")
	delete(m, "updatedAt")

	switch likes := m["likes"].(type) {
	case []any:
		m["likes"] = likeIDs(likes)
		if _, ok := m["likesCount"]; !ok {
			m["likesCount"] = len(likes)
		}
	case float64:
		m["likesCount"] = likes
		m["likes"] = []any{}
	default:
		m["likes"] = []any{}
	}

	switch comments := m["comments"].(type) {
	case []any:
		for i := range comments {
			comments[i] = normalizeComment(comments[i])
		}
		if _, ok := m["commentsCount"]; !ok {
			m["commentsCount"] = len(comments)
		}
	case float64:
		m["commentsCount"] = comments
		m["comments"] = []any{}
	default:
		m["comments"] = []any{}
	}
}

func decode[T any](c *gabs.Container) (T, error) {
	var out T
	if err := json.Unmarshal(c.Bytes(), &out); err != nil {
		return out, &Error{Kind: ErrServer, Message: "unexpected response shape", cause: err}
	}
	return out, nil
}

func toPost(c *gabs.Container) (Post, error) {
	m, ok := c.Data().(map[string]any)
	if !ok {
		return Post{}, &Error{Kind: ErrServer, Message: fmt.Sprintf("post is %T, not an object", c.Data())}
	}

	normalizePost(m)

	post, err := decode[Post](c)
	if err != nil {
		return Post{}, err
	}
	if post.Comments == nil {
		post.Comments = []Comment{}
	}
	return post, nil
}

func toPosts(c *gabs.Container) ([]Post, error) {
	items := listOf(c, "posts")
	posts := make([]Post, 0, len(items))

	for _, item := range items {
		post, err := toPost(item)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func toPagination(c *gabs.Container) *Pagination {
	m, ok := c.Data().(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["pagination"].(map[string]any)
	if !ok {
		return nil
	}

	alias(raw, "page", "currentPage")
	alias(raw, "hasNext", "hasNextPage", "hasMore")
	alias(raw, "totalPages", "pages")
	alias(raw, "total", "totalPosts", "totalItems")

	p, err := decode[Pagination](gabs.Wrap(raw))
	if err != nil {
		return nil
	}
	if _, ok := raw["hasNext"]; !ok && p.TotalPages > 0 {
		p.HasNext = p.Page < p.TotalPages
	}
	return &p
}

func toComments(c *gabs.Container) ([]Comment, error) {
	if m, ok := c.Data().(map[string]any); ok {
		if post, ok := m["post"].(map[string]any); ok {
			c = gabs.Wrap(post)
		}
	}

	items := listOf(c, "comments")
	comments := make([]Comment, 0, len(items))

	for _, item := range items {
		normalizeComment(item.Data())
		comment, err := decode[Comment](item)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

func toLikeResult(c *gabs.Container) (LikeResult, error) {
	c = unwrap(c, "post")

	m, ok := c.Data().(map[string]any)
	if !ok {
		return LikeResult{}, &Error{Kind: ErrServer, Message: "unexpected like response"}
	}

	alias(m, "liked", "isLiked")
	alias(m, "likesCount", "likeCount")

	switch likes := m["likes"].(type) {
	case []any:
		m["likes"] = likeIDs(likes)
		if _, ok := m["likesCount"]; !ok {
			m["likesCount"] = len(likes)
		}
	case float64:
		m["likesCount"] = likes
		m["likes"] = []any{}
	}

	return decode[LikeResult](c)
}

func toBookmarks(c *gabs.Container) []string {
	if m, ok := c.Data().(map[string]any); ok {
		alias(m, "bookmarks", "bookmarkedPosts", "savedPosts")
	}

	items := listOf(c, "bookmarks")
	ids := make([]string, 0, len(items))

	for _, item := range items {
		if m, ok := item.Data().(map[string]any); ok {
			if _, isEnvelope := m["bookmarks"]; isEnvelope {
				continue
			}
		}
		ids = append(ids, idString(item.Data()))
	}

	return ids
}

func toNotifications(c *gabs.Container) ([]Notification, error) {
	items := listOf(c, "notifications")
	notifications := make([]Notification, 0, len(items))

	for _, item := range items {
		m, ok := item.Data().(map[string]any)
		if !ok {
			continue
		}

		alias(m, "actor", "sender", "fromUser")
		m["actor"] = normalizeAuthor(m["actor"])
		alias(m, "read", "isRead")
		normalizeTime(m, "createdAt")

		switch post := m["post"].(type) {
		case string:
			m["post"] = map[string]any{"id": post}
		case map[string]any:
			alias(post, "content", "preview")
		}

		n, err := decode[Notification](item)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, nil
}

func toCount(c *gabs.Container) int {
	switch t := c.Data().(type) {
	case float64:
		return int(t)
	case map[string]any:
		for _, key := range []string{"count", "unreadCount", "unread"} {
			if n, ok := t[key].(float64); ok {
				return int(n)
			}
		}
	}
	return 0
}

func toUser(c *gabs.Container) (User, error) {
	c = unwrap(c, "user")
	if m, ok := c.Data().(map[string]any); ok {
		alias(m, "name", "username", "displayName")
		alias(m, "avatar", "avatarUrl", "profilePicture")
		normalizeTime(m, "createdAt")
	}
	return decode[User](c)
}
