package feed

import (
	"strconv"
	"time"

	"safespace/pkg/spaceapi"
)

var placeholderContent = []string{
	"You are not alone. The community feed will be back as soon as the connection is restored.",
	"Take a slow breath in for four counts, hold for four, and breathe out for four.",
	"Small steps count. Drinking a glass of water is a win today.",
}

// placeholders stand in for the first page while the backend is unreachable.
// They are never cached.
func placeholders() []spaceapi.Post {
	now := time.Now()

	posts := make([]spaceapi.Post, 0, len(placeholderContent))
	for i, content := range placeholderContent {
		posts = append(posts, spaceapi.Post{
			ID:          "placeholder-" + strconv.Itoa(i+1),
			Content:     content,
			Author:      spaceapi.Author{Name: "SafeSpace"},
			CreatedAt:   now.Add(-time.Duration(i) * time.Hour),
			IsAnonymous: true,
			Likes:       []string{},
			Comments:    []spaceapi.Comment{},
			Placeholder: true,
		})
	}

	return posts
}
