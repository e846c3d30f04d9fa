package platform

import (
	"strings"

	"github.com/maheshrc27/portal-social/internal/models"
)

// ComposeFeedPost builds a link post: title, summary and the canonical link.
func ComposeFeedPost(c *models.Content) (Post, error) {
	return Post{
		Message: joinNonEmpty("\n\n", c.Title, c.Summary),
		Link:    c.CanonicalLink,
	}, nil
}

// ComposeImagePost builds an image post with a caption. Links in captions are
// not clickable on Instagram but readers still copy them.
func ComposeImagePost(c *models.Content) (Post, error) {
	if strings.TrimSpace(c.ImageURL) == "" {
		return Post{}, ErrMissingImage
	}
	return Post{
		ImageURL: c.ImageURL,
		Caption:  joinNonEmpty("\n\n", c.Title, c.Summary, c.CanonicalLink),
	}, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
