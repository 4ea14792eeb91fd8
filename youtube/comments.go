package youtube

import (
	"context"
	"fmt"
)

// FetchComments pages through the top-level comments of videoID until
// maxComments texts are collected or the API has no further pages. maxComments
// is clamped to the client's ceiling. Comments keep the order the API returned.
func (c *Client) FetchComments(ctx context.Context, videoID string, maxComments int) ([]string, error) {
	target := min(maxComments, c.maxComments)
	comments := make([]string, 0, max(target, 0))
	pageToken := ""

	for len(comments) < target {
		remaining := target - len(comments)
		page, err := c.ListCommentThreads(ctx, videoID, min(remaining, maxPageSize), pageToken)
		if err != nil {
			return nil, fmt.Errorf("fetch comments for %s: %w", videoID, err)
		}

		for _, text := range page.Comments {
			comments = append(comments, text)
			if len(comments) >= target {
				break
			}
		}

		c.logger.Debug().
			Str("video_id", videoID).
			Int("page_items", len(page.Comments)).
			Int("collected", len(comments)).
			Msg("comment page fetched")

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return comments, nil
}
