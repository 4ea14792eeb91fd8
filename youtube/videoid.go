package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a URL does not point at a YouTube video
var ErrInvalidURL = errors.New("invalid YouTube URL")

// VideoID extracts the video id from a youtube.com/watch or youtu.be URL
func VideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	// hosts are case-insensitive
	switch strings.ToLower(u.Hostname()) {
	case "youtube.com", "www.youtube.com":
		if u.Path == "/watch" {
			if v := u.Query().Get("v"); v != "" {
				return v, nil
			}
		}
	case "youtu.be":
		if id := strings.TrimLeft(u.Path, "/"); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
}
