package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abcd1234", "abcd1234"},
		{"https://youtube.com/watch?v=abcd1234", "abcd1234"},
		{"https://www.youtube.com/watch?v=abcd1234&t=42s", "abcd1234"},
		{"https://youtu.be/abcd1234", "abcd1234"},
		{"https://youtu.be/abcd1234?si=share", "abcd1234"},
		{"http://www.youtube.com:443/watch?v=xyz", "xyz"},
		{"https://www.YouTube.com/watch?v=abcd1234", "abcd1234"},
		{"https://YOUTU.BE/abcd1234", "abcd1234"},
	}

	for _, tt := range tests {
		got, err := VideoID(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestVideoIDInvalid(t *testing.T) {
	urls := []string{
		"https://example.com/video",
		"https://notyoutube.com/vid",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/watch?v=",
		"https://www.youtube.com/playlist?list=PL123",
		"https://m.youtube.com/watch?v=abcd",
		"https://youtu.be/",
		"https://youtu.be",
		"not a url",
		"",
		"://bad",
	}

	for _, u := range urls {
		_, err := VideoID(u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}
