package gemini

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinScore = 0.0
	MaxScore = 5.0

	commentSeparator = "\n---\n"
)

// ErrEmptyPrompt means no usable comment was left to rate
var ErrEmptyPrompt = errors.New("gemini: no comments to rate")

const ratePrompt = `You are an assistant that rates the overall relevance and quality of a YouTube video from its comments. Return ONLY a floating point number between 0.0 and 5.0 with at most two digits after the decimal point, and nothing else.
Here are the comments:
%s`

// scorePattern matches an integer or a decimal with up to two fractional digits
var scorePattern = regexp.MustCompile(`\d+(\.\d{1,2})?`)

// BuildPrompt keeps the first maxComments comments, drops blank ones, flattens
// line breaks and joins the rest into the rating instruction.
func BuildPrompt(comments []string, maxComments int) (string, error) {
	if maxComments >= 0 && len(comments) > maxComments {
		comments = comments[:maxComments]
	}

	kept := make([]string, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c) == "" {
			continue
		}
		c = strings.ReplaceAll(c, "\r\n", " ")
		c = strings.NewReplacer("\n", " ", "\r", " ").Replace(c)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return "", ErrEmptyPrompt
	}

	return fmt.Sprintf(ratePrompt, strings.Join(kept, commentSeparator)), nil
}

// ExtractScore reads the first number in text. Only that first number is
// considered, and it must lie in [MinScore, MaxScore].
func ExtractScore(text string) (float64, bool) {
	m := scorePattern.FindString(text)
	if m == "" {
		return 0, false
	}
	score, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	if score < MinScore || score > MaxScore {
		return 0, false
	}
	return score, true
}
