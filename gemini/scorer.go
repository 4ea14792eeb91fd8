// Package gemini rates a video from its comments with a Gemini model.
package gemini

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultModel = "gemini-2.5-flash-lite"

	// DefaultScore is returned whenever no score could be obtained
	DefaultScore = 2.5

	DefaultMaxComments = 50
	DefaultTimeout     = 30 * time.Second
)

// ErrMissingAPIKey is returned by NewScorer when no API key is configured
var ErrMissingAPIKey = errors.New("gemini: api key required")

// Generator sends a prompt to a model and returns its text answer
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

type Scorer struct {
	apiKey      string
	model       string
	gen         Generator
	maxComments int
	timeout     time.Duration
	logger      zerolog.Logger
}

type Option func(*Scorer)

// WithModel overrides DefaultModel; an empty name keeps the default
func WithModel(model string) Option {
	return func(s *Scorer) {
		if model != "" {
			s.model = model
		}
	}
}

func WithGenerator(g Generator) Option {
	return func(s *Scorer) { s.gen = g }
}

func WithMaxComments(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxComments = n
		}
	}
}

// WithTimeout bounds a single model call; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) { s.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer builds a Scorer. Without WithGenerator it talks to the Gemini API
// through the genai SDK.
func NewScorer(ctx context.Context, apiKey string, opts ...Option) (*Scorer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	s := &Scorer{
		apiKey:      apiKey,
		model:       DefaultModel,
		maxComments: DefaultMaxComments,
		timeout:     DefaultTimeout,
		logger:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.gen == nil {
		gen, err := NewGenAIGenerator(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		s.gen = gen
	}
	return s, nil
}

func (s *Scorer) Model() string {
	return s.model
}

// Rate returns a score in [MinScore, MaxScore] for the comments. It never
// fails: any problem yields DefaultScore.
func (s *Scorer) Rate(ctx context.Context, comments []string) float64 {
	prompt, err := BuildPrompt(comments, s.maxComments)
	if err != nil {
		s.logger.Warn().Err(err).Msg("nothing to rate, using default score")
		return DefaultScore
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.gen.GenerateText(ctx, s.model, prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("model", s.model).Dur("took", time.Since(start)).Msg("gemini request failed, using default score")
		return DefaultScore
	}

	score, ok := ExtractScore(text)
	if !ok {
		s.logger.Warn().Str("model", s.model).Str("output", truncate(text, 200)).Msg("can't parse gemini output, using default score")
		return DefaultScore
	}

	s.logger.Debug().Str("model", s.model).Float64("score", score).Int("comments", len(comments)).Dur("took", time.Since(start)).Msg("comments rated")
	return score
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
