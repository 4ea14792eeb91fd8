// Package rater runs the rating pipeline for one video URL: cache lookup,
// video id resolution, comment fetch, scoring and cache write-through.
package rater

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/briangreenhill/ytrater/cache"
	"github.com/briangreenhill/ytrater/youtube"
)

// ScoreCache is the part of the cache the pipeline needs
type ScoreCache interface {
	Lookup(url string) (cache.Entry, bool)
	Set(url string, score float64) (cache.Entry, error)
}

type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string, maxComments int) ([]string, error)
}

// Scorer never fails; it falls back to a neutral score itself
type Scorer interface {
	Rate(ctx context.Context, comments []string) float64
}

// Resolver turns a URL into a video id
type Resolver func(rawURL string) (string, error)

type ScoreRequest struct {
	URL string `json:"url"`
}

type ScoreResult struct {
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"last_updated"`
}

type Service struct {
	cache       ScoreCache
	fetcher     CommentFetcher
	scorer      Scorer
	resolve     Resolver
	maxComments int

	group singleflight.Group
}

type Option func(*Service)

func WithResolver(r Resolver) Option {
	return func(s *Service) { s.resolve = r }
}

// New wires the pipeline. maxComments is the operator ceiling passed to the
// fetcher on every request.
func New(c ScoreCache, f CommentFetcher, sc Scorer, maxComments int, opts ...Option) *Service {
	s := &Service{
		cache:       c,
		fetcher:     f,
		scorer:      sc,
		resolve:     youtube.VideoID,
		maxComments: maxComments,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Rate returns the score for req.URL, from cache when fresh. Concurrent
// misses for the same URL share a single pipeline run.
func (s *Service) Rate(ctx context.Context, req ScoreRequest) (ScoreResult, error) {
	log := zerolog.Ctx(ctx).With().Str("url", req.URL).Logger()

	if e, ok := s.cache.Lookup(req.URL); ok {
		log.Debug().Float64("score", e.Score).Msg("cache hit")
		return ScoreResult{Score: e.Score, LastUpdated: e.LastUpdated}, nil
	}

	// the shared run must not die with whichever caller started it
	runCtx := log.WithContext(context.WithoutCancel(ctx))
	v, err, shared := s.group.Do(req.URL, func() (res any, err error) {
		// a panicking collaborator fails every waiter with an internal error
		defer func() {
			if p := recover(); p != nil {
				zerolog.Ctx(runCtx).Error().
					Interface("panic", p).
					Bytes("stack", debug.Stack()).
					Msg("rating panicked")
				res, err = nil, &Error{Kind: KindInternal, Msg: "internal error", Err: fmt.Errorf("panic: %v", p)}
			}
		}()
		return s.run(runCtx, req.URL)
	})
	if err != nil {
		return ScoreResult{}, err
	}
	if shared {
		log.Debug().Msg("joined in-flight rating")
	}
	return v.(ScoreResult), nil
}

func (s *Service) run(ctx context.Context, url string) (ScoreResult, error) {
	log := zerolog.Ctx(ctx)

	videoID, err := s.resolve(url)
	if err != nil {
		return ScoreResult{}, &Error{Kind: KindInvalidURL, Msg: "not a YouTube video URL", Err: err}
	}

	comments, err := s.fetcher.FetchComments(ctx, videoID, s.maxComments)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("fetching comments failed")
		return ScoreResult{}, &Error{Kind: KindInternal, Msg: "could not fetch comments", Err: err}
	}
	if len(comments) == 0 {
		return ScoreResult{}, &Error{Kind: KindNoComments, Msg: "no comment found"}
	}

	score := s.scorer.Rate(ctx, comments)

	e, err := s.cache.Set(url, score)
	if err != nil {
		log.Error().Err(err).Msg("writing cache failed")
		return ScoreResult{}, &Error{Kind: KindInternal, Msg: "could not store score", Err: err}
	}

	log.Info().
		Str("video_id", videoID).
		Int("comments", len(comments)).
		Float64("score", score).
		Msg("video rated")

	return ScoreResult{Score: e.Score, LastUpdated: e.LastUpdated}, nil
}
