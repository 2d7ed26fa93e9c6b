// Package search ranks catalog pages against a free-text query.
package search

import (
	"path"
	"sort"
	"strings"

	"github.com/feichai0017/document-search/internal/catalog"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/fuzzy"
	"github.com/feichai0017/document-search/pkg/logger"
)

const (
	// MaxResults caps the number of pages a search returns.
	MaxResults = 5
	// MaxMatches caps the best tokens reported per page.
	MaxMatches = 5
)

type Engine struct {
	limit       int
	tokenScorer fuzzy.Scorer
	logger      logger.Logger
}

type Option func(*Engine)

// WithLimit sets the result count, clamped to [1, MaxResults].
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = min(n, MaxResults)
		}
	}
}

// WithTokenScorer sets the scorer used for per-token best matches.
func WithTokenScorer(s fuzzy.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.tokenScorer = s
		}
	}
}

func NewEngine(log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		limit:       MaxResults,
		tokenScorer: fuzzy.PartialTokenSetRatio,
		logger:      log.Named("search"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScorerByName maps a configuration name to a token scorer. Unknown names
// return nil.
func ScorerByName(name string) fuzzy.Scorer {
	switch strings.ToLower(name) {
	case "", "partial_token_set", "partial_token_set_ratio":
		return fuzzy.PartialTokenSetRatio
	case "wratio":
		return fuzzy.WRatio
	case "token_set", "token_set_ratio":
		return fuzzy.TokenSetRatio
	case "ratio":
		return fuzzy.Ratio
	}
	return nil
}

type scored struct {
	idx   int
	score int
}

// Search scores every record against term and returns the best pages, highest
// score first and earliest catalog position on ties. Pending records score
// as if they had no words. A blank term returns nothing.
func (e *Engine) Search(cat *catalog.Catalog, term string) []models.SearchResult {
	if strings.TrimSpace(term) == "" || cat == nil || cat.Len() == 0 {
		return []models.SearchResult{}
	}

	ranked := make([]scored, cat.Len())
	for i := 0; i < cat.Len(); i++ {
		words := cat.At(i).Tokens()
		ranked[i] = scored{idx: i, score: fuzzy.PartialTokenSetRatio(term, strings.Join(words, " "))}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})
	if len(ranked) > e.limit {
		ranked = ranked[:e.limit]
	}

	results := make([]models.SearchResult, 0, len(ranked))
	for _, s := range ranked {
		rec := cat.At(s.idx)
		results = append(results, models.SearchResult{
			FileName:    path.Base(rec.FilePath),
			FilePath:    rec.FilePath,
			FileType:    rec.FileType,
			Notes:       rec.Notes,
			PageNumber:  rec.PageNumber,
			Score:       s.score,
			BestMatches: e.bestMatches(term, rec.Tokens()),
		})
	}

	e.logger.Debug("Search finished",
		logger.String("term", term),
		logger.Int("candidates", cat.Len()),
		logger.Int("results", len(results)),
	)
	return results
}

// bestMatches scores each distinct token once and keeps the top MaxMatches,
// ties in order of first occurrence.
func (e *Engine) bestMatches(term string, tokens []string) []models.TokenMatch {
	seen := make(map[string]struct{}, len(tokens))
	distinct := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}

	matches := make([]models.TokenMatch, 0, min(len(distinct), MaxMatches))
	for _, m := range fuzzy.Extract(term, distinct, e.tokenScorer, MaxMatches) {
		matches = append(matches, models.TokenMatch{Token: m.Choice, Score: m.Score})
	}
	return matches
}
