package rag

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// EmbeddingModel is the external embedding port.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type EmbedderConfig struct {
	// Dim is the expected vector length; 0 disables the check.
	Dim         int
	Concurrency int
	// RatePerSec throttles outbound calls; 0 means unlimited.
	RatePerSec float64
}

type Embedder struct {
	model   EmbeddingModel
	cfg     EmbedderConfig
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewEmbedder(log *logger.Logger, model EmbeddingModel, cfg EmbedderConfig) *Embedder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Embedder{
		model:   model,
		cfg:     cfg,
		limiter: limiter,
		log:     log.With("service", "Embedder"),
	}
}

func (e *Embedder) Dim() int { return e.cfg.Dim }

// Embed makes exactly one model call for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domainerrs.ErrEmbeddingFailure, err)
		}
	}
	vecs, err := e.model.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrs.ErrEmbeddingFailure, err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("%w: model returned %d vectors", domainerrs.ErrEmbeddingFailure, len(vecs))
	}
	if e.cfg.Dim > 0 && len(vecs[0]) != e.cfg.Dim {
		return nil, fmt.Errorf("%w: dimension mismatch expected=%d got=%d", domainerrs.ErrEmbeddingFailure, e.cfg.Dim, len(vecs[0]))
	}
	return vecs[0], nil
}

// EmbedAll embeds every text concurrently. out[i] belongs to texts[i]; the
// first failure cancels the remaining calls.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, t := range texts {
		g.Go(func() error {
			v, err := e.Embed(gctx, t)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Warn("bulk embedding failed", "texts", len(texts), "error", err)
		return nil, err
	}
	return out, nil
}
