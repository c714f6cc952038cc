package mindmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/modules/rag"
	"github.com/yungbote/luminar-backend/internal/observability"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type Style string

const (
	StyleFunny        Style = "funny"
	StyleRealWorld    Style = "real-world"
	StyleMovieAnalogy Style = "movie-analogy"
)

var styleDirectives = map[Style]string{
	StyleFunny:        "Explain this like a stand-up comedian. Use jokes and sarcasm but keep it educational.",
	StyleRealWorld:    "Explain this using a practical, everyday example that a student can relate to.",
	StyleMovieAnalogy: "Explain this concept by comparing it to a famous movie plot, character, or scene.",
}

// ParseStyle maps a request value to a Style. Empty means real-world.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StyleRealWorld, nil
	}
	if _, ok := styleDirectives[st]; !ok {
		return "", fmt.Errorf("%w: unknown explanation style %q", domainerrs.ErrInvalidArgument, s)
	}
	return st, nil
}

const (
	DefaultExplanationTopK = 3
	explanationWordLimit   = 250
)

type NodeGetter interface {
	Get(ctx context.Context, nodeID uuid.UUID) (*types.MindMapNode, error)
}

type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type ContextRetriever interface {
	TopK(ctx context.Context, workspaceID uuid.UUID, q []float32, k int) ([]rag.ScoredChunk, error)
}

type ExplainerDeps struct {
	Nodes     NodeGetter
	Embedder  QueryEmbedder
	Retriever ContextRetriever
	Model     GenerationModel
	Usage     UsageRecorder
}

type Explainer struct {
	deps ExplainerDeps
	topK int
	log  *logger.Logger
}

type Explanation struct {
	Text    string            `json:"explanation"`
	Style   Style             `json:"style"`
	NodeID  uuid.UUID         `json:"node_id"`
	Sources []rag.ScoredChunk `json:"sources"`
}

func NewExplainer(log *logger.Logger, deps ExplainerDeps, topK int) *Explainer {
	if topK <= 0 {
		topK = DefaultExplanationTopK
	}
	return &Explainer{deps: deps, topK: topK, log: log.With("service", "Explainer")}
}

// Explain looks up the node and explains it in the given style.
func (e *Explainer) Explain(ctx context.Context, nodeID uuid.UUID, style Style, userID uuid.UUID) (*Explanation, error) {
	node, err := e.deps.Nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	return e.ExplainNode(ctx, node, style, userID)
}

// ExplainNode grounds the explanation in the closest chunks of the node's
// workspace. The output is free text.
func (e *Explainer) ExplainNode(ctx context.Context, node *types.MindMapNode, style Style, userID uuid.UUID) (*Explanation, error) {
	if node == nil {
		return nil, domainerrs.ErrNotFound
	}
	if style == "" {
		style = StyleRealWorld
	}
	directive, ok := styleDirectives[style]
	if !ok {
		return nil, fmt.Errorf("%w: unknown explanation style %q", domainerrs.ErrInvalidArgument, style)
	}

	ctx, span := observability.StartSpan(ctx, "mindmap.explain",
		attribute.String("node_id", node.ID.String()),
		attribute.String("style", string(style)),
	)
	defer span.End()

	q, err := e.deps.Embedder.Embed(ctx, node.Label+": "+node.Content)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	hits, err := e.deps.Retriever.TopK(ctx, node.WorkspaceID, q, e.topK)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	user, err := render(explanationUser, explanationInput{
		Label:     node.Label,
		Content:   node.Content,
		Context:   rag.JoinContext(hits),
		Directive: directive,
		WordLimit: explanationWordLimit,
	})
	if err != nil {
		return nil, err
	}
	gen, err := e.deps.Model.Generate(ctx, explanationSystem, user)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domainerrs.ErrGenerationFailure, err)
	}

	if e.deps.Usage != nil {
		ws := node.WorkspaceID
		e.deps.Usage.Record(ctx, &types.AIRequestLog{
			UserID:       userID,
			WorkspaceID:  &ws,
			RequestType:  types.RequestExplanation,
			Model:        gen.Model,
			InputTokens:  gen.Usage.InputTokens,
			OutputTokens: gen.Usage.OutputTokens,
		})
	}
	e.log.Debug("explanation generated", "node_id", node.ID, "style", style, "sources", len(hits))

	if hits == nil {
		hits = []rag.ScoredChunk{}
	}
	return &Explanation{
		Text:    strings.TrimSpace(gen.Text),
		Style:   style,
		NodeID:  node.ID,
		Sources: hits,
	}, nil
}
