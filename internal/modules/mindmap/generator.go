package mindmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/observability"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/openai"
)

const (
	DefaultMaxInputChars = 30000
	DefaultMaxDepth      = 4
)

// Stage names the step of a generation that failed.
type Stage string

const (
	StageCollectingMaterials Stage = "collecting_materials"
	StagePromptingModel      Stage = "prompting_model"
	StageParsingResponse     Stage = "parsing_response"
	StageValidatingStructure Stage = "validating_structure"
	StagePersistingTree      Stage = "persisting_tree"
	StageDone                Stage = "done"
)

type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("mindmap generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func failAt(stage Stage, err error) error {
	return &GenerationError{Stage: stage, Err: err}
}

type MaterialSource interface {
	ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Material, error)
}

type GenerationModel interface {
	Generate(ctx context.Context, system string, user string) (openai.Generation, error)
}

// Locker serialises work per key. Both the in-process keylock.Map and the
// Redis locker satisfy it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Projector mirrors a persisted tree elsewhere. Failures never fail a
// generation.
type Projector interface {
	Replace(ctx context.Context, workspaceID uuid.UUID, nodes []*types.MindMapNode) error
}

// UsageRecorder logs model usage. Implementations swallow their own errors.
type UsageRecorder interface {
	Record(ctx context.Context, entry *types.AIRequestLog)
}

type GeneratorDeps struct {
	Materials MaterialSource
	Store     *Store
	Model     GenerationModel
	Lock      Locker
	Projector Projector
	Usage     UsageRecorder
}

type GeneratorConfig struct {
	MaxInputChars int
	// MaxDepth caps stored levels; 0 keeps whatever the model returns.
	MaxDepth int
}

type Generator struct {
	deps GeneratorDeps
	cfg  GeneratorConfig
	log  *logger.Logger
}

type Result struct {
	GenerationID uuid.UUID            `json:"generation_id"`
	Tree         *TreeNode            `json:"tree"`
	Nodes        []*types.MindMapNode `json:"nodes"`
	Usage        openai.Usage         `json:"usage"`
	Pruned       int                  `json:"pruned,omitempty"`
}

func NewGenerator(log *logger.Logger, deps GeneratorDeps, cfg GeneratorConfig) *Generator {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Generator{deps: deps, cfg: cfg, log: log.With("service", "MindMapGenerator")}
}

// Generate builds a fresh mind map from every material in the workspace and
// replaces the stored one. Nothing is deleted unless the response parses.
func (g *Generator) Generate(ctx context.Context, workspaceID, userID uuid.UUID) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "mindmap.generate", attribute.String("workspace_id", workspaceID.String()))
	defer span.End()

	stage := StageCollectingMaterials
	res, err := g.run(ctx, workspaceID, userID, &stage)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("stage", string(stage)))
		g.log.Warn("mind map generation failed", "workspace_id", workspaceID, "stage", stage, "error", err)
		return nil, failAt(stage, err)
	}
	span.SetAttributes(attribute.Int("nodes", len(res.Nodes)))
	return res, nil
}

func (g *Generator) run(ctx context.Context, workspaceID, userID uuid.UUID, stage *Stage) (*Result, error) {
	*stage = StageCollectingMaterials
	input, err := g.collect(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	*stage = StagePromptingModel
	user, err := render(mindMapUser, struct{ Materials string }{input})
	if err != nil {
		return nil, err
	}
	gen, err := g.deps.Model.Generate(ctx, mindMapSystem, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrs.ErrGenerationFailure, err)
	}
	g.recordUsage(ctx, workspaceID, userID, gen)

	*stage = StageParsingResponse
	wire, err := decodeResponse(gen.Text)
	if err != nil {
		return nil, err
	}

	*stage = StageValidatingStructure
	tree, err := toTree(wire, "root")
	if err != nil {
		return nil, err
	}
	pruned := prune(tree, g.cfg.MaxDepth)
	if pruned > 0 {
		g.log.Warn("mind map deeper than allowed; pruned", "workspace_id", workspaceID, "max_depth", g.cfg.MaxDepth, "pruned_nodes", pruned)
	}

	*stage = StagePersistingTree
	unlock, err := g.lock(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	rows, err := g.deps.Store.ReplaceAll(ctx, workspaceID, tree)
	if err != nil {
		return nil, err
	}
	if g.deps.Projector != nil {
		if perr := g.deps.Projector.Replace(ctx, workspaceID, rows); perr != nil {
			g.log.Warn("mind map projection failed (continuing)", "workspace_id", workspaceID, "error", perr)
		}
	}

	*stage = StageDone
	var genID uuid.UUID
	if len(rows) > 0 {
		genID = rows[0].GenerationID
	}
	g.log.Info("mind map generated", "workspace_id", workspaceID, "nodes", len(rows), "depth", tree.Depth())
	return &Result{
		GenerationID: genID,
		Tree:         tree,
		Nodes:        rows,
		Usage:        gen.Usage,
		Pruned:       pruned,
	}, nil
}

func (g *Generator) collect(ctx context.Context, workspaceID uuid.UUID) (string, error) {
	mats, err := g.deps.Materials.ListByWorkspace(ctx, nil, workspaceID)
	if err != nil {
		return "", err
	}
	if len(mats) == 0 {
		return "", domainerrs.ErrNoMaterials
	}
	texts := make([]string, 0, len(mats))
	for _, m := range mats {
		texts = append(texts, m.ExtractedText)
	}
	return truncateRunes(strings.Join(texts, "\n\n"), g.cfg.MaxInputChars), nil
}

func (g *Generator) lock(ctx context.Context, workspaceID uuid.UUID) (func(), error) {
	if g.deps.Lock == nil {
		return func() {}, nil
	}
	return g.deps.Lock.Lock(ctx, "mindmap:"+workspaceID.String())
}

func (g *Generator) recordUsage(ctx context.Context, workspaceID, userID uuid.UUID, gen openai.Generation) {
	if g.deps.Usage == nil {
		return
	}
	ws := workspaceID
	g.deps.Usage.Record(ctx, &types.AIRequestLog{
		UserID:       userID,
		WorkspaceID:  &ws,
		RequestType:  types.RequestMindMap,
		Model:        gen.Model,
		InputTokens:  gen.Usage.InputTokens,
		OutputTokens: gen.Usage.OutputTokens,
	})
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
