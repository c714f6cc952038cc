package mindmap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	"github.com/yungbote/luminar-backend/internal/data/repos/testutil"
	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/pkg/keylock"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/openai"
)

const xyz = `{"label":"X","content":"root","children":[{"label":"Y","content":"first"},{"label":"Z","content":"second"}]}`

type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (m *scriptedModel) Generate(_ context.Context, system, user string) (openai.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, user)
	if m.err != nil {
		return openai.Generation{}, m.err
	}
	text := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return openai.Generation{Text: text, Model: "test-model", Usage: openai.Usage{InputTokens: 10, OutputTokens: 5}}, nil
}

type usageLog struct {
	mu      sync.Mutex
	entries []*types.AIRequestLog
}

func (u *usageLog) Record(_ context.Context, e *types.AIRequestLog) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entries = append(u.entries, e)
}

type fakeProjector struct {
	calls int
	err   error
}

func (p *fakeProjector) Replace(context.Context, uuid.UUID, []*types.MindMapNode) error {
	p.calls++
	return p.err
}

type genFixture struct {
	db    *gorm.DB
	ws    *types.Workspace
	store *Store
	model *scriptedModel
	usage *usageLog
	proj  *fakeProjector
	gen   *Generator
}

func newGenFixture(t *testing.T, replies ...string) *genFixture {
	t.Helper()
	db := testutil.DB(t)
	ws := testutil.SeedWorkspace(t, context.Background(), db, uuid.New())
	f := &genFixture{
		db:    db,
		ws:    ws,
		store: NewStore(logger.Nop(), repos.NewMindMapNodeRepo(db, logger.Nop())),
		model: &scriptedModel{replies: replies},
		usage: &usageLog{},
		proj:  &fakeProjector{},
	}
	f.gen = NewGenerator(logger.Nop(), GeneratorDeps{
		Materials: repos.NewMaterialRepo(db, logger.Nop()),
		Store:     f.store,
		Model:     f.model,
		Lock:      keylock.New(),
		Projector: f.proj,
		Usage:     f.usage,
	}, GeneratorConfig{MaxDepth: DefaultMaxDepth})
	return f
}

func (f *genFixture) shape(t *testing.T) []string {
	t.Helper()
	rows, err := f.store.ListByWorkspace(context.Background(), f.ws.ID)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, strings.Join([]string{r.Label, string(rune('0' + r.Depth)), string(rune('0' + r.Order))}, "/"))
	}
	return out
}

func TestGeneratePersistsTree(t *testing.T) {
	f := newGenFixture(t, xyz)
	ctx := context.Background()
	testutil.SeedMaterial(t, ctx, f.db, f.ws.ID, "bio.pdf")
	userID := uuid.New()

	res, err := f.gen.Generate(ctx, f.ws.ID, userID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Tree.Label != "X" || len(res.Nodes) != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}

	rows, err := f.store.ListByWorkspace(ctx, f.ws.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListByWorkspace: err=%v len=%d", err, len(rows))
	}
	x, y, z := rows[0], rows[1], rows[2]
	if x.Label != "X" || x.Depth != 0 || x.Order != 0 || x.ParentID != nil {
		t.Fatalf("X: %+v", x)
	}
	if y.Label != "Y" || y.Depth != 1 || y.Order != 0 || y.ParentID == nil || *y.ParentID != x.ID {
		t.Fatalf("Y: %+v", y)
	}
	if z.Label != "Z" || z.Depth != 1 || z.Order != 1 || z.ParentID == nil || *z.ParentID != x.ID {
		t.Fatalf("Z: %+v", z)
	}
	for _, r := range rows {
		if r.GenerationID != res.GenerationID {
			t.Fatalf("mixed generations: %v vs %v", r.GenerationID, res.GenerationID)
		}
	}

	if len(f.usage.entries) != 1 || f.usage.entries[0].RequestType != types.RequestMindMap || f.usage.entries[0].UserID != userID {
		t.Fatalf("usage not recorded: %+v", f.usage.entries)
	}
	if f.proj.calls != 1 {
		t.Fatalf("projector calls: want=1 got=%d", f.proj.calls)
	}
	if !strings.Contains(f.model.prompts[0], "text of bio.pdf") {
		t.Fatalf("prompt missing material text: %q", f.model.prompts[0])
	}
}

func TestGenerateRegenerationKeepsShape(t *testing.T) {
	f := newGenFixture(t, xyz)
	ctx := context.Background()
	testutil.SeedMaterial(t, ctx, f.db, f.ws.ID, "bio.pdf")

	first, err := f.gen.Generate(ctx, f.ws.ID, uuid.New())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	shape1 := f.shape(t)
	second, err := f.gen.Generate(ctx, f.ws.ID, uuid.New())
	if err != nil {
		t.Fatalf("re-Generate: %v", err)
	}
	shape2 := f.shape(t)

	if strings.Join(shape1, ",") != strings.Join(shape2, ",") {
		t.Fatalf("shape changed: %v vs %v", shape1, shape2)
	}
	if first.GenerationID == second.GenerationID || first.Nodes[0].ID == second.Nodes[0].ID {
		t.Fatalf("regeneration should mint new ids")
	}
	if len(shape2) != 3 {
		t.Fatalf("old rows left behind: %v", shape2)
	}
}

func TestGenerateMalformedKeepsOldTree(t *testing.T) {
	f := newGenFixture(t, xyz, "Sorry, I can't help with that.")
	ctx := context.Background()
	testutil.SeedMaterial(t, ctx, f.db, f.ws.ID, "bio.pdf")

	if _, err := f.gen.Generate(ctx, f.ws.ID, uuid.New()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	before := f.shape(t)

	_, err := f.gen.Generate(ctx, f.ws.ID, uuid.New())
	if !errors.Is(err, domainerrs.ErrMalformedResponse) {
		t.Fatalf("want ErrMalformedResponse got=%v", err)
	}
	var gerr *GenerationError
	if !errors.As(err, &gerr) || gerr.Stage != StageParsingResponse {
		t.Fatalf("want parsing stage, got=%v", err)
	}
	if after := f.shape(t); strings.Join(after, ",") != strings.Join(before, ",") {
		t.Fatalf("tree changed after malformed response: %v -> %v", before, after)
	}
	// Usage is still logged; the tokens were spent.
	if len(f.usage.entries) != 2 {
		t.Fatalf("usage entries: want=2 got=%d", len(f.usage.entries))
	}
}

func TestGenerateInvalidStructureStage(t *testing.T) {
	f := newGenFixture(t, `{"label":"X","children":[{"content":"no label"}]}`)
	ctx := context.Background()
	testutil.SeedMaterial(t, ctx, f.db, f.ws.ID, "bio.pdf")

	_, err := f.gen.Generate(ctx, f.ws.ID, uuid.New())
	var gerr *GenerationError
	if !errors.As(err, &gerr) || gerr.Stage != StageValidatingStructure || !errors.Is(err, domainerrs.ErrMalformedResponse) {
		t.Fatalf("want validating_structure malformed error, got=%v", err)
	}
}

func TestGenerateNoMaterials(t *testing.T) {
	f := newGenFixture(t, xyz)
	_, err := f.gen.Generate(context.Background(), f.ws.ID, uuid.New())
	if !errors.Is(err, domainerrs.ErrNoMaterials) {
		t.Fatalf("want ErrNoMaterials got=%v", err)
	}
	if len(f.model.prompts) != 0 {
		t.Fatalf("model should not be called")
	}
}

func TestGenerateModelFailure(t *testing.T) {
	f := newGenFixture(t, xyz)
	f.model.err = errors.New("503 from provider")
	testutil.SeedMaterial(t, context.Background(), f.db, f.ws.ID, "bio.pdf")

	_, err := f.gen.Generate(context.Background(), f.ws.ID, uuid.New())
	var gerr *GenerationError
	if !errors.Is(err, domainerrs.ErrGenerationFailure) || !errors.As(err, &gerr) || gerr.Stage != StagePromptingModel {
		t.Fatalf("want prompting_model generation failure, got=%v", err)
	}
}

func TestGenerateProjectionFailureIsIgnored(t *testing.T) {
	f := newGenFixture(t, xyz)
	f.proj.err = errors.New("neo4j unavailable")
	testutil.SeedMaterial(t, context.Background(), f.db, f.ws.ID, "bio.pdf")

	if _, err := f.gen.Generate(context.Background(), f.ws.ID, uuid.New()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGeneratePrunesDeepTrees(t *testing.T) {
	deep := `{"label":"1","children":[{"label":"2","children":[{"label":"3","children":[{"label":"4","children":[{"label":"5"}]}]}]}]}`
	f := newGenFixture(t, deep)
	testutil.SeedMaterial(t, context.Background(), f.db, f.ws.ID, "bio.pdf")

	res, err := f.gen.Generate(context.Background(), f.ws.ID, uuid.New())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Pruned != 1 || len(res.Nodes) != 4 || res.Tree.Depth() != 4 {
		t.Fatalf("prune: pruned=%d nodes=%d depth=%d", res.Pruned, len(res.Nodes), res.Tree.Depth())
	}
}

func TestGenerateTruncatesInput(t *testing.T) {
	f := newGenFixture(t, xyz)
	f.gen.cfg.MaxInputChars = 12
	ctx := context.Background()
	testutil.SeedMaterial(t, ctx, f.db, f.ws.ID, "a.pdf")

	if _, err := f.gen.Generate(ctx, f.ws.ID, uuid.New()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasSuffix(f.model.prompts[0], "text of a.pd") {
		t.Fatalf("input not truncated: %q", f.model.prompts[0])
	}
}
