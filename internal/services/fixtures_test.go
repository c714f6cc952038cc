package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	"github.com/yungbote/luminar-backend/internal/data/repos/testutil"
	"github.com/yungbote/luminar-backend/internal/modules/mindmap"
	"github.com/yungbote/luminar-backend/internal/modules/rag"
	"github.com/yungbote/luminar-backend/internal/pkg/keylock"
	"github.com/yungbote/luminar-backend/internal/platform/gcp"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/openai"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (m *memObjects) Upload(_ context.Context, key, _ string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *memObjects) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) PublicURL(key string) string { return "/objects/" + key }
func (m *memObjects) Close() error                { return nil }

func (m *memObjects) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// fakeAI embeds by text length and replies with a fixed generation.
type fakeAI struct {
	reply    string
	embedErr error
	calls    int
}

func (f *fakeAI) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeAI) Generate(context.Context, string, string) (openai.Generation, error) {
	f.calls++
	return openai.Generation{Text: f.reply, Model: "fake", Usage: openai.Usage{InputTokens: 3, OutputTokens: 2}}, nil
}

type env struct {
	db        *gorm.DB
	log       *logger.Logger
	ai        *fakeAI
	objects   *memObjects
	limits    UsageLimits
	repos     envRepos
	usage     UsageService
	ingestor  *rag.Ingestor
	workspace WorkspaceService
	material  MaterialService
	mindmap   MindMapService
	explain   ExplanationService
}

type envRepos struct {
	workspaces repos.WorkspaceRepo
	materials  repos.MaterialRepo
	chunks     repos.MaterialChunkRepo
	nodes      repos.MindMapNodeRepo
	requests   repos.AIRequestLogRepo
}

func newEnv(t *testing.T, limits UsageLimits) *env {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Nop()
	e := &env{
		db:      db,
		log:     log,
		ai:      &fakeAI{reply: `{"label":"Cells","content":"Units of life","children":[{"label":"Mitochondria"}]}`},
		objects: newMemObjects(),
		limits:  limits,
		repos: envRepos{
			workspaces: repos.NewWorkspaceRepo(db, log),
			materials:  repos.NewMaterialRepo(db, log),
			chunks:     repos.NewMaterialChunkRepo(db, log),
			nodes:      repos.NewMindMapNodeRepo(db, log),
			requests:   repos.NewAIRequestLogRepo(db, log),
		},
	}
	r := e.repos
	e.usage = NewUsageService(log, limits, r.workspaces, r.materials, r.requests)
	embedder := rag.NewEmbedder(log, e.ai, rag.EmbedderConfig{Dim: 2})
	e.ingestor = rag.NewIngestor(log, db, r.chunks, r.materials, embedder, nil, rag.IngestConfig{ChunkSize: 50, ChunkOverlap: 10})
	store := mindmap.NewStore(log, r.nodes)
	gen := mindmap.NewGenerator(log, mindmap.GeneratorDeps{
		Materials: r.materials,
		Store:     store,
		Model:     e.ai,
		Lock:      keylock.New(),
		Usage:     e.usage,
	}, mindmap.GeneratorConfig{MaxDepth: mindmap.DefaultMaxDepth})
	explainer := mindmap.NewExplainer(log, mindmap.ExplainerDeps{
		Nodes:     store,
		Embedder:  embedder,
		Retriever: rag.NewRetriever(log, r.chunks, nil, 3),
		Model:     e.ai,
		Usage:     e.usage,
	}, 3)

	e.workspace = NewWorkspaceService(db, log, r.workspaces, r.materials, r.chunks, r.nodes, e.usage, e.ingestor, e.objects, nil)
	e.material = NewMaterialService(db, log, r.workspaces, r.materials, e.usage, NewTextExtractor(), e.objects, e.ingestor, 1<<20)
	e.mindmap = NewMindMapService(log, r.workspaces, store, gen, e.usage)
	e.explain = NewExplanationService(log, r.workspaces, store, explainer, e.usage)
	return e
}

// docx builds a minimal Word document with one paragraph per entry.
func docx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func (e *env) upload(t *testing.T, userID, wsID uuid.UUID, paragraphs ...string) error {
	t.Helper()
	data := docx(t, paragraphs...)
	_, err := e.material.Upload(context.Background(), userID, wsID, UploadFile{
		Name:     "notes.docx",
		MimeType: MimeDOCX,
		Size:     int64(len(data)),
		Reader:   bytes.NewReader(data),
	})
	return err
}
