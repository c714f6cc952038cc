package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/ctxutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	as := NewAuthService(logger.Nop(), "secret", "luminar")
	userID := uuid.New()
	token, err := as.IssueAccessToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	ctx, err := as.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if rd := ctxutil.GetRequestData(ctx); rd == nil || rd.UserID != userID {
		t.Fatalf("request data: %+v", rd)
	}
}

func TestAuthServiceRejects(t *testing.T) {
	as := NewAuthService(logger.Nop(), "secret", "")
	userID := uuid.New()

	expired, _ := as.IssueAccessToken(userID, -time.Hour)
	otherKey, _ := NewAuthService(logger.Nop(), "other", "").IssueAccessToken(userID, time.Hour)
	badSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: userID.String(),
	}).SignedString([]byte("secret"))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "abc.def.ghi",
		"expired":   expired,
		"other key": otherKey,
		"bad sub":   badSub,
		"no exp":    noExp,
		"alg none":  none,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := as.SetContextFromToken(context.Background(), tok); !errors.Is(err, domainerrs.ErrUnauthorized) {
				t.Fatalf("want ErrUnauthorized got=%v", err)
			}
		})
	}
}

func TestUsageServiceDailyLimit(t *testing.T) {
	e := newEnv(t, UsageLimits{MaxAIRequestsPerDay: 2})
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		ok, err := e.usage.CanMakeAIRequest(ctx, userID)
		if err != nil || !ok {
			t.Fatalf("request %d should be allowed: ok=%v err=%v", i, ok, err)
		}
		e.usage.Record(ctx, &types.AIRequestLog{UserID: userID, RequestType: types.RequestExplanation})
	}
	if ok, _ := e.usage.CanMakeAIRequest(ctx, userID); ok {
		t.Fatalf("third request should be refused")
	}
	if ok, _ := e.usage.CanMakeAIRequest(ctx, uuid.New()); !ok {
		t.Fatalf("limit is per user")
	}

	// Entries older than a day stop counting.
	us := e.usage.(*usageService)
	us.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if ok, _ := e.usage.CanMakeAIRequest(ctx, userID); !ok {
		t.Fatalf("window should have rolled over")
	}
}

func TestUsageServiceZeroDisables(t *testing.T) {
	e := newEnv(t, UsageLimits{})
	ctx := context.Background()
	userID := uuid.New()
	for i := 0; i < 20; i++ {
		e.usage.Record(ctx, &types.AIRequestLog{UserID: userID, RequestType: types.RequestMindMap})
	}
	if ok, err := e.usage.CanMakeAIRequest(ctx, userID); err != nil || !ok {
		t.Fatalf("zero limit should disable: ok=%v err=%v", ok, err)
	}
}

func TestWorkspaceCreateValidationAndLimit(t *testing.T) {
	e := newEnv(t, UsageLimits{MaxWorkspacesPerUser: 2})
	ctx := context.Background()
	userID := uuid.New()

	if _, err := e.workspace.Create(ctx, userID, "   ", ""); !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("blank title: got=%v", err)
	}
	if _, err := e.workspace.Create(ctx, userID, strings.Repeat("t", 101), ""); !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("long title: got=%v", err)
	}
	if _, err := e.workspace.Create(ctx, userID, "ok", strings.Repeat("d", 501)); !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("long description: got=%v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := e.workspace.Create(ctx, userID, "Course", ""); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := e.workspace.Create(ctx, userID, "One too many", ""); !errors.Is(err, domainerrs.ErrLimitExceeded) {
		t.Fatalf("want ErrLimitExceeded got=%v", err)
	}
	list, err := e.workspace.List(ctx, userID)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: err=%v len=%d", err, len(list))
	}
	if _, err := e.workspace.Get(ctx, uuid.New(), list[0].ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign workspace should be not found, got=%v", err)
	}
}

func TestMaterialUploadIngestsAndDeleteCleansUp(t *testing.T) {
	e := newEnv(t, DefaultUsageLimits())
	ctx := context.Background()
	userID := uuid.New()
	ws, err := e.workspace.Create(ctx, userID, "Biology", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := e.upload(t, userID, ws.ID, "Cells are the basic unit of life.", "Mitochondria produce ATP for the cell."); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	mats, err := e.material.List(ctx, userID, ws.ID)
	if err != nil || len(mats) != 1 {
		t.Fatalf("List: err=%v len=%d", err, len(mats))
	}
	m := mats[0]
	if m.EmbeddingStatus != types.EmbeddingReady || m.ChunkCount == 0 {
		t.Fatalf("material not ingested: %+v", m)
	}
	if !strings.HasPrefix(m.StorageKey, "workspaces/"+ws.ID.String()+"/") || !strings.HasSuffix(m.StorageKey, ".docx") {
		t.Fatalf("storage key: %s", m.StorageKey)
	}
	if !strings.Contains(m.ExtractedText, "Mitochondria produce ATP") {
		t.Fatalf("extracted text: %q", m.ExtractedText)
	}
	if e.objects.len() != 1 {
		t.Fatalf("object not stored")
	}

	if err := e.upload(t, userID, ws.ID, "second"); !errors.Is(err, domainerrs.ErrLimitExceeded) {
		t.Fatalf("second upload: want ErrLimitExceeded got=%v", err)
	}
	if _, err := e.material.Delete(ctx, uuid.New(), m.ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign delete: want ErrNotFound got=%v", err)
	}
	if _, err := e.material.Delete(ctx, userID, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ids, _ := e.repos.chunks.IDsByWorkspace(ctx, nil, ws.ID); len(ids) != 0 {
		t.Fatalf("chunks remain: %d", len(ids))
	}
	if e.objects.len() != 0 {
		t.Fatalf("object remains")
	}
}

func TestMaterialUploadRejections(t *testing.T) {
	e := newEnv(t, DefaultUsageLimits())
	ctx := context.Background()
	userID := uuid.New()
	ws, _ := e.workspace.Create(ctx, userID, "Biology", "")

	_, err := e.material.Upload(ctx, userID, ws.ID, UploadFile{Name: "a.png", MimeType: "image/png", Size: 3, Reader: bytes.NewReader([]byte("png"))})
	if !errors.Is(err, domainerrs.ErrUnsupportedType) {
		t.Fatalf("png: want ErrUnsupportedType got=%v", err)
	}
	big := bytes.Repeat([]byte("x"), (1<<20)+1)
	_, err = e.material.Upload(ctx, userID, ws.ID, UploadFile{Name: "a.pdf", MimeType: MimePDF, Size: -1, Reader: bytes.NewReader(big)})
	if !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("oversize: want ErrInvalidArgument got=%v", err)
	}
	if err := e.upload(t, uuid.New(), ws.ID, "x"); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign workspace: want ErrNotFound got=%v", err)
	}
	if e.objects.len() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestMaterialUploadSurvivesIngestFailure(t *testing.T) {
	e := newEnv(t, DefaultUsageLimits())
	e.ai.embedErr = errors.New("embedding backend down")
	ctx := context.Background()
	userID := uuid.New()
	ws, _ := e.workspace.Create(ctx, userID, "Biology", "")

	if err := e.upload(t, userID, ws.ID, "Some text."); err != nil {
		t.Fatalf("upload should succeed: %v", err)
	}
	mats, _ := e.material.List(ctx, userID, ws.ID)
	if len(mats) != 1 || mats[0].EmbeddingStatus != types.EmbeddingFailed {
		t.Fatalf("material should be marked failed: %+v", mats)
	}
}

func TestMindMapAndExplanationFlow(t *testing.T) {
	e := newEnv(t, UsageLimits{MaxAIRequestsPerDay: 2})
	ctx := context.Background()
	userID := uuid.New()
	ws, _ := e.workspace.Create(ctx, userID, "Biology", "")

	if _, err := e.mindmap.Generate(ctx, userID, ws.ID); !errors.Is(err, domainerrs.ErrNoMaterials) {
		t.Fatalf("empty workspace: want ErrNoMaterials got=%v", err)
	}
	if _, err := e.mindmap.RenderPNG(ctx, userID, ws.ID, ViewRequest{}, 0); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("image without tree: want ErrNotFound got=%v", err)
	}
	if view, err := e.mindmap.View(ctx, userID, ws.ID, ViewRequest{}); err != nil || len(view.Nodes) != 0 {
		t.Fatalf("view without tree: err=%v nodes=%d", err, len(view.Nodes))
	}
	if err := e.upload(t, userID, ws.ID, "Cells are the basic unit of life."); err != nil {
		t.Fatalf("upload: %v", err)
	}
	res, err := e.mindmap.Generate(ctx, userID, ws.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Nodes) != 2 {
		t.Fatalf("nodes: want=2 got=%d", len(res.Nodes))
	}
	if _, err := e.mindmap.Generate(ctx, uuid.New(), ws.ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign generate: want ErrNotFound got=%v", err)
	}

	view, err := e.mindmap.View(ctx, userID, ws.ID, ViewRequest{})
	if err != nil || len(view.Nodes) != 2 || len(view.Edges) != 1 {
		t.Fatalf("View: err=%v nodes=%d edges=%d", err, len(view.Nodes), len(view.Edges))
	}
	root := res.Nodes[0].ID
	collapsed, _ := e.mindmap.View(ctx, userID, ws.ID, ViewRequest{Collapsed: []uuid.UUID{root}})
	if len(collapsed.Nodes) != 1 {
		t.Fatalf("collapsed root should hide children: %d", len(collapsed.Nodes))
	}
	tree, err := e.mindmap.Tree(ctx, userID, ws.ID)
	if err != nil || len(tree) != 1 || tree[0].Label != "Cells" {
		t.Fatalf("Tree: err=%v tree=%+v", err, tree)
	}

	if _, err := e.explain.Explain(ctx, userID, res.Nodes[1].ID, "interpretive-dance"); !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("bad style: want ErrInvalidArgument got=%v", err)
	}
	if _, err := e.explain.Explain(ctx, uuid.New(), res.Nodes[1].ID, "funny"); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign node: want ErrNotFound got=%v", err)
	}
	out, err := e.explain.Explain(ctx, userID, res.Nodes[1].ID, "")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if out.Style != "real-world" || len(out.Sources) == 0 {
		t.Fatalf("explanation: %+v", out)
	}

	// Two AI requests used: the generation and the explanation.
	calls := e.ai.calls
	if _, err := e.explain.Explain(ctx, userID, res.Nodes[1].ID, "funny"); !errors.Is(err, domainerrs.ErrLimitExceeded) {
		t.Fatalf("want ErrLimitExceeded got=%v", err)
	}
	if e.ai.calls != calls {
		t.Fatalf("model must not be called past the limit")
	}
}

func TestWorkspaceDeleteCascades(t *testing.T) {
	e := newEnv(t, DefaultUsageLimits())
	ctx := context.Background()
	userID := uuid.New()
	ws, _ := e.workspace.Create(ctx, userID, "Biology", "")
	if err := e.upload(t, userID, ws.ID, "Cells are the basic unit of life."); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := e.mindmap.Generate(ctx, userID, ws.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := e.workspace.Delete(ctx, uuid.New(), ws.ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign delete: want ErrNotFound got=%v", err)
	}
	if err := e.workspace.Delete(ctx, userID, ws.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if nodes, _ := e.repos.nodes.ListByWorkspace(ctx, nil, ws.ID); len(nodes) != 0 {
		t.Fatalf("nodes remain: %d", len(nodes))
	}
	if n, _ := e.repos.materials.CountByWorkspace(ctx, nil, ws.ID); n != 0 {
		t.Fatalf("materials remain: %d", n)
	}
	if e.objects.len() != 0 {
		t.Fatalf("objects remain")
	}
	if _, err := e.workspace.Get(ctx, userID, ws.ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("workspace still readable: %v", err)
	}
}

func TestTextExtractor(t *testing.T) {
	te := NewTextExtractor()
	got, err := te.Extract("n.docx", MimeDOCX+"; charset=binary", docx(t, "First  line", "Second line"))
	if err != nil {
		t.Fatalf("Extract docx: %v", err)
	}
	if got != "First line\nSecond line" {
		t.Fatalf("docx text: %q", got)
	}
	if _, err := te.Extract("n.doc", MimeMSWord, []byte{0xd0, 0xcf, 0x11, 0xe0}); !errors.Is(err, domainerrs.ErrUnsupportedType) {
		t.Fatalf("legacy doc: want ErrUnsupportedType got=%v", err)
	}
	if _, err := te.Extract("n.pdf", MimePDF, []byte("hello")); !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("fake pdf: want ErrInvalidArgument got=%v", err)
	}
	if _, err := te.Extract("n.txt", "text/plain", []byte("hello")); !errors.Is(err, domainerrs.ErrUnsupportedType) {
		t.Fatalf("text: want ErrUnsupportedType got=%v", err)
	}
}
