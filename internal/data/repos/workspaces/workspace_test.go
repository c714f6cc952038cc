package workspaces

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos/testutil"
	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

func TestWorkspaceRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewWorkspaceRepo(db, testutil.Logger(t))

	owner, stranger := uuid.New(), uuid.New()
	ws, err := repo.Create(ctx, tx, &types.Workspace{UserID: owner, Title: "Chemistry"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.GetByIDForUser(ctx, tx, owner, ws.ID); err != nil {
		t.Fatalf("GetByIDForUser(owner): %v", err)
	}
	if _, err := repo.GetByIDForUser(ctx, tx, stranger, ws.ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("GetByIDForUser(stranger): want ErrNotFound got=%v", err)
	}
	if n, err := repo.CountByUser(ctx, tx, owner); err != nil || n != 1 {
		t.Fatalf("CountByUser: err=%v n=%d", err, n)
	}
	if rows, err := repo.ListByUser(ctx, tx, stranger); err != nil || len(rows) != 0 {
		t.Fatalf("ListByUser(stranger): err=%v len=%d", err, len(rows))
	}
	if err := repo.Delete(ctx, tx, ws.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, tx, ws.ID); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("GetByID after delete: want ErrNotFound got=%v", err)
	}
}
