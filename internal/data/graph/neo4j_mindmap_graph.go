package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/neo4jdb"
)

// MindMapProjector mirrors a workspace's persisted mind map into Neo4j.
// A nil client makes every call a no-op.
type MindMapProjector struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewMindMapProjector(client *neo4jdb.Client, baseLog *logger.Logger) *MindMapProjector {
	return &MindMapProjector{client: client, log: baseLog.With("service", "MindMapProjector")}
}

func (p *MindMapProjector) enabled() bool {
	return p != nil && p.client != nil && p.client.Driver != nil
}

// Replace swaps the workspace's projected tree for nodes.
func (p *MindMapProjector) Replace(ctx context.Context, workspaceID uuid.UUID, nodes []*types.MindMapNode) error {
	if !p.enabled() {
		return nil
	}
	if workspaceID == uuid.Nil {
		return fmt.Errorf("neo4j mindmap sync: missing workspaceID")
	}
	records, rels := mindMapRecords(nodes, time.Now().UTC())

	session := p.client.WriteSession(ctx)
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT mindmap_node_id_unique IF NOT EXISTS FOR (n:MindMapNode) REQUIRE n.id IS UNIQUE`, nil); err != nil {
		p.log.Warn("neo4j schema init failed (continuing)", "error", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:MindMapNode {workspace_id: $workspace_id})
DETACH DELETE n`, map[string]any{"workspace_id": workspaceID.String()})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(records) > 0 {
			res, err = tx.Run(ctx, `
UNWIND $nodes AS row
CREATE (n:MindMapNode {id: row.id})
SET n.workspace_id = row.workspace_id,
    n.generation_id = row.generation_id,
    n.label = row.label,
    n.depth = row.depth,
    n.sort_index = row.sort_index,
    n.synced_at = row.synced_at`, map[string]any{"nodes": records})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if len(rels) > 0 {
			res, err = tx.Run(ctx, `
UNWIND $rels AS rel
MATCH (c:MindMapNode {id: rel.child_id})
MATCH (p:MindMapNode {id: rel.parent_id})
MERGE (c)-[:CHILD_OF]->(p)`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j mindmap sync: %w", err)
	}
	p.log.Debug("mind map projected", "workspace_id", workspaceID, "nodes", len(records), "edges", len(rels))
	return nil
}

// Delete removes the workspace's projected tree.
func (p *MindMapProjector) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	return p.Replace(ctx, workspaceID, nil)
}

func mindMapRecords(nodes []*types.MindMapNode, now time.Time) (records, rels []map[string]any) {
	syncedAt := now.Format(time.RFC3339Nano)
	records = make([]map[string]any, 0, len(nodes))
	rels = make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || n.ID == uuid.Nil {
			continue
		}
		records = append(records, map[string]any{
			"id":            n.ID.String(),
			"workspace_id":  n.WorkspaceID.String(),
			"generation_id": n.GenerationID.String(),
			"label":         n.Label,
			"depth":         int64(n.Depth),
			"sort_index":    int64(n.Order),
			"synced_at":     syncedAt,
		})
		if n.ParentID != nil && *n.ParentID != uuid.Nil {
			rels = append(rels, map[string]any{
				"child_id":  n.ID.String(),
				"parent_id": n.ParentID.String(),
			})
		}
	}
	return records, rels
}
