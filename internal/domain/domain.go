package domain

import (
	"github.com/yungbote/luminar-backend/internal/domain/materials"
	"github.com/yungbote/luminar-backend/internal/domain/mindmap"
	"github.com/yungbote/luminar-backend/internal/domain/usage"
	"github.com/yungbote/luminar-backend/internal/domain/workspaces"
)

type (
	Workspace       = workspaces.Workspace
	Material        = materials.Material
	MaterialChunk   = materials.MaterialChunk
	EmbeddingStatus = materials.EmbeddingStatus
	MindMapNode     = mindmap.MindMapNode
	AIRequestLog    = usage.AIRequestLog
	RequestType     = usage.RequestType
)

const (
	EmbeddingPending = materials.EmbeddingPending
	EmbeddingReady   = materials.EmbeddingReady
	EmbeddingFailed  = materials.EmbeddingFailed

	RequestMindMap     = usage.RequestMindMap
	RequestExplanation = usage.RequestExplanation
)

// Models lists every table owned by the service, in migration order.
func Models() []any {
	return []any{
		&Workspace{},
		&Material{},
		&MaterialChunk{},
		&MindMapNode{},
		&AIRequestLog{},
	}
}
