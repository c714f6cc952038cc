package mindmap

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MindMapNode is one persisted node of a workspace's mind map. All rows of
// a workspace share a GenerationID; ParentID is nil for roots.
type MindMapNode struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_mindmap_node_ws_order,priority:1" json:"workspace_id"`
	GenerationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"generation_id"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`

	Label   string `gorm:"column:label;not null" json:"label"`
	Content string `gorm:"column:content;type:text" json:"content"`
	Depth   int    `gorm:"column:depth;not null;index:idx_mindmap_node_ws_order,priority:2" json:"depth"`
	Order   int    `gorm:"column:sort_index;not null;index:idx_mindmap_node_ws_order,priority:3" json:"order"`
}

func (MindMapNode) TableName() string { return "mindmap_node" }

func (n *MindMapNode) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
