package materials

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaterialChunk is one contiguous window of a material's extracted text.
// Ordinals are contiguous from 0 within a material.
type MaterialChunk struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_material_chunk_ordinal,priority:1" json:"material_id"`
	Material    *Material `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialID;references:ID" json:"-"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`

	Ordinal   int            `gorm:"column:ordinal;not null;uniqueIndex:idx_material_chunk_ordinal,priority:2" json:"ordinal"`
	Text      string         `gorm:"column:text;type:text;not null" json:"text"`
	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"-"`
	Dim       int            `gorm:"column:dim;not null" json:"dim"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (MaterialChunk) TableName() string { return "material_chunk" }

func (c *MaterialChunk) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SetVector stores v as the chunk's embedding.
func (c *MaterialChunk) SetVector(v []float32) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Embedding = datatypes.JSON(raw)
	c.Dim = len(v)
	return nil
}

// Vector decodes the stored embedding.
func (c *MaterialChunk) Vector() ([]float32, error) {
	if len(c.Embedding) == 0 {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal(c.Embedding, &v); err != nil {
		return nil, fmt.Errorf("decode embedding for chunk %s: %w", c.ID, err)
	}
	return v, nil
}
