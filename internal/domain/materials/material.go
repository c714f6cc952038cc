package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmbeddingStatus tracks ingestion of a material into the chunk index.
type EmbeddingStatus string

const (
	EmbeddingPending EmbeddingStatus = "pending"
	EmbeddingReady   EmbeddingStatus = "ready"
	EmbeddingFailed  EmbeddingStatus = "failed"
)

type Material struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID      uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	OriginalFileName string    `gorm:"column:original_file_name;not null" json:"original_file_name"`
	MimeType         string    `gorm:"column:mime_type;not null" json:"mime_type"`
	SizeBytes        int64     `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey       string    `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL          string    `gorm:"column:file_url" json:"file_url"`
	ExtractedText    string    `gorm:"column:extracted_text;type:text" json:"-"`

	ChunkCount      int             `gorm:"column:chunk_count;not null;default:0" json:"chunk_count"`
	EmbeddingStatus EmbeddingStatus `gorm:"column:embedding_status;not null;default:'pending'" json:"embedding_status"`
	EmbeddingError  string          `gorm:"column:embedding_error" json:"embedding_error,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Material) TableName() string { return "material" }

func (m *Material) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.EmbeddingStatus == "" {
		m.EmbeddingStatus = EmbeddingPending
	}
	return nil
}
