package usage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestType string

const (
	RequestMindMap     RequestType = "mindmap_gen"
	RequestExplanation RequestType = "explanation"
)

// AIRequestLog records one generation call for per-user rate limiting.
type AIRequestLog struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index:idx_ai_request_user_time,priority:1" json:"user_id"`
	WorkspaceID  *uuid.UUID  `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	RequestType  RequestType `gorm:"column:request_type;not null" json:"request_type"`
	Model        string      `gorm:"column:model" json:"model"`
	InputTokens  int         `gorm:"column:input_tokens" json:"input_tokens"`
	OutputTokens int         `gorm:"column:output_tokens" json:"output_tokens"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_ai_request_user_time,priority:2" json:"created_at"`
}

func (AIRequestLog) TableName() string { return "ai_request_log" }

func (l *AIRequestLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
