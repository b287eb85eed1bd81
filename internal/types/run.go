package types

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run describes one generation run and its outcome
type Run struct {
	ID           uuid.UUID  `json:"id"`
	ProductID    string     `json:"product_id"`
	ProductName  string     `json:"product_name"`
	Category     string     `json:"category"`
	Brand        string     `json:"brand"`
	ChannelIDs   []string   `json:"channel_ids"`
	Tone         string     `json:"tone"`
	Occasion     string     `json:"occasion"`
	VariantCount int        `json:"variant_count"`
	Direction    string     `json:"direction,omitempty"`
	Model        string     `json:"model"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
