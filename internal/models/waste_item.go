package models

import (
	"time"

	"riy-server/internal/waste"
)

// WasteItem is a catalog entry looked up by barcode. It is read-mostly and
// never touched by the scan reward path.
type WasteItem struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Name                 string         `gorm:"not null" json:"name"`
	Category             waste.Category `gorm:"not null;index" json:"category"`
	IsDIYUsable          bool           `gorm:"default:false" json:"is_diy_usable"`
	DisposalInstructions string         `gorm:"not null" json:"disposal_instructions"`
	DIYIdeas             DIYIdeaList    `gorm:"type:jsonb" json:"diy_ideas"`
	PointsAwarded        int            `gorm:"default:5" json:"points_awarded"`
	BarcodeID            *string        `gorm:"uniqueIndex" json:"barcode_id,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}
