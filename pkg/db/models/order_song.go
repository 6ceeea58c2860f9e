package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderSong is one deliverable slot within an order: the primary rendering
// or the alternative version. Exactly one slot per order is primary; the
// secondary slot exists only when the order includes both versions.
type OrderSong struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID   `gorm:"column:order_id;type:uuid;not null;index"`
	IsPrimary      bool        `gorm:"column:is_primary;not null;default:false"`
	AudioKey       *string     `gorm:"column:audio_key"`
	LyricsOverride *string     `gorm:"column:lyrics_override"`
	IsPublic       *bool       `gorm:"column:is_public"`
	Cover          *CoverImage `gorm:"foreignKey:OrderSongID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
