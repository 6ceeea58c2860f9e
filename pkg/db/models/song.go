package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/serenadecraft/serenade-backend/pkg/enums"
)

// Song is the creative brief backing a commission. Rows are never deleted,
// only referenced.
type Song struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Title          string           `gorm:"column:title;not null"`
	Style          string           `gorm:"column:style;not null"`
	Lyrics         *string          `gorm:"column:lyrics"`
	Themes         pq.StringArray   `gorm:"column:themes;type:text[];default:ARRAY[]::text[]"`
	ReferenceLinks pq.StringArray   `gorm:"column:reference_links;type:text[];default:ARRAY[]::text[]"`
	Status         enums.SongStatus `gorm:"column:status;type:text;not null;default:'commissioned'"`
	Revisions      []LyricsRevision `gorm:"foreignKey:SongID"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
