package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/serenadecraft/serenade-backend/pkg/enums"
)

// LyricsRevision records one round of the customer review cycle. Rows are
// append-only per round; only the status and feedback of the open round
// mutate.
type LyricsRevision struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SongID    uuid.UUID                  `gorm:"column:song_id;type:uuid;not null;index"`
	Status    enums.LyricsRevisionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Feedback  *string                    `gorm:"column:feedback"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
