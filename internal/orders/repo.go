package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	"github.com/serenadecraft/serenade-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateSlots(ctx context.Context, slots []models.OrderSong) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

// FindByID loads the order with its song, slots, and covers in one query.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Song").
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Preload("Slots.Cover").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	return r.listOrders(ctx, query, params)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	return r.listOrders(ctx, query, params)
}

func (r *repository) listOrders(ctx context.Context, query *gorm.DB, params pagination.Params) (*OrderList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("Song").
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Preload("Slots.Cover").
		Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	list := &OrderList{
		Orders:     make([]OrderDTO, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for i := range rows {
		list.Orders = append(list.Orders, *FromModel(&rows[i]))
	}
	return list, nil
}

type publicSlotRecord struct {
	SlotID        uuid.UUID      `gorm:"column:slot_id"`
	Title         string         `gorm:"column:title"`
	Style         string         `gorm:"column:style"`
	Themes        pq.StringArray `gorm:"column:themes;type:text[]"`
	SlotCreatedAt time.Time      `gorm:"column:slot_created_at"`
}

// ListPublicSlots returns slots their owners flagged public on completed
// orders, newest first.
func (r *repository) ListPublicSlots(ctx context.Context, params pagination.Params) (*PublicSongList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("order_songs os").
		Select("os.id AS slot_id, s.title, s.style, s.themes, os.created_at AS slot_created_at").
		Joins("JOIN orders o ON o.id = os.order_id").
		Joins("JOIN songs s ON s.id = o.song_id").
		Where("os.is_public = ?", true).
		Where("o.status = ?", enums.OrderStatusCompleted)

	if cursor != nil {
		query = query.Where("(os.created_at < ?) OR (os.created_at = ? AND os.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []publicSlotRecord
	err = query.
		Order("os.created_at DESC").Order("os.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.SlotCreatedAt,
			ID:        last.SlotID,
		})
	}

	list := &PublicSongList{
		Songs:      make([]PublicSong, 0, len(records)),
		NextCursor: nextCursor,
	}
	for _, record := range records {
		list.Songs = append(list.Songs, PublicSong{
			SlotID:    record.SlotID,
			Title:     record.Title,
			Style:     record.Style,
			Themes:    append([]string(nil), record.Themes...),
			CreatedAt: record.SlotCreatedAt,
		})
	}
	return list, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}
