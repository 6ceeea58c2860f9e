package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/pkg/config"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
)

// SlotAssetDTO reports the deliverable state of one slot after a change.
type SlotAssetDTO struct {
	SlotID    uuid.UUID `json:"slot_id"`
	OrderID   uuid.UUID `json:"order_id"`
	IsPrimary bool      `json:"is_primary"`
	HasAudio  bool      `json:"has_audio"`
	HasCover  bool      `json:"has_cover"`
}

// Service manages deliverable uploads, deletions, and slot maintenance.
// Role checks happen at the transport layer; entitlement checks happen here.
type Service interface {
	UploadAudio(ctx context.Context, orderID, slotID uuid.UUID, filename, contentType string, body io.Reader) (*SlotAssetDTO, error)
	DeleteAudio(ctx context.Context, orderID, slotID uuid.UUID) error
	UploadCover(ctx context.Context, orderID, slotID uuid.UUID, filename, contentType string, body io.Reader) (*SlotAssetDTO, error)
	DeleteCover(ctx context.Context, orderID, slotID uuid.UUID) error
	CreateSecondarySlot(ctx context.Context, orderID uuid.UUID) (*SlotAssetDTO, error)
	SetVisibility(ctx context.Context, userID, orderID, slotID uuid.UUID, public bool) (*SlotAssetDTO, error)
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type objectStore interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, body io.Reader) error
	DeleteObject(ctx context.Context, bucket, object string) error
}

type cleanupQueue interface {
	ObjectOrphaned(ctx context.Context, bucket, object string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type changeHinter interface {
	TableChanged(ctx context.Context, table string, id uuid.UUID, op string)
}

type service struct {
	tx      txRunner
	repo    Repository
	orders  orderFinder
	store   objectStore
	cleanup cleanupQueue
	hints   changeHinter
	gcsCfg  config.GCSConfig
}

// ServiceParams bundles the assets service dependencies.
type ServiceParams struct {
	TxRunner txRunner
	Repo     Repository
	Orders   orderFinder
	Store    objectStore
	Cleanup  cleanupQueue
	Hints    changeHinter
	GCS      config.GCSConfig
}

// NewService constructs the assets service. Cleanup and Hints may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("assets repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order finder is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	return &service{
		tx:      params.TxRunner,
		repo:    params.Repo,
		orders:  params.Orders,
		store:   params.Store,
		cleanup: params.Cleanup,
		hints:   params.Hints,
		gcsCfg:  params.GCS,
	}, nil
}

// UploadAudio stores the object first and points the row at it second. If
// the row write fails the fresh object is handed to the cleanup worker, so
// the database never references an object that was not stored.
func (s *service) UploadAudio(ctx context.Context, orderID, slotID uuid.UUID, filename, contentType string, body io.Reader) (*SlotAssetDTO, error) {
	order, slot, err := s.loadOrderSlot(ctx, orderID, slotID)
	if err != nil {
		return nil, err
	}

	key := objectKey(order.ID, slot, "audio", filename)
	if err := s.store.UploadObject(ctx, s.gcsCfg.AudioBucket, key, contentType, body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload audio object")
	}

	previous := slot.AudioKey
	if err := s.repo.UpdateSlotAudio(ctx, slot.ID, &key); err != nil {
		s.orphan(ctx, s.gcsCfg.AudioBucket, key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audio upload")
	}
	if previous != nil && *previous != key {
		s.orphan(ctx, s.gcsCfg.AudioBucket, *previous)
	}

	slot.AudioKey = &key
	s.hintSlot(ctx, slot.ID)
	return slotDTO(order.ID, slot), nil
}

// DeleteAudio clears the row first and deletes the object second. A failed
// object delete is handed to the cleanup worker instead of failing the call.
func (s *service) DeleteAudio(ctx context.Context, orderID, slotID uuid.UUID) error {
	_, slot, err := s.loadOrderSlot(ctx, orderID, slotID)
	if err != nil {
		return err
	}
	if slot.AudioKey == nil || *slot.AudioKey == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, "slot has no audio")
	}

	key := *slot.AudioKey
	if err := s.repo.UpdateSlotAudio(ctx, slot.ID, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear audio reference")
	}

	if err := s.store.DeleteObject(ctx, s.gcsCfg.AudioBucket, key); err != nil {
		s.orphan(ctx, s.gcsCfg.AudioBucket, key)
	}

	s.hintSlot(ctx, slot.ID)
	return nil
}

// UploadCover enforces the purchase entitlements before touching storage:
// the primary slot needs the cover add-on, the secondary slot needs the
// second-cover add-on.
func (s *service) UploadCover(ctx context.Context, orderID, slotID uuid.UUID, filename, contentType string, body io.Reader) (*SlotAssetDTO, error) {
	order, slot, err := s.loadOrderSlot(ctx, orderID, slotID)
	if err != nil {
		return nil, err
	}
	if err := coverEntitlement(order, slot); err != nil {
		return nil, err
	}

	key := objectKey(order.ID, slot, "cover", filename)
	if err := s.store.UploadObject(ctx, s.gcsCfg.CoverBucket, key, contentType, body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload cover object")
	}

	var previousKey string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindCoverBySlot(ctx, slot.ID)
		switch {
		case err == nil:
			previousKey = existing.ObjectKey
			if err := repo.DeleteCover(ctx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		_, err = repo.CreateCover(ctx, &models.CoverImage{
			OrderSongID: slot.ID,
			SongID:      order.SongID,
			ObjectKey:   key,
		})
		return err
	})
	if err != nil {
		s.orphan(ctx, s.gcsCfg.CoverBucket, key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record cover upload")
	}
	if previousKey != "" && previousKey != key {
		s.orphan(ctx, s.gcsCfg.CoverBucket, previousKey)
	}

	slot.Cover = &models.CoverImage{OrderSongID: slot.ID, ObjectKey: key}
	s.hintSlot(ctx, slot.ID)
	return slotDTO(order.ID, slot), nil
}

func (s *service) DeleteCover(ctx context.Context, orderID, slotID uuid.UUID) error {
	_, slot, err := s.loadOrderSlot(ctx, orderID, slotID)
	if err != nil {
		return err
	}

	cover, err := s.repo.FindCoverBySlot(ctx, slot.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "slot has no cover image")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cover image")
	}

	if err := s.repo.DeleteCover(ctx, cover.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cover row")
	}
	if err := s.store.DeleteObject(ctx, s.gcsCfg.CoverBucket, cover.ObjectKey); err != nil {
		s.orphan(ctx, s.gcsCfg.CoverBucket, cover.ObjectKey)
	}

	s.hintSlot(ctx, slot.ID)
	return nil
}

// CreateSecondarySlot repairs an entitled order that is somehow missing its
// second slot. Intake normally creates both slots up front, so this refuses
// anything but the exactly-one-slot case.
func (s *service) CreateSecondarySlot(ctx context.Context, orderID uuid.UUID) (*SlotAssetDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IncludesBothVersions {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order does not include a second song version")
	}

	count, err := s.repo.CountSlots(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count order slots")
	}
	if count != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already has its second slot")
	}

	slot, err := s.repo.CreateSlot(ctx, &models.OrderSong{OrderID: order.ID, IsPrimary: false})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create secondary slot")
	}

	s.hintSlot(ctx, slot.ID)
	return slotDTO(order.ID, slot), nil
}

// SetVisibility lets the owner flag a slot for the public gallery. The
// listing itself additionally filters to completed orders.
func (s *service) SetVisibility(ctx context.Context, userID, orderID, slotID uuid.UUID, public bool) (*SlotAssetDTO, error) {
	order, slot, err := s.loadOrderSlot(ctx, orderID, slotID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if err := s.repo.UpdateSlotVisibility(ctx, slot.ID, public); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update slot visibility")
	}

	slot.IsPublic = &public
	s.hintSlot(ctx, slot.ID)
	return slotDTO(order.ID, slot), nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) loadOrderSlot(ctx context.Context, orderID, slotID uuid.UUID) (*models.Order, *models.OrderSong, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	for i := range order.Slots {
		if order.Slots[i].ID == slotID {
			return order, &order.Slots[i], nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "deliverable slot not found")
}

func (s *service) orphan(ctx context.Context, bucket, object string) {
	if s.cleanup != nil {
		s.cleanup.ObjectOrphaned(ctx, bucket, object)
	}
}

func (s *service) hintSlot(ctx context.Context, slotID uuid.UUID) {
	if s.hints != nil {
		s.hints.TableChanged(ctx, "order_songs", slotID, "update")
	}
}

func coverEntitlement(order *models.Order, slot *models.OrderSong) error {
	if slot.IsPrimary {
		if !order.IncludesCoverImage {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order does not include a cover image")
		}
		return nil
	}
	if !order.SecondCoverPurchased() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order does not include a second cover image")
	}
	return nil
}

func slotDTO(orderID uuid.UUID, slot *models.OrderSong) *SlotAssetDTO {
	return &SlotAssetDTO{
		SlotID:    slot.ID,
		OrderID:   orderID,
		IsPrimary: slot.IsPrimary,
		HasAudio:  slot.AudioKey != nil && *slot.AudioKey != "",
		HasCover:  slot.Cover != nil,
	}
}

// objectKey embeds a fresh uuid so every upload lands on a new object;
// replacing a deliverable never overwrites the previous object in place.
func objectKey(orderID uuid.UUID, slot *models.OrderSong, kind, filename string) string {
	role := "secondary"
	if slot.IsPrimary {
		role = "primary"
	}
	return fmt.Sprintf("orders/%s/%s/%s/%s/%s", orderID, role, kind, uuid.New(), sanitizeFilename(filename))
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == "/" {
		return "file"
	}
	return strings.ReplaceAll(base, " ", "_")
}
