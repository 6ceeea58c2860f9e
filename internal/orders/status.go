package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/internal/songs"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
	"github.com/serenadecraft/serenade-backend/pkg/pagination"
)

// AdminService exposes the fulfillment-side order operations. Every call
// assumes the admin guard already ran at the transport layer.
type AdminService interface {
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
	ForceSetStatus(ctx context.Context, actorID, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

// forwardEdges is the only movement the guarded transition allows. Anything
// else, including standing still, is a state conflict.
var forwardEdges = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:               enums.OrderStatusPendingLyricsApproval,
	enums.OrderStatusPendingLyricsApproval: enums.OrderStatusInProduction,
	enums.OrderStatusInProduction:          enums.OrderStatusReadyForReview,
	enums.OrderStatusReadyForReview:        enums.OrderStatusCompleted,
}

// songStatusFor maps order milestones onto the coarser song lifecycle.
var songStatusFor = map[enums.OrderStatus]enums.SongStatus{
	enums.OrderStatusInProduction: enums.SongStatusInProduction,
	enums.OrderStatusCompleted:    enums.SongStatusCompleted,
}

type adminService struct {
	tx    txRunner
	repo  Repository
	songs songs.Repository
	hints changeHinter
	logg  *logger.Logger
}

// AdminServiceParams bundles the admin order service dependencies.
type AdminServiceParams struct {
	TxRunner txRunner
	Repo     Repository
	Songs    songs.Repository
	Hints    changeHinter
	Logger   *logger.Logger
}

// NewAdminService constructs the admin order service. Hints may be nil.
func NewAdminService(params AdminServiceParams) (AdminService, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Songs == nil {
		return nil, fmt.Errorf("songs repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &adminService{
		tx:    params.TxRunner,
		repo:  params.Repo,
		songs: params.Songs,
		hints: params.Hints,
		logg:  params.Logger,
	}, nil
}

func (s *adminService) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *adminService) List(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

// Transition moves an order one step forward along the fulfillment path.
// Skips, regressions, and no-ops are rejected, and the move into production
// additionally requires the latest lyrics revision to be approved.
func (s *adminService) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, ok := forwardEdges[order.Status]
	if !ok || next != target {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	if target == enums.OrderStatusInProduction {
		if err := s.requireApprovedLyrics(ctx, order.SongID); err != nil {
			return nil, err
		}
	}

	if err := s.applyStatus(ctx, order, target); err != nil {
		return nil, err
	}

	if s.hints != nil {
		s.hints.TableChanged(ctx, "orders", order.ID, "update")
	}
	return FromModel(order), nil
}

// ForceSetStatus jumps an order to any valid status with no path or lyrics
// checks. The actor is logged so the audit trail survives the shortcut.
func (s *adminService) ForceSetStatus(ctx context.Context, actorID, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := s.applyStatus(ctx, order, target); err != nil {
		return nil, err
	}

	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"actor_id": actorID.String(),
		"order_id": orderID.String(),
		"from":     previous.String(),
		"to":       target.String(),
	}), "order status force-set")

	if s.hints != nil {
		s.hints.TableChanged(ctx, "orders", order.ID, "update")
	}
	return FromModel(order), nil
}

// applyStatus writes the order status and, when the milestone maps onto the
// song lifecycle, the song status in the same transaction. The order row's
// updated_at is bumped even when the status value does not change.
func (s *adminService) applyStatus(ctx context.Context, order *models.Order, target enums.OrderStatus) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if songStatus, ok := songStatusFor[target]; ok {
			if err := s.songs.WithTx(tx).UpdateStatus(ctx, order.SongID, songStatus); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update song status")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Status = target
	return nil
}

// requireApprovedLyrics gates the move into production on the customer's
// sign-off. No revision at all blocks the move the same as an open one.
func (s *adminService) requireApprovedLyrics(ctx context.Context, songID uuid.UUID) error {
	rev, err := s.songs.LatestRevision(ctx, songID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lyrics have not been approved yet")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest lyrics revision")
	}
	if rev.Status != enums.LyricsRevisionStatusApproved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "lyrics have not been approved yet")
	}
	return nil
}

func (s *adminService) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}
