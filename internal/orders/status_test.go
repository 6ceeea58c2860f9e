package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

func newTestAdminService(t *testing.T, repo *stubOrdersRepo, songsRepo *stubSongsRepo, hints *stubHinter) AdminService {
	t.Helper()

	svc, err := NewAdminService(AdminServiceParams{
		TxRunner: stubTxRunner{},
		Repo:     repo,
		Songs:    songsRepo,
		Hints:    hints,
		Logger:   logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, repo *stubOrdersRepo, status enums.OrderStatus) *models.Order {
	t.Helper()

	order, err := repo.Create(context.Background(), &models.Order{
		SongID: uuid.New(),
		UserID: uuid.New(),
		Status: status,
	})
	require.NoError(t, err)
	return order
}

func assertStateConflict(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}

func TestAdminTransitionAdvancesOneStep(t *testing.T) {
	repo := newStubOrdersRepo()
	songsRepo := newStubSongsRepo()
	hints := &stubHinter{}
	svc := newTestAdminService(t, repo, songsRepo, hints)

	order := seedOrder(t, repo, enums.OrderStatusPending)

	dto, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPendingLyricsApproval)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingLyricsApproval, dto.Status)
	assert.Equal(t, enums.OrderStatusPendingLyricsApproval, repo.statusUpdates[order.ID])
	assert.Empty(t, songsRepo.statusUpdates)

	require.Len(t, hints.hints, 1)
	assert.Equal(t, "orders", hints.hints[0].table)
	assert.Equal(t, "update", hints.hints[0].op)
}

func TestAdminTransitionIntoProductionRequiresApprovedLyrics(t *testing.T) {
	repo := newStubOrdersRepo()
	songsRepo := newStubSongsRepo()
	svc := newTestAdminService(t, repo, songsRepo, &stubHinter{})

	order := seedOrder(t, repo, enums.OrderStatusPendingLyricsApproval)

	// No revision at all blocks the move.
	_, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusInProduction)
	assertStateConflict(t, err)

	songsRepo.latestRevision = &models.LyricsRevision{Status: enums.LyricsRevisionStatusPending}
	_, err = svc.Transition(context.Background(), order.ID, enums.OrderStatusInProduction)
	assertStateConflict(t, err)

	songsRepo.latestRevision = &models.LyricsRevision{Status: enums.LyricsRevisionStatusApproved}
	dto, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusInProduction)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInProduction, dto.Status)
	assert.Equal(t, enums.SongStatusInProduction, songsRepo.statusUpdates[order.SongID])
}

func TestAdminTransitionRejectsSkipsAndRegressions(t *testing.T) {
	cases := []struct {
		name   string
		from   enums.OrderStatus
		target enums.OrderStatus
	}{
		{name: "skip ahead", from: enums.OrderStatusPending, target: enums.OrderStatusInProduction},
		{name: "regression", from: enums.OrderStatusReadyForReview, target: enums.OrderStatusPending},
		{name: "standing still", from: enums.OrderStatusPending, target: enums.OrderStatusPending},
		{name: "past terminal", from: enums.OrderStatusCompleted, target: enums.OrderStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubOrdersRepo()
			svc := newTestAdminService(t, repo, newStubSongsRepo(), &stubHinter{})
			order := seedOrder(t, repo, tc.from)

			_, err := svc.Transition(context.Background(), order.ID, tc.target)
			assertStateConflict(t, err)
			assert.Empty(t, repo.statusUpdates)
		})
	}
}

func TestAdminTransitionRejectsUnknownStatus(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestAdminService(t, repo, newStubSongsRepo(), &stubHinter{})
	order := seedOrder(t, repo, enums.OrderStatusPending)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderStatus("shipped"))
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestAdminForceSetAcceptsAnyTarget(t *testing.T) {
	repo := newStubOrdersRepo()
	songsRepo := newStubSongsRepo()
	hints := &stubHinter{}
	svc := newTestAdminService(t, repo, songsRepo, hints)

	order := seedOrder(t, repo, enums.OrderStatusCompleted)

	dto, err := svc.ForceSetStatus(context.Background(), uuid.New(), order.ID, enums.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, dto.Status)
	assert.Equal(t, enums.OrderStatusPending, repo.statusUpdates[order.ID])
	assert.Empty(t, songsRepo.statusUpdates)
	require.Len(t, hints.hints, 1)

	// Jumping straight to completed still advances the song.
	dto, err = svc.ForceSetStatus(context.Background(), uuid.New(), order.ID, enums.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, dto.Status)
	assert.Equal(t, enums.SongStatusCompleted, songsRepo.statusUpdates[order.SongID])
}

func TestAdminTransitionMissingOrder(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestAdminService(t, repo, newStubSongsRepo(), &stubHinter{})

	_, err := svc.Transition(context.Background(), uuid.New(), enums.OrderStatusPendingLyricsApproval)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
