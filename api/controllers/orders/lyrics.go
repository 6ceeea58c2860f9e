package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/serenadecraft/serenade-backend/api/middleware"
	"github.com/serenadecraft/serenade-backend/api/responses"
	"github.com/serenadecraft/serenade-backend/api/validators"
	"github.com/serenadecraft/serenade-backend/internal/lyrics"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

type saveLyricsRequest struct {
	SlotID *string `json:"slot_id,omitempty" validate:"omitempty,uuid4"`
	Lyrics string  `json:"lyrics" validate:"required"`
}

type requestRevisionRequest struct {
	Feedback string `json:"feedback" validate:"required,max=4000"`
}

// SaveLyrics writes lyric text for a slot. Customers can edit until
// production starts; staff can edit at any stage.
func SaveLyrics(svc lyrics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lyrics service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload saveLyricsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slotID := uuid.Nil
		if payload.SlotID != nil {
			slotID, err = uuid.Parse(*payload.SlotID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slot id"))
				return
			}
		}

		actor := lyrics.Actor{
			UserID:  userID,
			IsAdmin: middleware.IsAdminFromContext(r.Context()),
		}

		result, err := svc.Save(r.Context(), actor, orderID, slotID, payload.Lyrics)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ApproveLyrics closes the open review round as approved.
func ApproveLyrics(svc lyrics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lyrics service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		revision, err := svc.Approve(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, revision)
	}
}

// RequestLyricsRevision closes the open review round with feedback so the
// team reworks the draft.
func RequestLyricsRevision(svc lyrics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lyrics service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload requestRevisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		revision, err := svc.RequestRevision(r.Context(), userID, orderID, payload.Feedback)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, revision)
	}
}
