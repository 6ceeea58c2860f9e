package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/serenadecraft/serenade-backend/api/responses"
	"github.com/serenadecraft/serenade-backend/api/validators"
	"github.com/serenadecraft/serenade-backend/internal/lyrics"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

type generateLyricsRequest struct {
	SlotID   *string `json:"slot_id,omitempty" validate:"omitempty,uuid4"`
	Guidance string  `json:"guidance,omitempty" validate:"max=2000"`
}

// AdminGenerateLyrics drafts lyrics with the language model and saves the
// result as the working text.
func AdminGenerateLyrics(svc lyrics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lyrics service unavailable"))
			return
		}

		actorID, err := adminActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateLyricsRequest
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

		result, err := svc.Generate(r.Context(), actorID, orderID, slotID, payload.Guidance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
