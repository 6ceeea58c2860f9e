package orders

import (
	"net/http"

	"github.com/serenadecraft/serenade-backend/api/responses"
	"github.com/serenadecraft/serenade-backend/api/validators"
	"github.com/serenadecraft/serenade-backend/internal/assets"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

type visibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

// SetVisibility lets the owner opt a deliverable slot in or out of the
// public showcase.
func SetVisibility(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assets service unavailable"))
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
		slotID, err := validators.ParseUUIDParam(r, "slotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload visibilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := svc.SetVisibility(r.Context(), userID, orderID, slotID, *payload.IsPublic)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, slot)
	}
}
