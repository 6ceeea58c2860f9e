package middleware

import (
	"net/http"

	"github.com/serenadecraft/serenade-backend/api/responses"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

// RequireAdmin rejects requests whose token does not carry the admin claim.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdminFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
