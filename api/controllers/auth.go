package controllers

import (
	"net/http"

	"github.com/serenadecraft/serenade-backend/api/responses"
	"github.com/serenadecraft/serenade-backend/api/validators"
	internalauth "github.com/serenadecraft/serenade-backend/internal/auth"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

// Register creates a customer account and returns the stored profile.
func Register(svc internalauth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload internalauth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// Login authenticates a customer and issues the token pair.
func Login(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return loginHandler(svc, logg, false)
}

// AdminLogin authenticates staff accounts only.
func AdminLogin(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return loginHandler(svc, logg, true)
}

func loginHandler(svc internalauth.Service, logg *logger.Logger, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload internalauth.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			resp *internalauth.LoginResponse
			err  error
		)
		if admin {
			resp, err = svc.AdminLogin(r.Context(), payload)
		} else {
			resp, err = svc.Login(r.Context(), payload)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
