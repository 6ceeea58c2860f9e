package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/serenadecraft/serenade-backend/api/responses"
	"github.com/serenadecraft/serenade-backend/api/validators"
	"github.com/serenadecraft/serenade-backend/internal/assets"
	"github.com/serenadecraft/serenade-backend/pkg/config"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

const uploadFieldName = "file"

// AdminUploadAudio attaches an audio deliverable to a slot, replacing any
// previous one.
func AdminUploadAudio(svc assets.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assets service unavailable"))
			return
		}

		orderID, slotID, err := slotParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := openUpload(r, int64(uploads.MaxAudioMB)<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		slot, err := svc.UploadAudio(r.Context(), orderID, slotID, header.Filename, uploadContentType(header), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, slot)
	}
}

// AdminDeleteAudio removes the audio deliverable from a slot.
func AdminDeleteAudio(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assets service unavailable"))
			return
		}

		orderID, slotID, err := slotParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAudio(r.Context(), orderID, slotID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// AdminUploadCover attaches a cover image to a slot. The order must have
// purchased the matching cover add-on.
func AdminUploadCover(svc assets.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assets service unavailable"))
			return
		}

		orderID, slotID, err := slotParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := openUpload(r, int64(uploads.MaxCoverMB)<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		slot, err := svc.UploadCover(r.Context(), orderID, slotID, header.Filename, uploadContentType(header), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, slot)
	}
}

// AdminDeleteCover removes the cover image from a slot.
func AdminDeleteCover(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assets service unavailable"))
			return
		}

		orderID, slotID, err := slotParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCover(r.Context(), orderID, slotID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// AdminCreateSecondarySlot repairs an order that should have a second
// deliverable slot but lost it.
func AdminCreateSecondarySlot(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assets service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := svc.CreateSecondarySlot(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, slot)
	}
}

func slotParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	slotID, err := validators.ParseUUIDParam(r, "slotId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return orderID, slotID, nil
}

func openUpload(r *http.Request, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart file field required")
	}
	if strings.TrimSpace(header.Filename) == "" {
		file.Close()
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "upload filename is required")
	}
	return file, header, nil
}

func uploadContentType(header *multipart.FileHeader) string {
	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
