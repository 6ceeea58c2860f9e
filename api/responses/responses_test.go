package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
)

func TestWriteSuccessWrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type got %q", ct)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["hello"] != "world" {
		t.Fatalf("unexpected payload: %+v", envelope)
	}
}

func TestWriteSuccessStatusOverridesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
}

func TestWriteErrorMapsCodedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "not found keeps message",
			err:        pkgerrors.New(pkgerrors.CodeNotFound, "order not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   string(pkgerrors.CodeNotFound),
			wantMsg:    "order not found",
		},
		{
			name:       "state conflict keeps message",
			err:        pkgerrors.New(pkgerrors.CodeStateConflict, "lyrics have not been approved yet"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(pkgerrors.CodeStateConflict),
			wantMsg:    "lyrics have not been approved yet",
		},
		{
			name:       "internal hides message",
			err:        pkgerrors.New(pkgerrors.CodeInternal, "pg connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(pkgerrors.CodeInternal),
		},
		{
			name:       "uncoded error becomes internal",
			err:        errors.New("raw failure"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(pkgerrors.CodeInternal),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}

			var envelope struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("expected code %s got %s", tc.wantCode, envelope.Error.Code)
			}
			if tc.wantMsg != "" && envelope.Error.Message != tc.wantMsg {
				t.Fatalf("expected message %q got %q", tc.wantMsg, envelope.Error.Message)
			}
			if tc.wantMsg == "" && envelope.Error.Message == tc.err.Error() {
				t.Fatalf("internal error message leaked to client: %q", envelope.Error.Message)
			}
		})
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"title": "is required"})

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, err)

	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if decodeErr := json.NewDecoder(rec.Body).Decode(&envelope); decodeErr != nil {
		t.Fatalf("decode response: %v", decodeErr)
	}
	if envelope.Error.Details["title"] != "is required" {
		t.Fatalf("expected details passthrough, got %+v", envelope.Error.Details)
	}
}
