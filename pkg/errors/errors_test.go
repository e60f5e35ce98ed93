package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Reservation"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad interval", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"storage", Storage("write failed", errors.New("disk full")), CodeStorage, http.StatusInternalServerError},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("while creating: %w", Conflict("slot taken"))

	if !IsCode(wrapped, CodeConflict) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(errors.New("plain"), CodeConflict) {
		t.Error("IsCode matched a non-application error")
	}
}

func TestAsAppErrorFallsBackToInternal(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)
	if appErr.Code != CodeInternal {
		t.Errorf("code = %s, want %s", appErr.Code, CodeInternal)
	}
	if !errors.Is(appErr, plain) {
		t.Error("original error should stay wrapped")
	}

	conflict := Conflict("slot taken")
	if got := AsAppError(fmt.Errorf("wrap: %w", conflict)); got != conflict {
		t.Errorf("AsAppError = %+v, want the original application error", got)
	}
}

func TestNotFoundWithIDDetails(t *testing.T) {
	err := NotFoundWithID("Reservation", "abc-123")
	if err.Details["id"] != "abc-123" {
		t.Errorf("details = %+v, want the id", err.Details)
	}
}
