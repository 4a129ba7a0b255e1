package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeEmailTaken, http.StatusBadRequest},
		{CodeDuplicate, http.StatusBadRequest},
		{CodeTooManyFiles, http.StatusBadRequest},
		{CodeBadCredentials, http.StatusUnauthorized},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeInvalidRefresh, http.StatusForbidden},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeUpgradeRequired, http.StatusUpgradeRequired},
		{CodeUploadFailed, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s: got %d want %d", tt.code, got, tt.want)
		}
	}
}

func TestAs_WrapsForeignErrors(t *testing.T) {
	cause := errors.New("connection refused")
	e := As(fmt.Errorf("query: %w", cause))
	if e.Code != CodeInternal {
		t.Fatalf("expected INTERNAL, got %s", e.Code)
	}
	if !errors.Is(e, cause) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeNotFound, "Issue not found"))
	if !errors.Is(err, New(CodeNotFound, "")) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if errors.Is(err, New(CodeForbidden, "")) {
		t.Fatalf("did not expect FORBIDDEN to match")
	}
	if CodeOf(err) != CodeNotFound {
		t.Fatalf("CodeOf: got %s", CodeOf(err))
	}
	if CodeOf(nil) != "" {
		t.Fatalf("CodeOf(nil) should be empty")
	}
}

func TestValidation_Details(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("email", "Email is required")
	e := Validation("All fields required", fields)
	got, ok := e.Details["fields"].(FieldErrors)
	if !ok || len(got["email"]) != 1 {
		t.Fatalf("unexpected details: %#v", e.Details)
	}
	if Validation("x", nil).Details != nil {
		t.Fatalf("empty field set should not produce details")
	}
}
