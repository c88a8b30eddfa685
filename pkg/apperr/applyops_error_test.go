package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorStatusAndCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"unauthorized", Unauthorized(""), CodeUnauthorized, http.StatusUnauthorized},
		{"invalid token", InvalidToken("bad token"), CodeInvalidToken, http.StatusUnauthorized},
		{"forbidden", Forbidden(""), CodeForbidden, http.StatusForbidden},
		{"bad request", BadRequest("nope"), CodeBadRequest, http.StatusBadRequest},
		{"validation failed", ValidationFailed("invalid status"), CodeValidationFailed, http.StatusBadRequest},
		{"missing field", MissingField("company"), CodeMissingField, http.StatusBadRequest},
		{"not found", NotFound("application"), CodeNotFound, http.StatusNotFound},
		{"already exists", AlreadyExists("email"), CodeAlreadyExists, http.StatusConflict},
		{"conflict", Conflict("stale version"), CodeConflict, http.StatusConflict},
		{"oauth failed", OAuthFailed("google", cause), CodeOAuthFailed, http.StatusBadGateway},
		{"database error", DatabaseError("get user", cause), CodeDatabaseError, http.StatusInternalServerError},
		{"external error", ExternalError("gmail", cause), CodeExternalError, http.StatusBadGateway},
		{"internal", Internal(""), CodeInternalError, http.StatusInternalServerError},
		{"config error", ConfigError("missing JWT_SECRET"), CodeConfigError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.HTTPStatus() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus(), tt.wantStatus)
			}
		})
	}
}

func TestDatabaseErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := DatabaseError("list applications", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to survive errors.Is")
	}
	if got := err.Error(); got != "[DATABASE_ERROR] database error: list applications: connection refused" {
		t.Errorf("unexpected error string %q", got)
	}
}

func TestAsAppErrorPassesThroughWrapped(t *testing.T) {
	inner := NotFound("application")
	wrapped := DatabaseError("get application", inner)

	// The outermost AppError wins, the inner one is just the cause.
	got := AsAppError(wrapped)
	if got.Code != CodeDatabaseError {
		t.Errorf("code = %q, want %q", got.Code, CodeDatabaseError)
	}
}

func TestAsAppErrorFallsBackToInternal(t *testing.T) {
	cause := errors.New("plain failure")
	got := AsAppError(cause)

	if got.Code != CodeInternalError {
		t.Errorf("code = %q, want %q", got.Code, CodeInternalError)
	}
	if got.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", got.Status, http.StatusInternalServerError)
	}
	if !errors.Is(got, cause) {
		t.Error("expected original error preserved as cause")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	if got := GetHTTPStatus(ExternalError("calendar", errors.New("503"))); got != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", got, http.StatusBadGateway)
	}
	if got := GetHTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestWithDetail(t *testing.T) {
	err := BadRequest("bad page").WithDetail("page", -1)
	if err.Details["page"] != -1 {
		t.Errorf("details = %v, want page=-1", err.Details)
	}
}
