package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/besf/portal/internal/errors"
)

const maxJSONBody = 1 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	// Field optionally names the offending input.
	Field string
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: msg, Field: p.Field})
}

// statusForError maps an AppError code to its HTTP status and wire error code.
func statusForError(err error) (int, string) {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeForeignKey:
		return http.StatusBadRequest, "validation_failed"
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.ErrCodeConflict:
		return http.StatusConflict, "conflict"
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests, "rate_limited"
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, "authentication_required"
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, "insufficient_permissions"
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteAppError writes err as a JSON error. AppErrors keep their user-facing message;
// anything else is reported as a generic internal error without leaking its text.
func WriteAppError(w http.ResponseWriter, err error) {
	code, errCode := statusForError(err)
	msg := apperrors.Message(err, "An unexpected error occurred. Please try again.")
	if code == http.StatusInternalServerError {
		msg = "An unexpected error occurred. Please try again."
	}
	if code == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	WriteError(w, ErrorParams{
		Code:    code,
		ErrCode: errCode,
		Err:     errors.New(msg),
		Field:   apperrors.GetField(err),
	})
}
