package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/core/ingestion_engine"
	"github.com/jstepanek/textlens/internal/core/llm"
	"github.com/jstepanek/textlens/internal/models"
	"github.com/jstepanek/textlens/internal/services"
)

const (
	kindValidation = "validation"
	kindNotFound   = "not_found"
	kindNoDocument = "no_document"
	kindTooLarge   = "too_large"
	kindInternal   = "internal"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// requestError is a client mistake detected by the handler itself.
type requestError struct {
	status  int
	message string
	kind    string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) error {
	return &requestError{status: http.StatusBadRequest, message: message, kind: kindValidation}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

// writeServiceError maps every error the services can return onto a status
// and a user-facing message. Causes are logged, never sent.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		reqErr   *requestError
		maxBytes *http.MaxBytesError
	)

	if ie, ok := ingestion_engine.AsIngestionError(err); ok {
		writeError(w, http.StatusBadRequest, ie.Message(), string(ie.Kind))
		return
	}
	if de, ok := llm.AsDispatchError(err); ok {
		status := http.StatusInternalServerError
		if de.Kind == llm.KindBackendUnavailable {
			status = http.StatusServiceUnavailable
		}
		log.Error("backend call failed",
			zap.String("provider", string(de.Provider)),
			zap.String("model", de.Model),
			zap.String("kind", string(de.Kind)),
			zap.Error(de.Err),
		)
		writeError(w, status, de.Message(), string(de.Kind))
		return
	}

	switch {
	case errors.As(err, &reqErr):
		writeError(w, reqErr.status, reqErr.message, reqErr.kind)
	case errors.As(err, &maxBytes):
		writeError(w, http.StatusRequestEntityTooLarge, "File is too large.", kindTooLarge)
	case errors.Is(err, core.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found. It may have expired.", kindNotFound)
	case errors.Is(err, models.ErrNoDocument):
		writeError(w, http.StatusConflict, "No document loaded. Upload a document first.", kindNoDocument)
	case errors.Is(err, services.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Message is required.", kindValidation)
	case errors.Is(err, services.ErrEmptyDocument):
		writeError(w, http.StatusBadRequest, "Document content is required.", kindValidation)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error.", kindInternal)
	}
}

// decodeJSON reads a JSON body into dst and runs its validate tags.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("Invalid request body: " + err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return badRequest(validationMessage(verrs[0]))
		}
		return badRequest(err.Error())
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param() + "."
	default:
		return fe.Field() + " is invalid."
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrSessionNotFound)
}
