package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/lifequest/lifequest-services/internal/character"
	"github.com/lifequest/lifequest-services/internal/progression"
	"github.com/lifequest/lifequest-services/internal/session"
	sharederrors "github.com/lifequest/lifequest-services/shared-libs/errors"
)

const maxBodyBytes = 64 * 1024

var validate = validator.New()

type errorResponse = sharederrors.ErrorResponse

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, sharederrors.ToStatusCode(code), errorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// decodeBody reads a JSON body into dst and runs its validation tags. An empty body is
// accepted when allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid request body: %v", progression.ErrInvalidArgument, err)
		}
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", progression.ErrInvalidArgument, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// errorCode maps engine and persistence errors to the canonical error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, progression.ErrInvalidArgument):
		return sharederrors.CodeBadRequest
	case errors.Is(err, progression.ErrMissionNotFound),
		errors.Is(err, progression.ErrUnknownTalent):
		return sharederrors.CodeNotFound
	case errors.Is(err, progression.ErrInsufficientPoints),
		errors.Is(err, progression.ErrUnmetPrerequisite),
		errors.Is(err, progression.ErrAlreadyUnlocked),
		errors.Is(err, progression.ErrNothingToUndo):
		return sharederrors.CodeConflict
	case errors.Is(err, character.ErrPersistenceUnavailable),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, context.DeadlineExceeded):
		return sharederrors.CodeUnavailable
	default:
		return sharederrors.CodeInternal
	}
}

func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error, userID string) {
	code := errorCode(err)
	if code == sharederrors.CodeInternal || code == sharederrors.CodeUnavailable {
		logRequestError(r.Context(), logger, message, err, userID)
		writeError(w, r, code, message)
		return
	}
	writeError(w, r, code, err.Error())
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("userId", userID),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.Error(message, attrs...)
}
