package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	pkgerrors "github.com/iskomart/iskomart-backend/pkg/errors"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/types"
)

// WriteSuccess writes a 200 response. Fields of body are placed next to the
// success flag and message; body must encode to a JSON object or be nil.
func WriteSuccess(w http.ResponseWriter, message string, body any) {
	WriteSuccessStatus(w, http.StatusOK, message, body)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, message string, body any) {
	payload, err := successPayload(message, body)
	if err != nil {
		log.Printf(`{"level":"error","msg":"failed to build response","err":"%v"}`, err)
		WriteJSON(w, http.StatusInternalServerError, errorEnvelope(pkgerrors.New(pkgerrors.CodeInternal, "")))
		return
	}
	WriteJSON(w, status, payload)
}

// reservedKeys belong to the envelope and may not appear in a payload.
var reservedKeys = []string{"success", "message"}

func successPayload(message string, body any) (any, error) {
	envelope := types.OK(message)
	if body == nil {
		return envelope, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding response body: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("response body must be a JSON object: %w", err)
	}
	for _, key := range reservedKeys {
		if _, taken := fields[key]; taken {
			return nil, fmt.Errorf("response body field %q collides with the envelope", key)
		}
	}
	fields["success"] = json.RawMessage("true")
	if message != "" {
		encoded, err := json.Marshal(message)
		if err != nil {
			return nil, err
		}
		fields["message"] = encoded
	}
	return fields, nil
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	if logg != nil {
		fields := pkgerrors.Diagnose(err).Fields()
		fields["http_status"] = meta.HTTPStatus
		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	WriteJSON(w, meta.HTTPStatus, errorEnvelope(typed))
}

func errorEnvelope(typed *pkgerrors.Error) types.ErrorEnvelope {
	meta := pkgerrors.MetadataFor(typed.Code())

	// internal messages may carry driver text; only client-facing codes echo theirs.
	msg := meta.PublicMessage
	if meta.HTTPStatus < http.StatusInternalServerError || typed.Code() == pkgerrors.CodeDependency {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Envelope: types.Envelope{Success: false, Message: msg},
		Error:    types.APIError{Code: string(typed.Code()), Retryable: meta.Retryable},
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}
	return payload
}

// WriteJSON encodes payload as-is with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
