package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kishanss4/corrupt-watch/internal/ai"
	"github.com/kishanss4/corrupt-watch/internal/complaints"
	"github.com/kishanss4/corrupt-watch/internal/contexthelpers"
	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Debug(http.StatusText(status), "method", method, "uri", uri)
	app.writeError(w, r, status, http.StatusText(status))
}

// serviceError translates errors from the service layer and the AI gateway
// to HTTP responses. Authorization failures deliberately carry no detail.
func (app *application) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		app.writeJSON(w, r, http.StatusUnprocessableEntity, envelope{"errors": validationMessages(err)})
	case errors.Is(err, complaints.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound)
	case errors.Is(err, complaints.ErrNotAuthorized):
		app.clientError(w, r, http.StatusForbidden)
	case errors.Is(err, ai.ErrRateLimited):
		app.writeError(w, r, http.StatusTooManyRequests, ai.ErrRateLimited.Error())
	case errors.Is(err, ai.ErrPaymentRequired):
		app.writeError(w, r, http.StatusPaymentRequired, ai.ErrPaymentRequired.Error())
	case errors.Is(err, ai.ErrUpstream):
		app.writeError(w, r, http.StatusBadGateway, ai.ErrUpstream.Error())
	default:
		app.serverError(w, r, err)
	}
}

// validationMessages flattens a joined validation error into the individual
// field messages.
func validationMessages(err error) []string {
	messages := []string{}
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSuffix(line, ": "+models.ErrValidation.Error())
		if line != "" {
			messages = append(messages, line)
		}
	}
	return messages
}

type envelope map[string]any

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	out, err := json.Marshal(data)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (app *application) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	out, err := json.Marshal(envelope{"error": message})
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "marshal error response", errors.SlogError(err))
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

const maxJSONBodyBytes = 1 << 20

func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// identity builds the service-layer caller from the request context.
func (app *application) identity(r *http.Request) complaints.Identity {
	ctx := r.Context()
	if !contexthelpers.IsAuthenticated(ctx) {
		return complaints.Identity{}
	}
	return complaints.Identity{
		UserID: contexthelpers.AuthenticatedUserID(ctx),
		Role:   contexthelpers.Role(ctx),
	}
}
