package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"net/url"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/schema"
)

const maxBodyBytes = 1 << 20

const msgSuccess = "Success"

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeSuccess sends {code: 200, message: "Success", ...payload}.
func writeSuccess(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{}
	maps.Copy(body, payload)
	body["code"] = http.StatusOK
	body["message"] = msgSuccess
	writeJSON(w, http.StatusOK, body)
}

// writeFailure sends {code, message, errors} where message is the reason
// phrase of status.
func writeFailure(w http.ResponseWriter, status int, errs map[string]string) {
	if errs == nil {
		errs = map[string]string{}
	}
	writeJSON(w, status, map[string]any{
		"code":    status,
		"message": http.StatusText(status),
		"errors":  errs,
	})
}

// writeDomainError maps an error from the lower layers onto the envelope.
// subject names the entity for not-found messages, e.g. "user".
func writeDomainError(w http.ResponseWriter, err error, subject string) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFailure(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, domain.ErrInvalidInput):
		writeFailure(w, http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeFailure(w, http.StatusConflict, map[string]string{"email": "Email address in use"})
	case errors.Is(err, domain.ErrDuplicateTitle):
		writeFailure(w, http.StatusConflict, map[string]string{"title": "Group already exists with that name/title"})
	case errors.Is(err, domain.ErrGroupNotFound):
		writeFailure(w, http.StatusNotFound, map[string]string{"group": "Group not found"})
	case errors.Is(err, domain.ErrNotFound):
		writeFailure(w, http.StatusNotFound, map[string]string{subject: notFoundMessage(subject)})
	case errors.Is(err, domain.ErrNotInGroup):
		writeFailure(w, http.StatusNotAcceptable, map[string]string{"user": "User Not In Group"})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionInvalid):
		writeFailure(w, http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrForbidden):
		writeFailure(w, http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrTooManyRequests):
		writeFailure(w, http.StatusTooManyRequests, nil)
	default:
		slog.Error("handle request", "subject", subject, "error", err)
		writeFailure(w, http.StatusInternalServerError, nil)
	}
}

func notFoundMessage(subject string) string {
	switch subject {
	case "user":
		return "User not found"
	case "group":
		return "Group not found"
	default:
		return "Not found"
	}
}

// decodeRequest reads a JSON object or a form body into a plain map. Form
// fields sent more than once become lists.
func decodeRequest(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, invalidBody(err)
		}
		return raw, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, invalidBody(err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, invalidBody(err)
		}
	}
	return valuesToMap(r.PostForm), nil
}

// decodeQuery turns the query string into a plain map for validation.
func decodeQuery(r *http.Request) map[string]any {
	return valuesToMap(r.URL.Query())
}

func valuesToMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			out[k] = list
		}
	}
	return out
}

func invalidBody(err error) error {
	return &schema.ValidationError{Fields: map[string]string{
		"body": fmt.Sprintf("Invalid request body: %s", bodyProblem(err)),
	}}
}

func bodyProblem(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "too large"
	}
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &typeErr) {
		return "malformed JSON"
	}
	return "unreadable"
}
