package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/community-market/internal/api/response"
	"github.com/Rrens/community-market/internal/domain"
)

var validate = validator.New()

var statusByKind = map[domain.ErrorKind]int{
	domain.KindNotFound:       http.StatusNotFound,
	domain.KindSlugConflict:   http.StatusConflict,
	domain.KindConflict:       http.StatusConflict,
	domain.KindInviteRequired: http.StatusBadRequest,
	domain.KindInviteInvalid:  http.StatusForbidden,
	domain.KindAccessDenied:   http.StatusForbidden,
	domain.KindForbidden:      http.StatusForbidden,
	domain.KindInvalidInput:   http.StatusBadRequest,
	domain.KindInternal:       http.StatusInternalServerError,
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError sends a service error to the client. Internal causes are logged,
// never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}

	response.Fail(w, statusFor(err), string(kind), domain.PublicMessage(err))
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}
	return valid(w, dst)
}

// decodeOptional is decode for endpoints whose body may be empty
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}
	return valid(w, dst)
}

func valid(w http.ResponseWriter, dst any) bool {
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string)
			for _, e := range validationErrors {
				field := e.Field()
				tag := e.Tag()
				switch tag {
				case "required":
					fields[field] = "field is required"
				case "e164":
					fields[field] = "must be an E.164 phone number"
				case "oneof":
					fields[field] = "must be one of: " + e.Param()
				case "min":
					fields[field] = "must be at least " + e.Param() + " characters"
				case "max":
					fields[field] = "must be at most " + e.Param() + " characters"
				default:
					fields[field] = "validation failed on " + tag
				}
			}
			response.ValidationFailed(w, fields)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}

	return true
}
