package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/log"
	"github.com/mbolis/opinio/model"
	"github.com/mbolis/opinio/survey"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	writeStatus(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	writeStatus(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, statusCode int, level log.Level, code string) {
	log.Log(level, code)
	writeStatus(w, r, statusCode, http.StatusText(statusCode))
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, statusCode int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeStatus(w, r, statusCode, errMsg)
}

// WriteError maps a service error to its HTTP status:
//
//	survey.ErrNotFound      404
//	survey.ErrUnauthorized  401
//	survey.ErrLocked        423
//	*survey.ValidationError 400 with missing and problems
//	*model.SchemaError      400 with problems
//
// Anything else is logged and reported as 500.
func WriteError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var (
		verr      *survey.ValidationError
		schemaErr *model.SchemaError
	)
	switch {
	case errors.Is(err, survey.ErrNotFound):
		LogNotFound(w, r, code, err)
	case errors.Is(err, survey.ErrUnauthorized):
		LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, code+".unauthorized")
	case errors.Is(err, survey.ErrLocked):
		LogStatusMsg(w, r, http.StatusLocked, log.DebugLevel, code+".locked", "%s", err)
	case errors.As(err, &verr):
		log.Debugf("%s.invalid: %s", code, verr)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{
			"error":    "invalid response",
			"missing":  nonNil(verr.Missing),
			"problems": nonNil(verr.Problems),
		})
	case errors.As(err, &schemaErr):
		log.Debugf("%s.invalid: %s", code, schemaErr)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{
			"error":    "invalid survey",
			"problems": schemaErr.Problems(),
		})
	default:
		LogInternalError(w, r, code, err)
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, map[string]any{"error": msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
