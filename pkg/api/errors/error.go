// Package errors renders API failures as
//
//	{"message": {"reason": "...", "advice": "..."}}
//
// through echo's HTTPErrorHandler.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

// ErrorMessage is the body of a failed response. Cause is logged, not sent.
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	Cause  error  `json:"-"`
}

func (e ErrorMessage) Error() string {
	msg := e.Reason
	if e.Advice != "" {
		msg += ": " + e.Advice
	}
	if e.Cause != nil {
		msg += " (caused by: " + e.Cause.Error() + ")"
	}
	return msg
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

func newHTTPError(code int, msg ErrorMessage) *echo.HTTPError {
	return echo.NewHTTPError(code, ErrorResponse{Message: msg}).SetInternal(msg)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return newHTTPError(
		http.StatusBadRequest,
		ErrorMessage{Reason: "bad request", Advice: advice, Cause: err},
	)
}

// FromFetch converts an error of fetching or resolving GNPS tables.
//
// A *gnps.RemoteFetchError becomes 502 Bad Gateway, with advice naming the
// table and the task. Others become 500.
func FromFetch(err error) *echo.HTTPError {
	var rfe *gnps.RemoteFetchError
	if errors.As(err, &rfe) {
		return newHTTPError(http.StatusBadGateway, ErrorMessage{
			Reason: "GNPS result is not available",
			Advice: fmt.Sprintf(
				"check that task %s has completed and has %s.", rfe.Task, rfe.Kind.Name(),
			),
			Cause: err,
		})
	}
	return newHTTPError(
		http.StatusInternalServerError,
		ErrorMessage{Reason: "unexpected error", Cause: err},
	)
}
