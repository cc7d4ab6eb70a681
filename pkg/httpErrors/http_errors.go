package httpErrors

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/pkg/errors"

	"github.com/shortforge/short-video-pipeline/internal/models"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInternalServer = errors.New("internal server error")
	ErrRequestTimeout = errors.New("request timeout")
)

// RestErr is the JSON error envelope every handler returns on failure.
type RestErr interface {
	Status() int
	Error() string
	Causes() interface{}
}

type restError struct {
	ErrStatus int         `json:"status"`
	ErrError  string      `json:"error"`
	ErrCauses interface{} `json:"causes,omitempty"`
}

func (e restError) Status() int {
	return e.ErrStatus
}

func (e restError) Error() string {
	return e.ErrError
}

func (e restError) Causes() interface{} {
	return e.ErrCauses
}

func NewRestError(status int, err string, causes interface{}) RestErr {
	return restError{ErrStatus: status, ErrError: err, ErrCauses: causes}
}

func NewBadRequestError(causes interface{}) RestErr {
	return restError{ErrStatus: http.StatusBadRequest, ErrError: ErrBadRequest.Error(), ErrCauses: causes}
}

func NewNotFoundError(causes interface{}) RestErr {
	return restError{ErrStatus: http.StatusNotFound, ErrError: ErrNotFound.Error(), ErrCauses: causes}
}

func NewConflictError(causes interface{}) RestErr {
	return restError{ErrStatus: http.StatusConflict, ErrError: ErrConflict.Error(), ErrCauses: causes}
}

func NewInternalServerError(causes interface{}) RestErr {
	return restError{ErrStatus: http.StatusInternalServerError, ErrError: ErrInternalServer.Error(), ErrCauses: causes}
}

// ParseErrors maps domain errors onto REST envelopes. Unknown errors become
// 500s without leaking internals.
func ParseErrors(err error) RestErr {
	var validationErr *models.ValidationError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return NewNotFoundError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewRestError(http.StatusRequestTimeout, ErrRequestTimeout.Error(), err.Error())
	case errors.As(err, &validationErr):
		return NewBadRequestError(err.Error())
	default:
		var restErr RestErr
		if errors.As(err, &restErr) {
			return restErr
		}
		return NewInternalServerError(err.Error())
	}
}

// ErrorResponse unpacks a RestErr for echo's c.JSON.
func ErrorResponse(err error) (int, interface{}) {
	restErr := ParseErrors(err)
	return restErr.Status(), restErr
}
