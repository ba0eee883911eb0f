package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/dailywords/internal"
	"github.com/yourname/dailywords/internal/response"
)

// HandleError maps the error taxonomy onto HTTP statuses and the failure
// envelope. Nothing propagates as a crash: every error becomes
// {success:false, message}.
func HandleError(c *gin.Context, logger internal.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internal.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, internal.ErrAuth), errors.Is(err, internal.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, internal.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, internal.ErrIdempotency):
		status = http.StatusConflict
	}

	requestID := c.GetString(ctxRequestID)
	if status >= 500 {
		logger.Errorf("[request_id=%s] %v", requestID, err)
	} else {
		logger.Warnf("[request_id=%s] %v", requestID, err)
	}
	c.JSON(status, response.Failure(err.Error()))
}
