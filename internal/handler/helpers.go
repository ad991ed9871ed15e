package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stratumlab/sowforge/internal/middleware"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
	"github.com/stratumlab/sowforge/internal/pkg/errcode"
	"github.com/stratumlab/sowforge/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, apperr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported file format")
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, apperr.ErrInvalidConfig):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, apperr.ErrTimeout):
		response.Error(c, errcode.ErrTimeout, "backend timed out")
	case errors.Is(err, apperr.ErrRemoteCall), errors.Is(err, apperr.ErrUnavailable):
		response.Error(c, errcode.ErrRemoteCall, "backend call failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
