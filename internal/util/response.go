package util

import (
	"errors"
	"net/http"

	"github.com/minioj/minioj/internal/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OK writes the domain object itself; the API has no response envelope.
func OK(c *gin.Context, v interface{}) {
	c.JSON(http.StatusOK, v)
}

// Error renders a failure as {reason, code, message} with the mapped HTTP
// status. Errors from outside the taxonomy become ERR_INTERNAL.
func Error(c *gin.Context, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		e = errs.Internal("%v", err)
	}
	zap.S().Errorf("API error: %s", e.Error())
	c.JSON(errs.HTTPStatus(e), e)
}
