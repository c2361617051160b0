package api

import (
	"github.com/minioj/minioj/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// postExit acknowledges the request, then signals main to shut down; the
// final snapshot happens on the way out.
func (h *Handler) postExit(c *gin.Context) {
	zap.S().Info("exit requested over HTTP")
	util.OK(c, nil)

	select {
	case h.exit <- struct{}{}:
	default:
		// A shutdown is already in flight.
	}
}
