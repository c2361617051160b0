package api

import (
	"github.com/minioj/minioj/internal/errs"
	"github.com/minioj/minioj/internal/util"

	"github.com/gin-gonic/gin"
)

type userRequest struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

// postUser creates a user when no id is given, otherwise renames the
// matching one. Names stay globally unique either way.
func (h *Handler) postUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, errs.InvalidArgument("Invalid request body: %v.", err))
		return
	}
	if req.Name == "" {
		util.Error(c, errs.InvalidArgument("User name must not be empty."))
		return
	}

	user, err := h.store.PutUser(req.ID, req.Name)
	if err != nil {
		util.Error(c, err)
		return
	}
	util.OK(c, user)
}

func (h *Handler) getUsers(c *gin.Context) {
	util.OK(c, h.store.Users())
}
