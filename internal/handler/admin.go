package handler

import (
	"net/http"

	"pollboard/internal/service"
	"pollboard/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves cross-user moderation endpoints.
type AdminHandler struct {
	Polls *service.PollService
}

func NewAdminHandler(polls *service.PollService) *AdminHandler {
	return &AdminHandler{Polls: polls}
}

// ListPolls handles GET /api/admin/polls.
func (h *AdminHandler) ListPolls(c *gin.Context) {
	polls, err := h.Polls.AdminList(callerFrom(c))
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"polls": toPollList(polls),
	})
}

// DeletePoll handles DELETE /api/admin/polls/:id.
func (h *AdminHandler) DeletePoll(c *gin.Context) {
	if err := h.Polls.AdminDelete(callerFrom(c), c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"message": "poll deleted",
	})
}
