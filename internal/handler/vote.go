package handler

import (
	"net/http"

	"pollboard/internal/service"
	"pollboard/internal/util"

	"github.com/gin-gonic/gin"
)

// VoteHandler serves vote submission.
type VoteHandler struct {
	Polls *service.PollService
}

func NewVoteHandler(polls *service.PollService) *VoteHandler {
	return &VoteHandler{Polls: polls}
}

type voteReq struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// Submit handles POST /api/polls/:id/vote.
func (h *VoteHandler) Submit(c *gin.Context) {
	var req voteReq
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionIndex == nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	vote, err := h.Polls.SubmitVote(callerFrom(c), c.Param("id"), *req.OptionIndex)
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusCreated, util.Response{
		"vote": gin.H{
			"poll_id":      vote.PollID,
			"option_index": vote.OptionIndex,
			"created_at":   vote.CreatedAt,
		},
	})
}
