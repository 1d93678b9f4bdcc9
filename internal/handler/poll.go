package handler

import (
	"net/http"
	"time"

	"pollboard/internal/models"
	"pollboard/internal/service"
	"pollboard/internal/util"

	"github.com/gin-gonic/gin"
)

// PollHandler serves poll CRUD and listings.
type PollHandler struct {
	Polls *service.PollService
}

func NewPollHandler(polls *service.PollService) *PollHandler {
	return &PollHandler{Polls: polls}
}

type pollReq struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

type pollResp struct {
	ID        string   `json:"id"`
	UserID    uint     `json:"user_id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	CreatedAt string   `json:"created_at"`
}

func toPollResp(p *models.Poll) pollResp {
	options := make([]string, 0, len(p.Options))
	for _, opt := range p.Options {
		options = append(options, opt.Text)
	}
	return pollResp{
		ID:        p.ID,
		UserID:    p.UserID,
		Question:  p.Question,
		Options:   options,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPollList(polls []models.Poll) []pollResp {
	items := make([]pollResp, 0, len(polls))
	for i := range polls {
		items = append(items, toPollResp(&polls[i]))
	}
	return items
}

// Create handles POST /api/polls.
func (h *PollHandler) Create(c *gin.Context) {
	var req pollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	poll, err := h.Polls.Create(callerFrom(c), c.ClientIP(), req.Question, req.Options)
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusCreated, util.Response{
		"poll": toPollResp(poll),
	})
}

// List handles GET /api/polls (public).
func (h *PollHandler) List(c *gin.Context) {
	polls, err := h.Polls.List()
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"polls": toPollList(polls),
	})
}

// Get handles GET /api/polls/:id (public), with vote tallies. A caller
// sending a valid token also sees which option they voted for.
func (h *PollHandler) Get(c *gin.Context) {
	result, err := h.Polls.Get(callerFrom(c), c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"poll":        toPollResp(&result.Poll),
		"counts":      result.Counts,
		"total_votes": result.TotalVotes,
		"your_vote":   result.VoterIndex,
	})
}

// ListMine handles GET /api/polls/mine.
func (h *PollHandler) ListMine(c *gin.Context) {
	polls, err := h.Polls.ListMine(callerFrom(c))
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"polls": toPollList(polls),
	})
}

// Update handles PUT /api/polls/:id.
func (h *PollHandler) Update(c *gin.Context) {
	var req pollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	poll, err := h.Polls.Update(callerFrom(c), c.Param("id"), req.Question, req.Options)
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"poll": toPollResp(poll),
	})
}

// Delete handles DELETE /api/polls/:id.
func (h *PollHandler) Delete(c *gin.Context) {
	if err := h.Polls.Delete(callerFrom(c), c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"message": "poll deleted",
	})
}
