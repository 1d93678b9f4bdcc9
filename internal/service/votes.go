package service

import (
	"errors"

	"pollboard/internal/apperr"
	"pollboard/internal/authz"
	"pollboard/internal/models"
	"pollboard/internal/validate"

	"gorm.io/gorm"
)

// SubmitVote records the caller's selection on a poll. Voting requires
// login; one vote per user per poll. The Validator only checks the index
// for shape, so the bound check against the loaded poll here is mandatory.
func (s *PollService) SubmitVote(caller authz.Caller, pollID string, optionIndex int) (*models.Vote, error) {
	if !s.limiter.Allow("vote_"+pollID, s.limits.Vote.Max, s.limits.Vote.Window()) {
		return nil, apperr.New(apperr.RateLimited, "too many votes on this poll, try again later")
	}

	if err := validate.Vote(pollID, optionIndex); err != nil {
		return nil, err
	}

	poll, err := s.loadPoll(pollID)
	if err != nil {
		return nil, err
	}
	if optionIndex >= len(poll.Options) {
		return nil, apperr.New(apperr.Validation, "option index out of range")
	}

	user, err := s.gate.RequireAuth(caller)
	if err != nil {
		return nil, err
	}

	// friendly pre-check; the unique index on (poll_id, user_id) is what
	// actually closes the race between concurrent submissions
	var existing int64
	if err := s.db.Model(&models.Vote{}).
		Where("poll_id = ? AND user_id = ?", poll.ID, user.ID).
		Count(&existing).Error; err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "check vote", err)
	}
	if existing > 0 {
		return nil, apperr.New(apperr.Conflict, "you have already voted on this poll")
	}

	vote := models.Vote{
		PollID:      poll.ID,
		UserID:      user.ID,
		OptionIndex: optionIndex,
	}
	if err := s.db.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "you have already voted on this poll")
		}
		return nil, apperr.Wrap(apperr.Upstream, "create vote", err)
	}

	s.listCache.Invalidate()
	return &vote, nil
}
