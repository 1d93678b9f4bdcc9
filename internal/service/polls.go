package service

import (
	"errors"

	"pollboard/internal/apperr"
	"pollboard/internal/authz"
	"pollboard/internal/models"
	"pollboard/internal/validate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PollResult is a poll with its per-option vote tallies. VoterIndex is the
// option the reading caller voted for, nil for anonymous readers or callers
// who have not voted.
type PollResult struct {
	Poll       models.Poll
	Counts     []int64 // indexed by option position
	TotalVotes int64
	VoterIndex *int
}

// Create inserts a new poll owned by the caller. clientIP keys the rate
// window.
func (s *PollService) Create(caller authz.Caller, clientIP, question string, options []string) (*models.Poll, error) {
	if !s.limiter.Allow("create_poll_"+clientIP, s.limits.CreatePoll.Max, s.limits.CreatePoll.Window()) {
		return nil, apperr.New(apperr.RateLimited, "too many polls created, try again later")
	}

	question, options, err := validate.CreatePoll(question, options)
	if err != nil {
		return nil, err
	}

	user, err := s.gate.RequireAuth(caller)
	if err != nil {
		return nil, err
	}

	poll := models.Poll{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Question: question,
	}
	for i, text := range options {
		poll.Options = append(poll.Options, models.Option{
			PollID:   poll.ID,
			Position: i,
			Text:     text,
		})
	}

	if err := s.db.Create(&poll).Error; err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "create poll", err)
	}

	s.listCache.Invalidate()
	return &poll, nil
}

// Update replaces the question and options of a poll the caller owns.
// Option lists that would strand an existing vote index are rejected, so
// no vote can ever point past the option count.
func (s *PollService) Update(caller authz.Caller, pollID, question string, options []string) (*models.Poll, error) {
	user, poll, err := s.gate.RequirePollOwnership(caller, pollID)
	if err != nil {
		return nil, err
	}

	question, options, err = validate.CreatePoll(question, options)
	if err != nil {
		return nil, err
	}

	maxIdx, err := s.maxVoteIndex(poll.ID)
	if err != nil {
		return nil, err
	}
	if maxIdx >= len(options) {
		return nil, apperr.New(apperr.Conflict, "cannot remove options that already have votes")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// the WHERE clause re-asserts ownership even though the gate
		// already checked
		res := tx.Model(&models.Poll{}).
			Where("id = ? AND user_id = ?", poll.ID, user.ID).
			Update("question", question)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "poll not found")
		}

		if err := tx.Where("poll_id = ?", poll.ID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		for i, text := range options {
			opt := models.Option{PollID: poll.ID, Position: i, Text: text}
			if err := tx.Create(&opt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.Upstream {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Upstream, "update poll", err)
	}

	s.listCache.Invalidate()
	return s.loadPoll(poll.ID)
}

// Delete removes a poll the caller owns. Votes go first, then options,
// then the poll row, all in one transaction, so a crash cannot leave
// orphaned vote rows behind.
func (s *PollService) Delete(caller authz.Caller, pollID string) error {
	user, poll, err := s.gate.RequirePollOwnership(caller, pollID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return deletePollCascade(tx, poll.ID, &user.ID)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.Upstream {
			return err
		}
		return apperr.Wrap(apperr.Upstream, "delete poll", err)
	}

	s.listCache.Invalidate()
	return nil
}

// Get returns one poll with vote tallies. Anonymous callers are fine;
// an authenticated caller additionally gets the option they voted for.
func (s *PollService) Get(caller authz.Caller, pollID string) (*PollResult, error) {
	if err := validate.PollID(pollID); err != nil {
		return nil, err
	}

	poll, err := s.loadPoll(pollID)
	if err != nil {
		return nil, err
	}

	counts := make([]int64, len(poll.Options))
	var total int64

	rows, err := s.db.Model(&models.Vote{}).
		Select("option_index, COUNT(*)").
		Where("poll_id = ?", poll.ID).
		Group("option_index").
		Rows()
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "count votes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idx int
		var n int64
		if err := rows.Scan(&idx, &n); err != nil {
			return nil, apperr.Wrap(apperr.Upstream, "count votes", err)
		}
		if idx >= 0 && idx < len(counts) {
			counts[idx] = n
		}
		total += n
	}

	result := &PollResult{Poll: *poll, Counts: counts, TotalVotes: total}

	if user, ok := caller.User(); ok {
		var vote models.Vote
		err := s.db.
			Where("poll_id = ? AND user_id = ?", poll.ID, user.ID).
			First(&vote).Error
		switch {
		case err == nil:
			idx := vote.OptionIndex
			result.VoterIndex = &idx
		case errors.Is(err, gorm.ErrRecordNotFound):
			// caller has not voted
		default:
			return nil, apperr.Wrap(apperr.Upstream, "load vote", err)
		}
	}

	return result, nil
}

// List returns all polls, newest first, through the listing cache. A
// fill is tagged with the generation observed at the miss, so a write
// landing between the miss and the fill drops the fill instead of
// resurrecting pre-write data.
func (s *PollService) List() ([]models.Poll, error) {
	polls, gen, ok := s.listCache.Get()
	if ok {
		return polls, nil
	}

	var fresh []models.Poll
	if err := s.pollQuery().Find(&fresh).Error; err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "list polls", err)
	}

	s.listCache.Put(fresh, gen)
	return fresh, nil
}

// ListMine returns the caller's own polls, newest first.
func (s *PollService) ListMine(caller authz.Caller) ([]models.Poll, error) {
	user, err := s.gate.RequireAuth(caller)
	if err != nil {
		return nil, err
	}

	var polls []models.Poll
	if err := s.pollQuery().Where("user_id = ?", user.ID).Find(&polls).Error; err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "list polls", err)
	}
	return polls, nil
}

// AdminList returns every poll for moderation, newest first.
func (s *PollService) AdminList(caller authz.Caller) ([]models.Poll, error) {
	if _, err := s.gate.RequireAdmin(caller); err != nil {
		return nil, err
	}

	var polls []models.Poll
	if err := s.pollQuery().Find(&polls).Error; err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "list polls", err)
	}
	return polls, nil
}

// AdminDelete removes any poll, with the same votes-first cascade as an
// owner delete.
func (s *PollService) AdminDelete(caller authz.Caller, pollID string) error {
	if _, err := s.gate.RequireAdmin(caller); err != nil {
		return err
	}
	if err := validate.PollID(pollID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return deletePollCascade(tx, pollID, nil)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.Upstream {
			return err
		}
		return apperr.Wrap(apperr.Upstream, "delete poll", err)
	}

	s.listCache.Invalidate()
	return nil
}

// deletePollCascade deletes votes, then options, then the poll row. When
// ownerID is set the poll delete is additionally filtered by owner.
func deletePollCascade(tx *gorm.DB, pollID string, ownerID *uint) error {
	if err := tx.Where("poll_id = ?", pollID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("poll_id = ?", pollID).Delete(&models.Option{}).Error; err != nil {
		return err
	}

	q := tx.Where("id = ?", pollID)
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	res := q.Delete(&models.Poll{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "poll not found")
	}
	return nil
}

func (s *PollService) pollQuery() *gorm.DB {
	return s.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC, id DESC")
}

func (s *PollService) loadPoll(pollID string) (*models.Poll, error) {
	var poll models.Poll
	err := s.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", pollID).
		First(&poll).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "poll not found")
		}
		return nil, apperr.Wrap(apperr.Upstream, "load poll", err)
	}
	return &poll, nil
}

// maxVoteIndex returns the highest option index any vote on pollID uses,
// or -1 when the poll has no votes.
func (s *PollService) maxVoteIndex(pollID string) (int, error) {
	row := s.db.Model(&models.Vote{}).
		Where("poll_id = ?", pollID).
		Select("COALESCE(MAX(option_index), -1)").
		Row()
	var max int
	if err := row.Scan(&max); err != nil {
		return 0, apperr.Wrap(apperr.Upstream, "load votes", err)
	}
	return max, nil
}
