package models

import "time"

// Vote records one user's selection on one poll. The unique index on
// (poll_id, user_id) closes the duplicate-vote race at the storage layer;
// two concurrent submissions cannot both commit.
type Vote struct {
	ID          uint   `gorm:"primaryKey"`
	PollID      string `gorm:"size:36;not null;uniqueIndex:idx_votes_poll_user"`
	UserID      uint   `gorm:"not null;uniqueIndex:idx_votes_poll_user"`
	OptionIndex int    `gorm:"not null"`
	CreatedAt   time.Time
}
