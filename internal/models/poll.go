package models

import "time"

// Poll is a question with an ordered list of options, owned by the user
// who created it.
type Poll struct {
	ID        string `gorm:"primaryKey;size:36"` // UUID
	UserID    uint   `gorm:"index;not null"`
	Question  string `gorm:"size:500;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Options []Option `gorm:"foreignKey:PollID;references:ID"`
}

// Option is one selectable answer. Position preserves the order the
// creator supplied; votes reference options by that position.
type Option struct {
	ID       uint   `gorm:"primaryKey"`
	PollID   string `gorm:"size:36;index;not null"`
	Position int    `gorm:"not null"`
	Text     string `gorm:"size:200;not null"`
}
