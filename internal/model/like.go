package model

import (
	"time"
)

// Like records that one user has liked one comment. The (comment, user)
// pair is the key, so a user can hold at most one like per comment.
type Like struct {
	CommentID string    `gorm:"type:uuid;primary_key" json:"comment_id"`
	UserID    string    `gorm:"type:uuid;primary_key" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Like) TableName() string {
	return "likes"
}
