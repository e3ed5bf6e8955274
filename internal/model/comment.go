package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID          string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CourseID    string    `gorm:"type:varchar(255);not null;index:idx_comment_scope" json:"course_id"`
	ChapterName string    `gorm:"type:varchar(255);not null;index:idx_comment_scope" json:"chapter_name"`
	TopicName   string    `gorm:"type:varchar(255);not null;index:idx_comment_scope" json:"topic_name"`
	VideoID     string    `gorm:"type:varchar(255);not null;index:idx_comment_scope" json:"video_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	AuthorID    string    `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName  string    `gorm:"type:varchar(255);not null" json:"author_name"`
	AvatarURL   string    `gorm:"type:text" json:"avatar_url"`
	Edited      bool      `gorm:"default:false" json:"edited"`
	LikeCount   int64     `gorm:"default:0" json:"like_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Replies []Reply `gorm:"foreignKey:CommentID;references:ID" json:"replies"`
}

// BeforeCreate hook to generate UUID
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Comment) TableName() string {
	return "comments"
}

// Scope returns the thread scope the comment belongs to.
func (c *Comment) Scope() ThreadScope {
	return ThreadScope{
		CourseID:    c.CourseID,
		ChapterName: c.ChapterName,
		TopicName:   c.TopicName,
		VideoID:     c.VideoID,
	}
}

type Reply struct {
	ID         string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CommentID  string    `gorm:"type:uuid;not null;index" json:"comment_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	AuthorID   string    `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName string    `gorm:"type:varchar(255);not null" json:"author_name"`
	AvatarURL  string    `gorm:"type:text" json:"avatar_url"`
	Role       string    `gorm:"type:varchar(20)" json:"role"` // render styling only, e.g. "admin"
	Edited     bool      `gorm:"default:false" json:"edited"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (r *Reply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Reply) TableName() string {
	return "replies"
}
