package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoProgress tracks how much of one video a user has watched. Saved on
// pause and on end with merge semantics, so partial updates never clear
// fields written earlier.
type VideoProgress struct {
	ID          string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index:idx_user_course_video,unique" json:"user_id"`
	CourseID    string    `gorm:"type:uuid;not null;index:idx_user_course_video,unique" json:"course_id"`
	VideoID     string    `gorm:"type:varchar(255);not null;index:idx_user_course_video,unique" json:"video_id"`
	Progress    float64   `gorm:"type:double precision;default:0" json:"progress"` // 0..100
	FullWatched bool      `gorm:"default:false" json:"full_watched"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (p *VideoProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (VideoProgress) TableName() string {
	return "video_progress"
}
