package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID          string      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Chapters    ChapterList `gorm:"type:jsonb" json:"chapters"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Course) TableName() string {
	return "courses"
}

// ChapterList is the course structure document: chapters contain topics,
// topics contain video links. Stored as a single JSONB column.
type ChapterList []Chapter

type Chapter struct {
	ChapterName string  `json:"chapter_name"`
	Topics      []Topic `json:"topics"`
}

type Topic struct {
	TopicName  string      `json:"topic_name"`
	VideoLinks []VideoLink `json:"video_links"`
}

type VideoLink struct {
	ID          string `json:"id"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
}

func (l ChapterList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ChapterList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported type for ChapterList")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, l)
}

// VideoCount returns the number of videos across all chapters and topics.
func (l ChapterList) VideoCount() int {
	count := 0
	for _, ch := range l {
		for _, t := range ch.Topics {
			count += len(t.VideoLinks)
		}
	}
	return count
}

// Enrollment links a user to a course they are taking.
type Enrollment struct {
	ID        string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	CourseID  string    `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
}

// BeforeCreate hook to generate UUID
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Enrollment) TableName() string {
	return "enrollments"
}
