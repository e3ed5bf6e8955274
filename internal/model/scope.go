package model

import (
	"time"
)

// ThreadScope identifies one video's comment thread by its four-level path
// under the courseComments namespace: course -> chapter -> topic -> video.
type ThreadScope struct {
	CourseID    string `json:"course_id"`
	ChapterName string `json:"chapter_name"`
	TopicName   string `json:"topic_name"`
	VideoID     string `json:"video_id"`
}

// Valid reports whether every segment of the scope is non-empty. Reads and
// writes must not be attempted against a partially specified scope.
func (s ThreadScope) Valid() bool {
	return s.CourseID != "" && s.ChapterName != "" && s.TopicName != "" && s.VideoID != ""
}

// Key returns the deterministic path key for the scope's video level.
func (s ThreadScope) Key() string {
	return s.CourseID + "/" + s.ChapterName + "/" + s.TopicName + "/" + s.VideoID
}

// Scope level constants, outermost first.
const (
	ScopeLevelCourse  = "course"
	ScopeLevelChapter = "chapter"
	ScopeLevelTopic   = "topic"
	ScopeLevelVideo   = "video"
)

// ScopeMarker is a placeholder document marking that one level of a thread
// scope path exists. Markers use the path itself as the key, so creating
// them repeatedly is safe.
type ScopeMarker struct {
	Path      string    `gorm:"type:varchar(1024);primary_key" json:"path"`
	Level     string    `gorm:"type:varchar(20);not null;index" json:"level"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (ScopeMarker) TableName() string {
	return "scope_markers"
}

// MarkerPaths returns the deterministic marker path for every level of the
// scope, outermost first.
func (s ThreadScope) MarkerPaths() []ScopeMarker {
	return []ScopeMarker{
		{Path: s.CourseID, Level: ScopeLevelCourse},
		{Path: s.CourseID + "/" + s.ChapterName, Level: ScopeLevelChapter},
		{Path: s.CourseID + "/" + s.ChapterName + "/" + s.TopicName, Level: ScopeLevelTopic},
		{Path: s.Key(), Level: ScopeLevelVideo},
	}
}
