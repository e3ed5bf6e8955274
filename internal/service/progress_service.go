package service

import (
	"errors"

	"coursepulse/internal/model"
	"coursepulse/internal/repository"
)

type ProgressService interface {
	SaveProgress(userID string, req SaveProgressRequest) (*model.VideoProgress, error)
	GetCourseStats(userID, courseID string) (*CourseStats, error)
	Enroll(userID, courseID string) error
	GetEnrolledCourses(userID string) ([]model.Course, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	courseRepo   repository.CourseRepository
}

type SaveProgressRequest struct {
	CourseID string  `json:"course_id" binding:"required"`
	VideoID  string  `json:"video_id" binding:"required"`
	Progress float64 `json:"progress" binding:"min=0,max=100"`
}

// CourseStats is the per-course watch summary: one fraction per video plus a
// total computed over every video the course defines, watched or not.
type CourseStats struct {
	CourseID      string             `json:"course_id"`
	TotalProgress float64            `json:"total_progress"`
	VideoCount    int                `json:"video_count"`
	WatchedCount  int                `json:"watched_count"`
	Videos        map[string]float64 `json:"videos"`
}

func NewProgressService(progressRepo repository.ProgressRepository, courseRepo repository.CourseRepository) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		courseRepo:   courseRepo,
	}
}

// SaveProgress upserts one video's watch position. Reaching 100 percent also
// marks the video fully watched.
func (s *progressService) SaveProgress(userID string, req SaveProgressRequest) (*model.VideoProgress, error) {
	if req.Progress < 0 || req.Progress > 100 {
		return nil, errors.New("progress must be between 0 and 100")
	}

	if _, err := s.courseRepo.FindByID(req.CourseID); err != nil {
		return nil, errors.New("course not found")
	}

	progress := &model.VideoProgress{
		UserID:      userID,
		CourseID:    req.CourseID,
		VideoID:     req.VideoID,
		Progress:    req.Progress,
		FullWatched: req.Progress >= 100,
	}

	if err := s.progressRepo.Upsert(progress); err != nil {
		return nil, errors.New("failed to save progress")
	}

	return progress, nil
}

// GetCourseStats aggregates the user's saved positions over the course's full
// video list. Unwatched videos count as zero, so the total reflects the whole
// course and not just the videos started.
func (s *progressService) GetCourseStats(userID, courseID string) (*CourseStats, error) {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		return nil, errors.New("course not found")
	}

	records, err := s.progressRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, errors.New("failed to load progress")
	}

	videos := make(map[string]float64, len(records))
	watched := 0
	var sum float64
	for _, rec := range records {
		videos[rec.VideoID] = rec.Progress
		sum += rec.Progress
		if rec.FullWatched {
			watched++
		}
	}

	total := 0.0
	videoCount := course.Chapters.VideoCount()
	if videoCount > 0 {
		total = sum / (float64(videoCount) * 100) * 100
	}

	return &CourseStats{
		CourseID:      courseID,
		TotalProgress: total,
		VideoCount:    videoCount,
		WatchedCount:  watched,
		Videos:        videos,
	}, nil
}

func (s *progressService) Enroll(userID, courseID string) error {
	if _, err := s.courseRepo.FindByID(courseID); err != nil {
		return errors.New("course not found")
	}

	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.courseRepo.Enroll(enrollment); err != nil {
		return errors.New("failed to enroll in course")
	}
	return nil
}

func (s *progressService) GetEnrolledCourses(userID string) ([]model.Course, error) {
	return s.courseRepo.FindEnrolledCourses(userID)
}
