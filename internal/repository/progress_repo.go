package repository

import (
	"coursepulse/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	Upsert(progress *model.VideoProgress) error
	FindByUserAndCourse(userID, courseID string) ([]model.VideoProgress, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// Upsert writes progress for one (user, course, video) with merge semantics:
// an existing row is updated in place, never recreated.
func (r *progressRepository) Upsert(progress *model.VideoProgress) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "course_id"}, {Name: "video_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "full_watched", "updated_at"}),
	}).Create(progress).Error
}

// FindByUserAndCourse lists all saved video progress for a user in a course
func (r *progressRepository) FindByUserAndCourse(userID, courseID string) ([]model.VideoProgress, error) {
	var rows []model.VideoProgress
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
