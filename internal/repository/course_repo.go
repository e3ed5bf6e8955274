package repository

import (
	"encoding/json"
	"time"

	"coursepulse/internal/model"
	"coursepulse/internal/util"

	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(course *model.Course) error
	FindByID(id string) (*model.Course, error)
	Enroll(enrollment *model.Enrollment) error
	FindEnrolledCourses(userID string) ([]model.Course, error)
}

type courseRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	courseCachePrefix     = "course:"
	courseCacheExpiration = 30 * time.Minute
)

func NewCourseRepository(db *gorm.DB, redis *util.RedisClient) CourseRepository {
	return &courseRepository{db: db, redis: redis}
}

func (r *courseRepository) Create(course *model.Course) error {
	if err := r.db.Create(course).Error; err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Delete(courseCachePrefix + course.ID)
	}
	return nil
}

func (r *courseRepository) FindByID(id string) (*model.Course, error) {
	// Try cache first
	if r.redis != nil {
		cached, err := r.redis.Get(courseCachePrefix + id)
		if err == nil {
			var course model.Course
			if json.Unmarshal([]byte(cached), &course) == nil {
				return &course, nil
			}
		}
	}

	var course model.Course
	err := r.db.Where("id = ?", id).First(&course).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		if courseJSON, err := json.Marshal(&course); err == nil {
			r.redis.Set(courseCachePrefix+id, string(courseJSON), courseCacheExpiration)
		}
	}

	return &course, nil
}

func (r *courseRepository) Enroll(enrollment *model.Enrollment) error {
	return r.db.Create(enrollment).Error
}

// FindEnrolledCourses lists every course the user is enrolled in
func (r *courseRepository) FindEnrolledCourses(userID string) ([]model.Course, error) {
	var enrollments []model.Enrollment
	err := r.db.Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	courses := make([]model.Course, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course.ID == "" {
			// Enrollment pointing at a deleted course
			continue
		}
		courses = append(courses, e.Course)
	}
	return courses, nil
}
