package repository

import (
	"coursepulse/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScopeRepository interface {
	RootExists(courseID string) (bool, error)
	EnsurePath(scope model.ThreadScope) error
}

type scopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) ScopeRepository {
	return &scopeRepository{db: db}
}

// RootExists checks whether the course-level scope marker exists
func (r *scopeRepository) RootExists(courseID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.ScopeMarker{}).
		Where("path = ?", courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsurePath creates the placeholder marker for every level of the scope
// path. Markers use the path itself as the primary key, so the operation is
// idempotent and safe to call before every first write into a scope.
func (r *scopeRepository) EnsurePath(scope model.ThreadScope) error {
	for _, marker := range scope.MarkerPaths() {
		m := marker
		err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
		if err != nil {
			return err
		}
	}
	return nil
}
