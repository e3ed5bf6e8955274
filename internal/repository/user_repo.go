package repository

import (
	"encoding/json"
	"time"

	"coursepulse/internal/model"
	"coursepulse/internal/util"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindAll() ([]model.User, error)
	Update(user *model.User) error
	UpdateAvatar(userID, avatarURL string) error
	UpdateLastLogin(userID string) error
}

type userRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	userDirectoryCacheKey    = "users:directory"
	userDirectoryCacheExpiry = 5 * time.Minute
)

func NewUserRepository(db *gorm.DB, redis *util.RedisClient) UserRepository {
	return &userRepository{db: db, redis: redis}
}

func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return err
	}
	r.invalidateDirectoryCache()
	return nil
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll loads every active user. The participant directory assumes the
// registered-user set is small enough to load wholesale.
func (r *userRepository) FindAll() ([]model.User, error) {
	// Try cache first
	if r.redis != nil {
		cached, err := r.redis.Get(userDirectoryCacheKey)
		if err == nil {
			var users []model.User
			if json.Unmarshal([]byte(cached), &users) == nil {
				return users, nil
			}
		}
	}

	var users []model.User
	err := r.db.Where("is_active = ?", true).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		if usersJSON, err := json.Marshal(users); err == nil {
			r.redis.Set(userDirectoryCacheKey, string(usersJSON), userDirectoryCacheExpiry)
		}
	}

	return users, nil
}

func (r *userRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return err
	}
	r.invalidateDirectoryCache()
	return nil
}

func (r *userRepository) UpdateAvatar(userID, avatarURL string) error {
	err := r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("avatar_url", avatarURL).Error
	if err != nil {
		return err
	}
	r.invalidateDirectoryCache()
	return nil
}

func (r *userRepository) UpdateLastLogin(userID string) error {
	now := time.Now()
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", now).Error
}

func (r *userRepository) invalidateDirectoryCache() {
	if r.redis == nil {
		return
	}
	r.redis.Delete(userDirectoryCacheKey)
}
