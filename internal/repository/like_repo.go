package repository

import (
	"errors"

	"coursepulse/internal/model"
	"coursepulse/internal/util"

	"gorm.io/gorm"
)

type LikeRepository interface {
	Create(like *model.Like) error
	Exists(commentID, userID string) (bool, error)
	CountByComment(commentID string) (int64, error)
	FindLikedCommentIDs(userID string, commentIDs []string) (map[string]bool, error)
	DeleteByCommentAndUser(commentID, userID string) error
	DeleteByComment(commentID string) error
}

type likeRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

func NewLikeRepository(db *gorm.DB, redis *util.RedisClient) LikeRepository {
	return &likeRepository{db: db, redis: redis}
}

// Create records a like. The (comment, user) composite key enforces at most
// one like per user per comment; a duplicate create is reported as such.
func (r *likeRepository) Create(like *model.Like) error {
	err := r.db.Create(like).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.New("already liked")
	}
	return err
}

// Exists reports whether the user holds a like on the comment
func (r *likeRepository) Exists(commentID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Like{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByComment counts likes without transferring the rows
func (r *likeRepository) CountByComment(commentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Like{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count, err
}

// FindLikedCommentIDs returns which of the given comments the user has liked
func (r *likeRepository) FindLikedCommentIDs(userID string, commentIDs []string) (map[string]bool, error) {
	if len(commentIDs) == 0 {
		return map[string]bool{}, nil
	}
	var likes []model.Like
	err := r.db.Select("comment_id").
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]bool)
	for _, like := range likes {
		m[like.CommentID] = true
	}
	return m, nil
}

// DeleteByCommentAndUser removes one user's like on a comment (unlike)
func (r *likeRepository) DeleteByCommentAndUser(commentID, userID string) error {
	return r.db.
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&model.Like{}).Error
}

// DeleteByComment removes every like on a comment (delete cascade)
func (r *likeRepository) DeleteByComment(commentID string) error {
	return r.db.Where("comment_id = ?", commentID).Delete(&model.Like{}).Error
}
