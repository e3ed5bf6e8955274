package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"coursepulse/internal/model"
	"coursepulse/internal/util"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(id string) (*model.Comment, error)
	FindByScope(scope model.ThreadScope) ([]*model.Comment, error)
	UpdateText(id, text string) error
	UpdateLikeCount(id string, count int64) error
	Delete(id string) error
	CountByScope(scope model.ThreadScope) (int64, error)

	CreateReply(reply *model.Reply) error
	FindReplyByID(id string) (*model.Reply, error)
	FindRepliesByComment(commentID string) ([]model.Reply, error)
	UpdateReplyText(id, text string) error
	DeleteReply(id string) error
	DeleteRepliesByComment(commentID string) error
}

type commentRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	commentByScopeCachePrefix = "comment:scope:"
	commentCacheExpiration    = 15 * time.Minute
)

func NewCommentRepository(db *gorm.DB, redis *util.RedisClient) CommentRepository {
	return &commentRepository{
		db:    db,
		redis: redis,
	}
}

// Create creates a new comment and invalidates the scope cache
func (r *commentRepository) Create(comment *model.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateScopeCache(comment.Scope())
	}

	return nil
}

// FindByID finds a comment by ID
func (r *commentRepository) FindByID(id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindByScope finds all comments in one thread scope. Replies are not
// preloaded here; the synchronizer fetches them per comment.
func (r *commentRepository) FindByScope(scope model.ThreadScope) ([]*model.Comment, error) {
	// Try cache first
	cacheKey := commentByScopeCachePrefix + scope.Key()
	if r.redis != nil {
		cached, err := r.getListFromCache(cacheKey)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var comments []*model.Comment
	err := r.db.
		Where("course_id = ? AND chapter_name = ? AND topic_name = ? AND video_id = ?",
			scope.CourseID, scope.ChapterName, scope.TopicName, scope.VideoID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		r.cacheCommentList(cacheKey, comments)
	}

	return comments, nil
}

// UpdateText updates a comment's text and marks it edited. Author and
// creation timestamp are immutable after creation.
func (r *commentRepository) UpdateText(id, text string) error {
	comment, err := r.FindByID(id)
	if err != nil {
		return err
	}

	err = r.db.Model(&model.Comment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":   text,
			"edited": true,
		}).Error
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateScopeCache(comment.Scope())
	}

	return nil
}

// UpdateLikeCount writes the persisted like counter on a comment
func (r *commentRepository) UpdateLikeCount(id string, count int64) error {
	comment, err := r.FindByID(id)
	if err != nil {
		return err
	}

	err = r.db.Model(&model.Comment{}).
		Where("id = ?", id).
		Update("like_count", count).Error
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateScopeCache(comment.Scope())
	}

	return nil
}

// Delete removes a comment and invalidates the scope cache. Cascading of
// likes and replies is handled by the service layer.
func (r *commentRepository) Delete(id string) error {
	comment, err := r.FindByID(id)
	if err != nil {
		return err
	}

	if err := r.db.Delete(&model.Comment{}, "id = ?", id).Error; err != nil {
		return err
	}

	if r.redis != nil {
		r.invalidateScopeCache(comment.Scope())
	}

	return nil
}

// CountByScope counts comments in one thread scope without loading them
func (r *commentRepository) CountByScope(scope model.ThreadScope) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).
		Where("course_id = ? AND chapter_name = ? AND topic_name = ? AND video_id = ?",
			scope.CourseID, scope.ChapterName, scope.TopicName, scope.VideoID).
		Count(&count).Error
	return count, err
}

// CreateReply creates a reply under its parent comment
func (r *commentRepository) CreateReply(reply *model.Reply) error {
	if err := r.db.Create(reply).Error; err != nil {
		return err
	}
	r.invalidateByCommentID(reply.CommentID)
	return nil
}

// FindReplyByID finds a reply by ID
func (r *commentRepository) FindReplyByID(id string) (*model.Reply, error) {
	var reply model.Reply
	err := r.db.Where("id = ?", id).First(&reply).Error
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// FindRepliesByComment fetches the full reply list for a comment. The store
// does not guarantee insertion order, so replies carry their own timestamp
// and are sorted ascending for display.
func (r *commentRepository) FindRepliesByComment(commentID string) ([]model.Reply, error) {
	var replies []model.Reply
	err := r.db.Where("comment_id = ?", commentID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

// UpdateReplyText updates a reply's text and marks it edited
func (r *commentRepository) UpdateReplyText(id, text string) error {
	reply, err := r.FindReplyByID(id)
	if err != nil {
		return err
	}

	err = r.db.Model(&model.Reply{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":   text,
			"edited": true,
		}).Error
	if err != nil {
		return err
	}

	r.invalidateByCommentID(reply.CommentID)
	return nil
}

// DeleteReply removes a single reply
func (r *commentRepository) DeleteReply(id string) error {
	reply, err := r.FindReplyByID(id)
	if err != nil {
		return err
	}

	if err := r.db.Delete(&model.Reply{}, "id = ?", id).Error; err != nil {
		return err
	}

	r.invalidateByCommentID(reply.CommentID)
	return nil
}

// DeleteRepliesByComment removes every reply under a comment (delete cascade)
func (r *commentRepository) DeleteRepliesByComment(commentID string) error {
	return r.db.Where("comment_id = ?", commentID).Delete(&model.Reply{}).Error
}

// Cache helpers
func (r *commentRepository) cacheCommentList(key string, comments []*model.Comment) {
	if r.redis == nil {
		return
	}

	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return
	}

	r.redis.Set(key, string(commentsJSON), commentCacheExpiration)
}

func (r *commentRepository) getListFromCache(key string) ([]*model.Comment, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var comments []*model.Comment
	if err := json.Unmarshal([]byte(cached), &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) invalidateScopeCache(scope model.ThreadScope) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(commentByScopeCachePrefix + scope.Key())
}

func (r *commentRepository) invalidateByCommentID(commentID string) {
	if r.redis == nil {
		return
	}
	comment, err := r.FindByID(commentID)
	if err != nil {
		return
	}
	r.invalidateScopeCache(comment.Scope())
}
