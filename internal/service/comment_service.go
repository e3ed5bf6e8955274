package service

import (
	"errors"
	"log"
	"strings"

	"coursepulse/internal/model"
	"coursepulse/internal/repository"
)

type CommentService interface {
	CreateComment(userID string, req CreateCommentRequest) (*model.Comment, error)
	EditComment(userID, commentID, text string) (*model.Comment, error)
	DeleteComment(userID, commentID string) error
	ToggleLike(userID, commentID string) (*LikeResult, error)
	CreateReply(userID string, req CreateReplyRequest) (*model.Reply, error)
	EditReply(userID, replyID, text string) (*model.Reply, error)
	DeleteReply(userID, replyID string) error
}

type commentService struct {
	commentRepo         repository.CommentRepository
	likeRepo            repository.LikeRepository
	scopeRepo           repository.ScopeRepository
	authService         AuthService
	directory           DirectoryService
	threadService       ThreadService
	notificationService NotificationService
}

type CreateCommentRequest struct {
	CourseID    string `json:"course_id" binding:"required"`
	ChapterName string `json:"chapter_name" binding:"required"`
	TopicName   string `json:"topic_name" binding:"required"`
	VideoID     string `json:"video_id" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

type CreateReplyRequest struct {
	CommentID string `json:"comment_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

type LikeResult struct {
	CommentID string `json:"comment_id"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	scopeRepo repository.ScopeRepository,
	authService AuthService,
	directory DirectoryService,
	threadService ThreadService,
	notificationService NotificationService,
) CommentService {
	return &commentService{
		commentRepo:         commentRepo,
		likeRepo:            likeRepo,
		scopeRepo:           scopeRepo,
		authService:         authService,
		directory:           directory,
		threadService:       threadService,
		notificationService: notificationService,
	}
}

// CreateComment publishes a top-level comment into a thread scope. The text
// is rejected before any write if it is empty after trimming; mention trigger
// tokens are rewritten to their display form before storing.
func (s *commentService) CreateComment(userID string, req CreateCommentRequest) (*model.Comment, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("comment text cannot be empty")
	}

	scope := model.ThreadScope{
		CourseID:    req.CourseID,
		ChapterName: req.ChapterName,
		TopicName:   req.TopicName,
		VideoID:     req.VideoID,
	}
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}

	text := s.directory.ResolveMentionTokens(req.Text)

	// Scope path markers are created lazily on first comment. Creation is
	// idempotent, so a concurrent first comment is harmless.
	exists, err := s.scopeRepo.RootExists(scope.CourseID)
	if err != nil || !exists {
		if err != nil {
			log.Printf("Failed to check scope root for %s: %v", scope.CourseID, err)
		}
		if err := s.scopeRepo.EnsurePath(scope); err != nil {
			log.Printf("Failed to ensure scope path %s: %v", scope.Key(), err)
		}
	}

	profile := s.authService.ResolveProfile(userID)

	comment := &model.Comment{
		CourseID:    scope.CourseID,
		ChapterName: scope.ChapterName,
		TopicName:   scope.TopicName,
		VideoID:     scope.VideoID,
		Text:        text,
		AuthorID:    userID,
		AuthorName:  profile.Name,
		AvatarURL:   profile.AvatarURL,
		LikeCount:   0,
		Replies:     []model.Reply{},
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, errors.New("failed to create comment")
	}

	// The write succeeded, so the comment can appear immediately; the next
	// rebuild reconciles it with the stored row.
	s.threadService.StageComment(comment)
	s.threadService.Invalidate(scope)

	if s.notificationService != nil {
		for _, mentionedID := range s.directory.MentionedIDs(text) {
			if mentionedID == userID {
				continue
			}
			go func(receiverID string) {
				if err := s.notificationService.SendMentionNotification(receiverID, userID, profile.Name, comment.ID, scope, text); err != nil {
					log.Printf("Failed to send mention notification: %v", err)
				}
			}(mentionedID)
		}
	}

	return comment, nil
}

// EditComment replaces a comment's text. Only the author may edit; authorship
// and creation time never change.
func (s *commentService) EditComment(userID, commentID, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("comment text cannot be empty")
	}

	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, errors.New("comment not found")
	}
	if comment.AuthorID != userID {
		return nil, errors.New("you can only edit your own comments")
	}

	resolved := s.directory.ResolveMentionTokens(text)
	if err := s.commentRepo.UpdateText(commentID, resolved); err != nil {
		return nil, errors.New("failed to update comment")
	}

	comment.Text = resolved
	comment.Edited = true
	s.threadService.StageEdit(comment.Scope(), commentID, resolved)
	s.threadService.Invalidate(comment.Scope())

	return comment, nil
}

// DeleteComment removes a comment with everything hanging off it: replies,
// likes, and notifications that pointed at it.
func (s *commentService) DeleteComment(userID, commentID string) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return errors.New("comment not found")
	}
	if comment.AuthorID != userID {
		return errors.New("you can only delete your own comments")
	}

	scope := comment.Scope()

	if err := s.commentRepo.Delete(commentID); err != nil {
		return errors.New("failed to delete comment")
	}

	// Dependent rows are cleaned up best effort; an orphaned like or reply
	// row is invisible once the comment is gone.
	if err := s.likeRepo.DeleteByComment(commentID); err != nil {
		log.Printf("Failed to delete likes for comment %s: %v", commentID, err)
	}
	if err := s.commentRepo.DeleteRepliesByComment(commentID); err != nil {
		log.Printf("Failed to delete replies for comment %s: %v", commentID, err)
	}
	if s.notificationService != nil {
		go s.notificationService.RemoveByTarget(commentID)
	}

	s.threadService.StageRemoval(scope, commentID)
	s.threadService.Invalidate(scope)

	return nil
}

// ToggleLike flips the caller's like on a comment. The stored count is
// recomputed from the like rows rather than blindly incremented, so a stale
// denormalized count self-corrects on the next toggle.
func (s *commentService) ToggleLike(userID, commentID string) (*LikeResult, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, errors.New("comment not found")
	}

	liked, err := s.likeRepo.Exists(commentID, userID)
	if err != nil {
		return nil, errors.New("failed to check like status")
	}

	if liked {
		if err := s.likeRepo.DeleteByCommentAndUser(commentID, userID); err != nil {
			return nil, errors.New("failed to remove like")
		}
	} else {
		like := &model.Like{CommentID: commentID, UserID: userID}
		if err := s.likeRepo.Create(like); err != nil {
			return nil, errors.New("failed to add like")
		}
	}

	count, err := s.likeRepo.CountByComment(commentID)
	if err != nil {
		return nil, errors.New("failed to count likes")
	}
	if err := s.commentRepo.UpdateLikeCount(commentID, count); err != nil {
		log.Printf("Failed to update like count for comment %s: %v", commentID, err)
	}

	s.threadService.Invalidate(comment.Scope())

	return &LikeResult{CommentID: commentID, Liked: !liked, LikeCount: count}, nil
}

// CreateReply attaches a reply to an existing comment. Reply text is stored
// as typed; mentions are not resolved in replies.
func (s *commentService) CreateReply(userID string, req CreateReplyRequest) (*model.Reply, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("reply text cannot be empty")
	}

	comment, err := s.commentRepo.FindByID(req.CommentID)
	if err != nil {
		return nil, errors.New("comment not found")
	}

	profile := s.authService.ResolveProfile(userID)

	reply := &model.Reply{
		CommentID:  req.CommentID,
		Text:       req.Text,
		AuthorID:   userID,
		AuthorName: profile.Name,
		AvatarURL:  profile.AvatarURL,
		Role:       profile.Role,
	}

	if err := s.commentRepo.CreateReply(reply); err != nil {
		return nil, errors.New("failed to create reply")
	}

	s.threadService.StageReply(comment.Scope(), reply)
	s.threadService.Invalidate(comment.Scope())

	if s.notificationService != nil && comment.AuthorID != userID {
		go func() {
			if err := s.notificationService.SendReplyNotification(comment.AuthorID, userID, profile.Name, comment.ID, comment.Scope(), req.Text); err != nil {
				log.Printf("Failed to send reply notification: %v", err)
			}
		}()
	}

	return reply, nil
}

func (s *commentService) EditReply(userID, replyID, text string) (*model.Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("reply text cannot be empty")
	}

	reply, err := s.commentRepo.FindReplyByID(replyID)
	if err != nil {
		return nil, errors.New("reply not found")
	}
	if reply.AuthorID != userID {
		return nil, errors.New("you can only edit your own replies")
	}

	if err := s.commentRepo.UpdateReplyText(replyID, text); err != nil {
		return nil, errors.New("failed to update reply")
	}

	reply.Text = text
	reply.Edited = true
	s.invalidateForReply(reply)

	return reply, nil
}

func (s *commentService) DeleteReply(userID, replyID string) error {
	reply, err := s.commentRepo.FindReplyByID(replyID)
	if err != nil {
		return errors.New("reply not found")
	}
	if reply.AuthorID != userID {
		return errors.New("you can only delete your own replies")
	}

	if err := s.commentRepo.DeleteReply(replyID); err != nil {
		return errors.New("failed to delete reply")
	}

	s.invalidateForReply(reply)
	return nil
}

func (s *commentService) invalidateForReply(reply *model.Reply) {
	comment, err := s.commentRepo.FindByID(reply.CommentID)
	if err != nil {
		log.Printf("Failed to load parent comment %s: %v", reply.CommentID, err)
		return
	}
	s.threadService.Invalidate(comment.Scope())
}
