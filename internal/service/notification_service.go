package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"coursepulse/internal/model"
	"coursepulse/internal/repository"
	"coursepulse/internal/util"
)

type NotificationService interface {
	SendMentionNotification(receiverID, senderID, senderName, commentID string, scope model.ThreadScope, text string) error
	SendReplyNotification(receiverID, senderID, senderName, commentID string, scope model.ThreadScope, text string) error
	GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(notificationID, userID string) error
	RemoveByTarget(targetID string)
	SetWSHub(hub interface {
		BroadcastToUser(string, map[string]interface{})
	})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	rabbitMQ  *util.RabbitMQClient
	wsHub     interface {
		BroadcastToUser(string, map[string]interface{})
	}
}

// NotificationMessage is the RabbitMQ payload handed to the worker.
type NotificationMessage struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	NotificationQueueName  = "notification_queue"
	NotificationExchange   = "notification_exchange"
	NotificationRoutingKey = "notification"
)

func NewNotificationService(notifRepo repository.NotificationRepository, rabbitMQ *util.RabbitMQClient) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		rabbitMQ:  rabbitMQ,
		wsHub:     nil, // Will be set via SetWSHub
	}
}

// SetWSHub sets the WebSocket hub for realtime notifications
func (s *notificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
	s.wsHub = hub
}

func (s *notificationService) SendMentionNotification(receiverID, senderID, senderName, commentID string, scope model.ThreadScope, text string) error {
	return s.sendNotification(
		receiverID,
		model.NotificationTypeMention,
		"You were mentioned",
		fmt.Sprintf("%s mentioned you in a comment", senderName),
		map[string]interface{}{
			"sender_id":    senderID,
			"target_id":    commentID,
			"course_id":    scope.CourseID,
			"chapter_name": scope.ChapterName,
			"topic_name":   scope.TopicName,
			"video_id":     scope.VideoID,
			"text":         truncate(text, 200),
		},
	)
}

func (s *notificationService) SendReplyNotification(receiverID, senderID, senderName, commentID string, scope model.ThreadScope, text string) error {
	return s.sendNotification(
		receiverID,
		model.NotificationTypeCommentReply,
		"New reply",
		fmt.Sprintf("%s replied to your comment", senderName),
		map[string]interface{}{
			"sender_id":    senderID,
			"target_id":    commentID,
			"course_id":    scope.CourseID,
			"chapter_name": scope.ChapterName,
			"topic_name":   scope.TopicName,
			"video_id":     scope.VideoID,
			"text":         truncate(text, 200),
		},
	)
}

// sendNotification persists the notification, then queues it for async
// WebSocket delivery. A queue failure is logged, not returned; the row is
// already stored.
func (s *notificationService) sendNotification(userID, notifType, title, message string, data map[string]interface{}) error {
	notification := &model.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		IsRead:  false,
	}

	if data != nil {
		if senderID, ok := data["sender_id"].(string); ok {
			notification.SenderID = &senderID
		}
		if targetID, ok := data["target_id"].(string); ok {
			notification.TargetID = &targetID
		}
		if dataJSON, err := json.Marshal(data); err == nil {
			notification.Data = string(dataJSON)
		}
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.rabbitMQ != nil {
		msg := NotificationMessage{
			UserID:    userID,
			Type:      notifType,
			Title:     title,
			Message:   message,
			Data:      data,
			Timestamp: time.Now(),
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
			return nil
		}

		if err := s.rabbitMQ.Publish(NotificationExchange, NotificationRoutingKey, msgJSON); err != nil {
			log.Printf("Failed to publish notification to RabbitMQ: %v", err)
			// Notification is already saved in DB
		}
		return nil
	}

	// No queue available; push straight to the hub.
	if s.wsHub != nil {
		s.wsHub.BroadcastToUser(userID, map[string]interface{}{
			"id":      notification.ID,
			"user_id": notification.UserID,
			"type":    notification.Type,
			"title":   notification.Title,
			"message": notification.Message,
			"data":    data,
			"is_read": false,
		})
	}

	return nil
}

func (s *notificationService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.notifRepo.FindByUserID(userID, limit, offset)
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.CountUnreadByUserID(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	notification, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		return errors.New("notification not found")
	}
	if notification.UserID != userID {
		return errors.New("you can only mark your own notifications as read")
	}
	return s.notifRepo.MarkAsRead(notificationID)
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID string) error {
	notification, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		return errors.New("notification not found")
	}
	if notification.UserID != userID {
		return errors.New("you can only delete your own notifications")
	}
	return s.notifRepo.Delete(notificationID)
}

// RemoveByTarget clears notifications that point at a deleted comment.
func (s *notificationService) RemoveByTarget(targetID string) {
	if err := s.notifRepo.DeleteByTargetID(targetID); err != nil {
		log.Printf("Failed to delete notifications for target %s: %v", targetID, err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
