package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"coursepulse/internal/model"

	"github.com/google/uuid"
)

// In-memory repository fakes shared across the service tests. All of them
// are safe for concurrent use because the thread service rebuilds in
// goroutines.

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User
	failAll bool
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeUserRepo) FindAll() ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("store unavailable")
	}
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(userID, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.AvatarURL = avatarURL
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(userID string) error { return nil }

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []*model.Comment
	replies  map[string][]model.Reply
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{replies: make(map[string][]model.Reply)}
}

func (r *fakeCommentRepo) Create(comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	stored := *comment
	r.comments = append(r.comments, &stored)
	return nil
}

func (r *fakeCommentRepo) FindByID(id string) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			found := *c
			return &found, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeCommentRepo) FindByScope(scope model.ThreadScope) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Comment
	for _, c := range r.comments {
		if c.Scope() == scope {
			found := *c
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCommentRepo) UpdateText(id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			c.Text = text
			c.Edited = true
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeCommentRepo) UpdateLikeCount(id string, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			c.LikeCount = count
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeCommentRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.comments {
		if c.ID == id {
			r.comments = append(r.comments[:i], r.comments[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeCommentRepo) CountByScope(scope model.ThreadScope) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.comments {
		if c.Scope() == scope {
			n++
		}
	}
	return n, nil
}

func (r *fakeCommentRepo) CreateReply(reply *model.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	r.replies[reply.CommentID] = append(r.replies[reply.CommentID], *reply)
	return nil
}

func (r *fakeCommentRepo) FindReplyByID(id string) (*model.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.replies {
		for _, rep := range list {
			if rep.ID == id {
				found := rep
				return &found, nil
			}
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeCommentRepo) FindRepliesByComment(commentID string) ([]model.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append([]model.Reply(nil), r.replies[commentID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *fakeCommentRepo) UpdateReplyText(id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for commentID, list := range r.replies {
		for i, rep := range list {
			if rep.ID == id {
				list[i].Text = text
				list[i].Edited = true
				r.replies[commentID] = list
				return nil
			}
		}
	}
	return errors.New("record not found")
}

func (r *fakeCommentRepo) DeleteReply(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for commentID, list := range r.replies {
		for i, rep := range list {
			if rep.ID == id {
				r.replies[commentID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return errors.New("record not found")
}

func (r *fakeCommentRepo) DeleteRepliesByComment(commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.replies, commentID)
	return nil
}

type fakeLikeRepo struct {
	mu    sync.Mutex
	likes map[string]map[string]bool // commentID -> userID
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: make(map[string]map[string]bool)}
}

func (r *fakeLikeRepo) Create(like *model.Like) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.likes[like.CommentID] == nil {
		r.likes[like.CommentID] = make(map[string]bool)
	}
	if r.likes[like.CommentID][like.UserID] {
		return errors.New("already liked")
	}
	r.likes[like.CommentID][like.UserID] = true
	return nil
}

func (r *fakeLikeRepo) Exists(commentID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[commentID][userID], nil
}

func (r *fakeLikeRepo) CountByComment(commentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.likes[commentID])), nil
}

func (r *fakeLikeRepo) FindLikedCommentIDs(userID string, commentIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range commentIDs {
		if r.likes[id][userID] {
			out[id] = true
		}
	}
	return out, nil
}

func (r *fakeLikeRepo) DeleteByCommentAndUser(commentID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes[commentID], userID)
	return nil
}

func (r *fakeLikeRepo) DeleteByComment(commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes, commentID)
	return nil
}

type fakeScopeRepo struct {
	mu    sync.Mutex
	paths map[string]bool
}

func newFakeScopeRepo() *fakeScopeRepo {
	return &fakeScopeRepo{paths: make(map[string]bool)}
}

func (r *fakeScopeRepo) RootExists(courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[courseID], nil
}

func (r *fakeScopeRepo) EnsurePath(scope model.ThreadScope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, marker := range scope.MarkerPaths() {
		r.paths[marker.Path] = true
	}
	r.paths[scope.CourseID] = true
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(notification *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *fakeNotificationRepo) FindByID(id string) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeNotificationRepo) FindByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnreadByUserID(userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notif := range r.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkAsRead(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeNotificationRepo) MarkAllAsRead(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeNotificationRepo) DeleteByTargetID(targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*model.Notification
	for _, n := range r.notifications {
		if n.TargetID == nil || *n.TargetID != targetID {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

type fakeCourseRepo struct {
	mu          sync.Mutex
	courses     map[string]*model.Course
	enrollments []*model.Enrollment
}

func newFakeCourseRepo(courses ...*model.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: make(map[string]*model.Course)}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *fakeCourseRepo) Create(course *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	r.courses[course.ID] = course
	return nil
}

func (r *fakeCourseRepo) FindByID(id string) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return c, nil
}

func (r *fakeCourseRepo) Enroll(enrollment *model.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrollments = append(r.enrollments, enrollment)
	return nil
}

func (r *fakeCourseRepo) FindEnrolledCourses(userID string) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Course
	for _, e := range r.enrollments {
		if e.UserID == userID {
			if c, ok := r.courses[e.CourseID]; ok {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[string]*model.VideoProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*model.VideoProgress)}
}

func progressKey(userID, courseID, videoID string) string {
	return userID + "/" + courseID + "/" + videoID
}

func (r *fakeProgressRepo) Upsert(progress *model.VideoProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *progress
	r.records[progressKey(progress.UserID, progress.CourseID, progress.VideoID)] = &stored
	return nil
}

func (r *fakeProgressRepo) FindByUserAndCourse(userID, courseID string) ([]model.VideoProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.VideoProgress
	for _, rec := range r.records {
		if rec.UserID == userID && rec.CourseID == courseID {
			out = append(out, *rec)
		}
	}
	return out, nil
}
