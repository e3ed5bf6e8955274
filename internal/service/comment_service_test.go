package service

import (
	"testing"
	"time"

	"coursepulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentServiceFixture struct {
	commentRepo *fakeCommentRepo
	likeRepo    *fakeLikeRepo
	scopeRepo   *fakeScopeRepo
	notifRepo   *fakeNotificationRepo
	directory   DirectoryService
	threads     ThreadService
	service     CommentService
}

func newCommentServiceFixture(t *testing.T, users ...*model.User) *commentServiceFixture {
	t.Helper()

	userRepo := newFakeUserRepo(users...)
	commentRepo := newFakeCommentRepo()
	likeRepo := newFakeLikeRepo()
	scopeRepo := newFakeScopeRepo()
	notifRepo := newFakeNotificationRepo()

	authService := NewAuthService(userRepo, "test-secret", "https://cdn.example.com/default.png")
	directory := NewDirectoryService(userRepo)
	threads := NewThreadService(commentRepo, likeRepo, directory, nil)
	notifications := NewNotificationService(notifRepo, nil)

	return &commentServiceFixture{
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		scopeRepo:   scopeRepo,
		notifRepo:   notifRepo,
		directory:   directory,
		threads:     threads,
		service:     NewCommentService(commentRepo, likeRepo, scopeRepo, authService, directory, threads, notifications),
	}
}

func createRequest(text string) CreateCommentRequest {
	scope := testScope()
	return CreateCommentRequest{
		CourseID:    scope.CourseID,
		ChapterName: scope.ChapterName,
		TopicName:   scope.TopicName,
		VideoID:     scope.VideoID,
		Text:        text,
	}
}

func TestCreateCommentRejectsEmptyText(t *testing.T) {
	f := newCommentServiceFixture(t)

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := f.service.CreateComment("u1", createRequest(text))
		assert.Error(t, err)
	}

	// Nothing was written.
	count, err := f.commentRepo.CountByScope(testScope())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateCommentResolvesMentionsAndDefaults(t *testing.T) {
	f := newCommentServiceFixture(t,
		&model.User{ID: "u1", Name: "alice", AvatarURL: "https://cdn.example.com/alice.png"},
		&model.User{ID: "u2", Name: "bob"},
	)

	comment, err := f.service.CreateComment("u1", createRequest("hello $bob"))
	require.NoError(t, err)

	assert.Equal(t, "hello @bob", comment.Text)
	assert.Equal(t, "alice", comment.AuthorName)
	assert.Equal(t, "https://cdn.example.com/alice.png", comment.AvatarURL)
	assert.Zero(t, comment.LikeCount)
	assert.Empty(t, comment.Replies)

	// Scope markers were created for the first comment.
	exists, err := f.scopeRepo.RootExists(testScope().CourseID)
	require.NoError(t, err)
	assert.True(t, exists)

	// The new comment is immediately visible at the front of the thread.
	view, err := f.threads.View(testScope(), Viewer{ID: "u2", Name: "bob"}, SortNewest)
	require.NoError(t, err)
	require.NotEmpty(t, view.Comments)
	assert.Equal(t, comment.ID, view.Comments[0].ID)
	assert.True(t, view.Comments[0].ViewerMentioned)
}

func TestCreateCommentUnknownAuthorDegradesToAnonymous(t *testing.T) {
	f := newCommentServiceFixture(t)

	comment, err := f.service.CreateComment("ghost", createRequest("still works"))
	require.NoError(t, err)
	assert.Equal(t, AnonymousName, comment.AuthorName)
	assert.Equal(t, "https://cdn.example.com/default.png", comment.AvatarURL)
}

func TestCreateCommentInvalidScope(t *testing.T) {
	f := newCommentServiceFixture(t)

	req := createRequest("hello")
	req.VideoID = ""
	_, err := f.service.CreateComment("u1", req)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestCreateCommentSendsMentionNotification(t *testing.T) {
	f := newCommentServiceFixture(t,
		&model.User{ID: "u1", Name: "alice"},
		&model.User{ID: "u2", Name: "bob"},
	)

	_, err := f.service.CreateComment("u1", createRequest("ping $bob"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		count, err := f.notifRepo.CountUnreadByUserID("u2")
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	notifications, err := f.notifRepo.FindByUserID("u2", 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeMention, notifications[0].Type)
}

func TestCreateCommentNoSelfMentionNotification(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	_, err := f.service.CreateComment("u1", createRequest("note to $alice"))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	count, err := f.notifRepo.CountUnreadByUserID("u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEditCommentOwnershipAndImmutability(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("original"))
	require.NoError(t, err)

	_, err = f.service.EditComment("u2", comment.ID, "hijacked")
	assert.Error(t, err)

	edited, err := f.service.EditComment("u1", comment.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, "revised", edited.Text)
	assert.True(t, edited.Edited)

	stored, err := f.commentRepo.FindByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised", stored.Text)
	assert.Equal(t, "u1", stored.AuthorID)
	assert.Equal(t, comment.CreatedAt.Unix(), stored.CreatedAt.Unix())
}

func TestEditCommentVisibleImmediately(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("first draft"))
	require.NoError(t, err)

	_, err = f.service.EditComment("u1", comment.ID, "second draft")
	require.NoError(t, err)

	// No waiting on the rebuild: the edit is staged into the live thread.
	view, err := f.threads.View(testScope(), Viewer{ID: "u1", Name: "alice"}, SortNewest)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "second draft", view.Comments[0].Text)
	assert.True(t, view.Comments[0].Edited)
}

func TestCreateReplyVisibleImmediately(t *testing.T) {
	f := newCommentServiceFixture(t,
		&model.User{ID: "u1", Name: "alice"},
		&model.User{ID: "u2", Name: "bob"},
	)

	comment, err := f.service.CreateComment("u1", createRequest("parent"))
	require.NoError(t, err)

	reply, err := f.service.CreateReply("u2", CreateReplyRequest{CommentID: comment.ID, Text: "quick answer"})
	require.NoError(t, err)

	view, err := f.threads.View(testScope(), Viewer{ID: "u1", Name: "alice"}, SortNewest)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)
	require.Len(t, view.Comments[0].Replies, 1)
	assert.Equal(t, reply.ID, view.Comments[0].Replies[0].ID)
	assert.Equal(t, "quick answer", view.Comments[0].Replies[0].Text)
}

func TestDeleteCommentCascades(t *testing.T) {
	f := newCommentServiceFixture(t,
		&model.User{ID: "u1", Name: "alice"},
		&model.User{ID: "u2", Name: "bob"},
	)

	comment, err := f.service.CreateComment("u1", createRequest("to be removed"))
	require.NoError(t, err)

	_, err = f.service.ToggleLike("u2", comment.ID)
	require.NoError(t, err)
	_, err = f.service.CreateReply("u2", CreateReplyRequest{CommentID: comment.ID, Text: "a reply"})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteComment("u1", comment.ID))

	_, err = f.commentRepo.FindByID(comment.ID)
	assert.Error(t, err)

	likes, err := f.likeRepo.CountByComment(comment.ID)
	require.NoError(t, err)
	assert.Zero(t, likes)

	replies, err := f.commentRepo.FindRepliesByComment(comment.ID)
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestDeleteCommentRequiresOwnership(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("mine"))
	require.NoError(t, err)

	assert.Error(t, f.service.DeleteComment("u2", comment.ID))
	assert.Error(t, f.service.DeleteComment("u1", "missing-id"))
}

func TestToggleLikeRoundTrip(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("likeable"))
	require.NoError(t, err)

	result, err := f.service.ToggleLike("u2", comment.ID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.EqualValues(t, 1, result.LikeCount)

	// A second toggle undoes the first; the count returns to where it was.
	result, err = f.service.ToggleLike("u2", comment.ID)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Zero(t, result.LikeCount)
}

func TestToggleLikeIsPerUser(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("popular"))
	require.NoError(t, err)

	_, err = f.service.ToggleLike("u2", comment.ID)
	require.NoError(t, err)
	result, err := f.service.ToggleLike("u3", comment.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.LikeCount)

	// u2 unliking leaves u3's like in place.
	result, err = f.service.ToggleLike("u2", comment.ID)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.EqualValues(t, 1, result.LikeCount)
}

func TestCreateReplyStoresRoleAndNotifies(t *testing.T) {
	f := newCommentServiceFixture(t,
		&model.User{ID: "u1", Name: "alice"},
		&model.User{ID: "u2", Name: "mentor", Role: model.RoleAdmin},
	)

	comment, err := f.service.CreateComment("u1", createRequest("question"))
	require.NoError(t, err)

	reply, err := f.service.CreateReply("u2", CreateReplyRequest{CommentID: comment.ID, Text: "answer with $alice"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, reply.Role)
	// Reply text is stored as typed, without mention rewriting.
	assert.Equal(t, "answer with $alice", reply.Text)

	require.Eventually(t, func() bool {
		count, err := f.notifRepo.CountUnreadByUserID("u1")
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	notifications, err := f.notifRepo.FindByUserID("u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeCommentReply, notifications[0].Type)
}

func TestCreateReplyToOwnCommentSkipsNotification(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("talking to myself"))
	require.NoError(t, err)

	_, err = f.service.CreateReply("u1", CreateReplyRequest{CommentID: comment.ID, Text: "follow-up"})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	count, err := f.notifRepo.CountUnreadByUserID("u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEditAndDeleteReplyOwnership(t *testing.T) {
	f := newCommentServiceFixture(t, &model.User{ID: "u1", Name: "alice"})

	comment, err := f.service.CreateComment("u1", createRequest("root"))
	require.NoError(t, err)
	reply, err := f.service.CreateReply("u1", CreateReplyRequest{CommentID: comment.ID, Text: "first"})
	require.NoError(t, err)

	_, err = f.service.EditReply("u2", reply.ID, "hijacked")
	assert.Error(t, err)

	edited, err := f.service.EditReply("u1", reply.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Text)
	assert.True(t, edited.Edited)

	assert.Error(t, f.service.DeleteReply("u2", reply.ID))
	require.NoError(t, f.service.DeleteReply("u1", reply.ID))

	replies, err := f.commentRepo.FindRepliesByComment(comment.ID)
	require.NoError(t, err)
	assert.Empty(t, replies)
}
