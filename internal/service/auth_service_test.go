package service

import (
	"testing"

	"coursepulse/internal/model"
	"coursepulse/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testDefaultAvatar = "https://cdn.example.com/default.png"

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret", testDefaultAvatar)

	resp, err := svc.Register(RegisterRequest{
		Name:     "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, model.RoleStudent, resp.User.Role)
	assert.NotEqual(t, "correct horse", resp.User.PasswordHash)

	// Duplicate email is rejected.
	_, err = svc.Register(RegisterRequest{Name: "alice2", Email: "alice@example.com", Password: "whatever1"})
	assert.Error(t, err)

	// The issued token carries the user's identity.
	claims, err := util.ValidateToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)
}

func TestLoginChecksPasswordAndStatus(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pw"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := newFakeUserRepo(
		&model.User{ID: "u1", Name: "alice", Email: "alice@example.com", PasswordHash: string(hash), IsActive: true},
		&model.User{ID: "u2", Name: "bob", Email: "bob@example.com", PasswordHash: string(hash), IsActive: false},
	)
	svc := NewAuthService(repo, "test-secret", testDefaultAvatar)

	resp, err := svc.Login(LoginRequest{Email: "alice@example.com", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)

	_, err = svc.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.Error(t, err)

	_, err = svc.Login(LoginRequest{Email: "nobody@example.com", Password: "secret-pw"})
	assert.Error(t, err)

	_, err = svc.Login(LoginRequest{Email: "bob@example.com", Password: "secret-pw"})
	assert.Error(t, err)
}

func TestResolveProfileFallsBackToAnonymous(t *testing.T) {
	repo := newFakeUserRepo(
		&model.User{ID: "u1", Name: "alice", AvatarURL: "https://cdn.example.com/alice.png", Role: model.RoleAdmin},
		&model.User{ID: "u2", Name: ""},
	)
	svc := NewAuthService(repo, "test-secret", testDefaultAvatar)

	profile := svc.ResolveProfile("u1")
	assert.Equal(t, "alice", profile.Name)
	assert.Equal(t, "https://cdn.example.com/alice.png", profile.AvatarURL)
	assert.Equal(t, model.RoleAdmin, profile.Role)

	// A blank name degrades to the anonymous identity.
	profile = svc.ResolveProfile("u2")
	assert.Equal(t, AnonymousName, profile.Name)
	assert.Equal(t, testDefaultAvatar, profile.AvatarURL)

	// A missing user never errors.
	profile = svc.ResolveProfile("missing")
	assert.Equal(t, AnonymousName, profile.Name)
	assert.Equal(t, testDefaultAvatar, profile.AvatarURL)
}
