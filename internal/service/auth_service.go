package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"coursepulse/internal/model"
	"coursepulse/internal/repository"
	"coursepulse/internal/util"

	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AnonymousName is the display name used when a profile cannot be resolved.
const AnonymousName = "Anonymous"

type AuthService interface {
	Register(req RegisterRequest) (*AuthResponse, error)
	Login(req LoginRequest) (*AuthResponse, error)
	GetMe(userID string) (*model.User, error)
	// ResolveProfile returns the display identity for a user. It never
	// fails: a missing or unreadable profile degrades to Anonymous with
	// the default avatar.
	ResolveProfile(userID string) Profile
}

type Profile struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type authService struct {
	userRepo         repository.UserRepository
	jwtSecret        string
	defaultAvatarURL string
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret, defaultAvatarURL string) AuthService {
	return &authService{
		userRepo:         userRepo,
		jwtSecret:        jwtSecret,
		defaultAvatarURL: defaultAvatarURL,
	}
}

// Register creates a new user account
func (s *authService) Register(req RegisterRequest) (*AuthResponse, error) {
	if _, err := s.userRepo.FindByEmail(strings.ToLower(req.Email)); err == nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         model.RoleStudent,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.New("failed to create user")
	}

	token, err := util.GenerateToken(user.ID, user.Role, s.jwtSecret, tokenTTL)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// Login authenticates a user and issues a token
func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(req.Email))
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := util.GenerateToken(user.ID, user.Role, s.jwtSecret, tokenTTL)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		log.Printf("Failed to update last login for user %s: %v", user.ID, err)
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// GetMe returns the current user
func (s *authService) GetMe(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

// ResolveProfile resolves display name and avatar for a user. A fetch
// failure is logged and degrades to the Anonymous identity; no retry.
func (s *authService) ResolveProfile(userID string) Profile {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		log.Printf("Failed to resolve profile for user %s: %v", userID, err)
		return Profile{Name: AnonymousName, AvatarURL: s.defaultAvatarURL}
	}

	name := user.Name
	if name == "" {
		name = AnonymousName
	}
	avatar := user.AvatarURL
	if avatar == "" {
		avatar = s.defaultAvatarURL
	}

	return Profile{Name: name, AvatarURL: avatar, Role: user.Role}
}
