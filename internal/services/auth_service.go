package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/validator"
)

const authTokenPrefix = "auth:token:"

type authService struct {
	repo        repositories.Repository
	redisClient *redis.Client
	logger      *slog.Logger
	validator   *validator.Validator
	sessionTTL  time.Duration
}

func NewAuthService(repo repositories.Repository, redisClient *redis.Client, logger *slog.Logger, validator *validator.Validator, sessionTTL time.Duration) AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &authService{
		repo:        repo,
		redisClient: redisClient,
		logger:      logger,
		validator:   validator,
		sessionTTL:  sessionTTL,
	}
}

func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Role:          req.Role,
		Institution:   req.Institution,
		Subject:       req.Subject,
		Grade:         req.Grade,
		StudentNumber: req.StudentID,
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.UID, "role", user.Role)

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// Login verifies email, password, and role in that order; all three failures
// collapse into the same error so the response does not leak which check
// failed.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Role != req.Role {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.UID, "role", user.Role)

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.redisClient.Del(ctx, authTokenPrefix+token).Err()
}

// ResolveToken maps an opaque session token back to its user. The session
// payload is stored server-side; clients never carry identity state.
func (s *authService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrSessionTokenInvalid
	}

	data, err := s.redisClient.Get(ctx, authTokenPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionTokenInvalid
		}
		return nil, fmt.Errorf("failed to resolve session token: %w", err)
	}

	var session struct {
		UserID string          `json:"userId"`
		Role   models.UserRole `json:"role"`
	}
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, ErrSessionTokenInvalid
	}

	user, err := s.repo.User().GetByUID(ctx, session.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionTokenInvalid
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return user, nil
}

func (s *authService) issueToken(ctx context.Context, user *models.User) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	payload, err := json.Marshal(map[string]any{
		"userId": user.UID,
		"role":   user.Role,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.redisClient.Set(ctx, authTokenPrefix+token, payload, s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}
