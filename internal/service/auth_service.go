package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles account and password lifecycle operations
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	resetTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	resetTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		resetTTL: resetTTL,
		logger:   logger,
	}
}

// AuthResult is the session payload returned by every operation that
// issues a token
type AuthResult struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Token string      `json:"token"`
}

// Register creates a new account and issues a session token
func (s *AuthService) Register(name, email, password, role string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}
	if len(password) < 8 {
		return nil, domain.Validation("password must be at least 8 characters")
	}

	r := domain.Role(role)
	if role == "" {
		r = domain.RoleTenant
	}
	if !r.Valid() {
		return nil, domain.Validation("role must be tenant or admin")
	}

	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, domain.ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         r,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		// a concurrent registration can slip past the lookup above and
		// hit the unique index instead
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, domain.ErrEmailInUse
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	return s.issueSession(user)
}

// Login authenticates a user and issues a session token. Unknown email
// and password mismatch produce the same generic error; a deactivated
// account with matching credentials produces a distinct one.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Info("login attempt on deactivated account", slog.String("user_id", user.ID))
		return nil, domain.ErrAccountDeactivated
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueSession(user)
}

// ForgotPassword starts a password reset. It never reveals whether the
// email exists: unknown or inactive accounts yield an empty token and no
// error, and the handler returns the same generic acknowledgement. A
// live outstanding token yields ErrResetCooldown.
func (s *AuthService) ForgotPassword(email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", domain.Validation("email is required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil || !user.IsActive {
		return "", nil
	}

	if user.ResetTokenHash != "" && user.ResetTokenExpires != nil && user.ResetTokenExpires.After(time.Now()) {
		return "", domain.ErrResetCooldown
	}

	plaintext, err := generateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.String("error", err.Error()))
		return "", errors.New("failed to start password reset")
	}

	expires := time.Now().Add(s.resetTTL)
	user.ResetTokenHash = hashResetToken(plaintext)
	user.ResetTokenExpires = &expires

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to store reset token", slog.String("error", err.Error()))
		return "", errors.New("failed to start password reset")
	}

	s.logger.Info("password reset token issued", slog.String("user_id", user.ID))
	return plaintext, nil
}

// ResetPassword consumes a reset token. Any mismatch or expiry yields the
// same generic error and never mutates the stored password. On success
// the token fields are cleared and a fresh session is issued.
func (s *AuthService) ResetPassword(token, newPassword string) (*AuthResult, error) {
	if token == "" {
		return nil, domain.ErrInvalidResetToken
	}
	if len(newPassword) < 8 {
		return nil, domain.Validation("new password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByResetTokenHash(hashResetToken(token))
	if err != nil {
		return nil, domain.ErrInvalidResetToken
	}
	if user.ResetTokenExpires == nil || !user.ResetTokenExpires.After(time.Now()) {
		return nil, domain.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return nil, errors.New("failed to reset password")
	}

	user.PasswordHash = string(hash)
	user.ResetTokenHash = ""
	user.ResetTokenExpires = nil

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to reset password", slog.String("error", err.Error()))
		return nil, errors.New("failed to reset password")
	}

	s.logger.Info("password reset completed", slog.String("user_id", user.ID))
	return s.issueSession(user)
}

// ChangePassword verifies the old password before accepting a new one
// and issues a fresh session token
func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) (*AuthResult, error) {
	if newPassword == "" || len(newPassword) < 8 {
		return nil, domain.Validation("new password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return nil, domain.Validation("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return nil, errors.New("failed to change password")
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return nil, errors.New("failed to change password")
	}

	s.logger.Info("user changed password", slog.String("user_id", userID))
	return s.issueSession(user)
}

// UpdateAccount applies a self-service name and/or email change. Email
// uniqueness is re-checked against all other users, and the fresh token
// carries the updated identity fields.
func (s *AuthService) UpdateAccount(userID, name, email string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" && email == "" {
		return nil, domain.Validation("at least one of name or email is required")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	if name != "" {
		user.Name = name
	}

	if email != "" && email != user.Email {
		existing, err := s.userRepo.GetByEmail(email)
		if err == nil && existing != nil && existing.ID != user.ID {
			return nil, domain.ErrEmailInUse
		}
		user.Email = email
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, domain.ErrEmailInUse
		}
		s.logger.Error("failed to update account", slog.String("error", err.Error()))
		return nil, errors.New("failed to update account")
	}

	return s.issueSession(user)
}

// DeactivateTenant deactivates a tenant account on behalf of an admin.
// Idempotent when already inactive; admin accounts cannot be targeted.
func (s *AuthService) DeactivateTenant(targetID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(targetID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	if user.Role != domain.RoleTenant {
		return nil, domain.ErrNotTenant
	}

	if !user.IsActive {
		return user, nil
	}

	now := time.Now()
	user.IsActive = false
	user.DeactivatedAt = &now

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to deactivate tenant", slog.String("error", err.Error()))
		return nil, errors.New("failed to deactivate account")
	}

	s.logger.Info("tenant deactivated", slog.String("user_id", user.ID))
	return user, nil
}

// GetUser loads a user's profile by ID
func (s *AuthService) GetUser(userID string) (*domain.User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *AuthService) issueSession(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	return &AuthResult{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
