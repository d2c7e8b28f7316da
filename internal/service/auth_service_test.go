package service

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/security/auth"
)

type memUserRepo struct {
	byID map[string]*domain.User
	seq  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(u *domain.User) error {
	if u.ID == "" {
		m.seq++
		u.ID = "u-" + u.Email
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	m.byID[u.ID] = &copied
	return nil
}

func (m *memUserRepo) GetByID(id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByResetTokenHash(hash string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.ResetTokenHash != "" && u.ResetTokenHash == hash {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) Update(u *domain.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	copied := *u
	m.byID[u.ID] = &copied
	return nil
}

func newTestAuthService(repo domain.UserRepository) *AuthService {
	tm := auth.NewTokenManager("test-secret", "test", time.Hour)
	return NewAuthService(repo, tm, 15*time.Minute, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	// Register
	r, err := s.Register("Alice", "Alice@Example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.ID == "" || r.Token == "" {
		t.Fatalf("expected user id and token")
	}
	if r.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", r.Email)
	}
	if r.Role != domain.RoleTenant {
		t.Fatalf("expected default tenant role, got %q", r.Role)
	}

	// Duplicate email, different case
	if _, err := s.Register("Alice Two", "ALICE@example.com", "Password123", ""); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	// Login ok
	lr, err := s.Login("alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.Token == "" {
		t.Fatalf("expected token on login")
	}

	// Login wrong password
	if _, err := s.Login("alice@example.com", "Wrong1234"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	// Login unknown email, same generic error
	if _, err := s.Login("nobody@example.com", "Password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	s := newTestAuthService(newMemUserRepo())

	if _, err := s.Register("Bob", "bob@example.com", "short", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	s := newTestAuthService(newMemUserRepo())

	if _, err := s.Register("Bob", "bob@example.com", "Password123", "superuser"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	r, err := s.Register("Carol", "carol@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := s.DeactivateTenant(r.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	// Correct credentials on a deactivated account surface the distinct error
	if _, err := s.Login("carol@example.com", "Password123"); !errors.Is(err, domain.ErrAccountDeactivated) {
		t.Fatalf("expected account deactivated, got %v", err)
	}

	// Wrong credentials still look like any bad login
	if _, err := s.Login("carol@example.com", "Wrong1234"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	r, err := s.Register("Dave", "dave@example.com", "OldPass123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := s.ForgotPassword("dave@example.com")
	if err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a reset token")
	}

	// The plaintext token is never stored
	stored, _ := repo.GetByID(r.ID)
	if stored.ResetTokenHash == token {
		t.Fatalf("reset token stored in plaintext")
	}
	if stored.ResetTokenExpires == nil {
		t.Fatalf("expected reset token expiry")
	}

	// A second request inside the validity window is rejected
	if _, err := s.ForgotPassword("dave@example.com"); !errors.Is(err, domain.ErrResetCooldown) {
		t.Fatalf("expected cooldown error, got %v", err)
	}

	// Consume the token
	res, err := s.ResetPassword(token, "NewPass456")
	if err != nil {
		t.Fatalf("reset password failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected session token after reset")
	}

	// Token fields cleared; old token no longer works
	stored, _ = repo.GetByID(r.ID)
	if stored.ResetTokenHash != "" || stored.ResetTokenExpires != nil {
		t.Fatalf("expected reset token fields cleared")
	}
	if _, err := s.ResetPassword(token, "OtherPass789"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected invalid token on reuse, got %v", err)
	}

	// Password actually changed
	if _, err := s.Login("dave@example.com", "OldPass123"); err == nil {
		t.Fatalf("expected old password to fail")
	}
	if _, err := s.Login("dave@example.com", "NewPass456"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	s := newTestAuthService(newMemUserRepo())

	// Unknown accounts must be indistinguishable from known ones
	token, err := s.ForgotPassword("ghost@example.com")
	if err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for unknown email")
	}
}

func TestForgotPasswordDeactivatedAccount(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	r, err := s.Register("Erin", "erin@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := s.DeactivateTenant(r.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	token, err := s.ForgotPassword("erin@example.com")
	if err != nil || token != "" {
		t.Fatalf("expected silent no-op for deactivated account, got token=%q err=%v", token, err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	r, err := s.Register("Frank", "frank@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := s.ForgotPassword("frank@example.com")
	if err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}

	// Force the token past its expiry
	stored := repo.byID[r.ID]
	past := time.Now().Add(-time.Minute)
	stored.ResetTokenExpires = &past

	if _, err := s.ResetPassword(token, "NewPass456"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected invalid token for expired reset, got %v", err)
	}

	// The stored password is untouched
	if _, err := s.Login("frank@example.com", "Password123"); err != nil {
		t.Fatalf("original password should still work: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	r, err := s.Register("Grace", "grace@example.com", "OldPass123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Wrong old password
	if _, err := s.ChangePassword(r.ID, "bad", "NewPass123"); !domain.IsValidation(err) {
		t.Fatalf("expected wrong old password error, got %v", err)
	}
	// Good change
	if _, err := s.ChangePassword(r.ID, "OldPass123", "NewPass123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	// Old password should no longer work
	if _, err := s.Login("grace@example.com", "OldPass123"); err == nil {
		t.Fatalf("expected old password to fail after change")
	}
	// New password works
	if _, err := s.Login("grace@example.com", "NewPass123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	r1, err := s.Register("Henry", "henry@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := s.Register("Iris", "iris@example.com", "Password123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// No fields
	if _, err := s.UpdateAccount(r1.ID, "", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Email collision with another account
	if _, err := s.UpdateAccount(r1.ID, "", "iris@example.com"); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected email in use, got %v", err)
	}

	// Re-submitting one's own email is fine
	if _, err := s.UpdateAccount(r1.ID, "Henry II", "henry@example.com"); err != nil {
		t.Fatalf("update with own email failed: %v", err)
	}

	res, err := s.UpdateAccount(r1.ID, "", "henry2@example.com")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if res.Name != "Henry II" || res.Email != "henry2@example.com" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Token == "" {
		t.Fatalf("expected fresh token carrying updated identity")
	}
}

func TestDeactivateTenant(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestAuthService(repo)

	tenant, err := s.Register("Judy", "judy@example.com", "Password123", "tenant")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	admin, err := s.Register("Kim", "kim@example.com", "Password123", "admin")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	u, err := s.DeactivateTenant(tenant.ID)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if u.IsActive || u.DeactivatedAt == nil {
		t.Fatalf("expected deactivated user, got %+v", u)
	}
	firstStamp := *u.DeactivatedAt

	// Idempotent: repeat succeeds and keeps the original timestamp
	u2, err := s.DeactivateTenant(tenant.ID)
	if err != nil {
		t.Fatalf("repeat deactivate failed: %v", err)
	}
	if u2.DeactivatedAt == nil || !u2.DeactivatedAt.Equal(firstStamp) {
		t.Fatalf("expected original deactivation timestamp preserved")
	}

	// Admin accounts cannot be targeted
	if _, err := s.DeactivateTenant(admin.ID); !errors.Is(err, domain.ErrNotTenant) {
		t.Fatalf("expected not-tenant error, got %v", err)
	}

	// Unknown target
	if _, err := s.DeactivateTenant("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// conflictUserRepo simulates the unique email index rejecting a write
// that slipped past the service-layer lookup, as under concurrent
// registration.
type conflictUserRepo struct {
	*memUserRepo
	conflictOnCreate bool
	conflictOnUpdate bool
}

func (c *conflictUserRepo) Create(u *domain.User) error {
	if c.conflictOnCreate {
		return domain.ErrEmailInUse
	}
	return c.memUserRepo.Create(u)
}

func (c *conflictUserRepo) Update(u *domain.User) error {
	if c.conflictOnUpdate {
		return domain.ErrEmailInUse
	}
	return c.memUserRepo.Update(u)
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	repo := &conflictUserRepo{memUserRepo: newMemUserRepo(), conflictOnCreate: true}
	s := newTestAuthService(repo)

	_, err := s.Register("Bob", "bob@example.com", "Password123", "")
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected email-in-use error, got %v", err)
	}
}

func TestUpdateAccountConcurrentDuplicateEmail(t *testing.T) {
	repo := &conflictUserRepo{memUserRepo: newMemUserRepo()}
	s := newTestAuthService(repo)

	r, err := s.Register("Carol", "carol@example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	repo.conflictOnUpdate = true
	_, err = s.UpdateAccount(r.ID, "Carol", "taken@example.com")
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected email-in-use error, got %v", err)
	}
}
