package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/codes"
	sl "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/logger"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/models"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrNotVerified        = errors.New("email not verified")
	ErrNoPendingCode      = errors.New("no verification code outstanding")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrResetCodeExpired   = errors.New("reset code expired")
	ErrResetCodeMismatch  = errors.New("reset code mismatch")
)

const codeDigits = 6

// Store is the slice of the record store the account manager needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Manager struct {
	log      *slog.Logger
	store    Store
	codeTTL  time.Duration
	resetTTL time.Duration
}

func New(log *slog.Logger, store Store, codeTTL, resetTTL time.Duration) *Manager {
	return &Manager{
		log:      log,
		store:    store,
		codeTTL:  codeTTL,
		resetTTL: resetTTL,
	}
}

// Normalize returns the lowercase, trimmed form of an email address. It is
// the only key user records are addressable by.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userKey(email string) string {
	return fmt.Sprintf("user:%s", email)
}

func resetKey(email string) string {
	return fmt.Sprintf("pwdreset:%s", email)
}

// CreateUser registers an unverified user and returns the full record,
// verification code included, so the caller can email it. Registering the
// same email again before verification overwrites the prior record.
func (m *Manager) CreateUser(ctx context.Context, email, password, name string) (models.User, error) {
	const op = "account.CreateUser"

	log := m.log.With(slog.String("op", op))

	email = Normalize(email)

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	code, err := codes.Numeric(codeDigits)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	expiry := time.Now().Add(m.codeTTL)

	user := models.User{
		ID:                 uuid.NewString(),
		Email:              email,
		Name:               name,
		PassHash:           string(passHash),
		IsVerified:         false,
		Role:               models.RoleUser,
		VerificationCode:   code,
		VerificationExpiry: &expiry,
		CreatedAt:          time.Now(),
	}

	if err := m.saveUser(ctx, user); err != nil {
		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user created", slog.String("uid", user.ID))

	return user, nil
}

// UserByEmail is a pure lookup; the admin record is seeded explicitly at
// startup via EnsureAdmin, never here.
func (m *Manager) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "account.UserByEmail"

	data, err := m.store.Get(ctx, userKey(Normalize(email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// VerifyUser consumes the outstanding verification code. The transition is
// one-shot: a repeat call after success fails with ErrAlreadyVerified even
// when the submitted code is correct.
func (m *Manager) VerifyUser(ctx context.Context, email, code string) (models.User, error) {
	const op = "account.VerifyUser"

	log := m.log.With(slog.String("op", op))

	user, err := m.UserByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	if user.IsVerified {
		return models.User{}, ErrAlreadyVerified
	}

	if user.VerificationCode == "" || user.VerificationExpiry == nil {
		return models.User{}, ErrNoPendingCode
	}

	if !user.VerificationExpiry.After(time.Now()) {
		return models.User{}, ErrCodeExpired
	}

	// Codes are fixed-width; exact string compare, no normalization.
	if user.VerificationCode != code {
		return models.User{}, ErrCodeMismatch
	}

	user.IsVerified = true
	user.VerificationCode = ""
	user.VerificationExpiry = nil

	if err := m.saveUser(ctx, user); err != nil {
		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user verified", slog.String("uid", user.ID))

	return user, nil
}

// RegenerateCode issues a fresh verification code for an unverified user and
// returns it for the caller to email.
func (m *Manager) RegenerateCode(ctx context.Context, email string) (string, error) {
	const op = "account.RegenerateCode"

	log := m.log.With(slog.String("op", op))

	user, err := m.UserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if user.IsVerified {
		return "", ErrAlreadyVerified
	}

	code, err := codes.Numeric(codeDigits)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	expiry := time.Now().Add(m.codeTTL)
	user.VerificationCode = code
	user.VerificationExpiry = &expiry

	if err := m.saveUser(ctx, user); err != nil {
		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("verification code regenerated", slog.String("uid", user.ID))

	return code, nil
}

// ValidateLogin checks credentials without creating a session. A missing user
// and a wrong password both surface as ErrInvalidCredentials so callers
// cannot enumerate accounts; an unverified account gets its own reason so the
// UI can route to the resend flow.
func (m *Manager) ValidateLogin(ctx context.Context, email, password string) (models.User, error) {
	const op = "account.ValidateLogin"

	log := m.log.With(slog.String("op", op))

	user, err := m.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login for unknown email")
			return models.User{}, ErrInvalidCredentials
		}

		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		log.Info("invalid credentials")
		return models.User{}, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return models.User{}, ErrNotVerified
	}

	return user, nil
}

// CreateResetCode stores a password-reset code under its own key, disjoint
// from the user record, and returns it for the caller to email.
func (m *Manager) CreateResetCode(ctx context.Context, email string) (string, error) {
	const op = "account.CreateResetCode"

	log := m.log.With(slog.String("op", op))

	user, err := m.UserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := codes.Numeric(codeDigits)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	rec := models.ResetCode{
		Code:      code,
		ExpiresAt: time.Now().Add(m.resetTTL),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Set(ctx, resetKey(user.Email), data, m.resetTTL); err != nil {
		log.Error("failed to save reset code", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("reset code created", slog.String("uid", user.ID))

	return code, nil
}

// ResetPassword consumes the reset code and re-hashes the new password into
// the user record. Session revocation is the caller's job.
func (m *Manager) ResetPassword(ctx context.Context, email, code, newPassword string) (models.User, error) {
	const op = "account.ResetPassword"

	log := m.log.With(slog.String("op", op))

	user, err := m.UserByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	data, err := m.store.Get(ctx, resetKey(user.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrResetCodeExpired
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var rec models.ResetCode
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if rec.IsExpired() {
		return models.User{}, ErrResetCodeExpired
	}

	if rec.Code != code {
		return models.User{}, ErrResetCodeMismatch
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user.PassHash = string(passHash)

	if err := m.saveUser(ctx, user); err != nil {
		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Delete(ctx, resetKey(user.Email)); err != nil {
		log.Warn("failed to delete reset code", sl.Err(err))
	}

	log.Info("password reset", slog.String("uid", user.ID))

	return user, nil
}

// EnsureAdmin seeds the one administrator account. Idempotent: an existing
// record, admin or not, is left untouched.
func (m *Manager) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "account.EnsureAdmin"

	log := m.log.With(slog.String("op", op))

	_, err := m.UserByEmail(ctx, email)
	if err == nil {
		return nil
	}

	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	admin := models.User{
		ID:         uuid.NewString(),
		Email:      Normalize(email),
		Name:       "Administrator",
		PassHash:   string(passHash),
		IsVerified: true,
		Role:       models.RoleAdmin,
		CreatedAt:  time.Now(),
	}

	if err := m.saveUser(ctx, admin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin account seeded", slog.String("uid", admin.ID))

	return nil
}

func (m *Manager) saveUser(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return m.store.Set(ctx, userKey(user.Email), data, 0)
}
