package account

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/models"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(testLogger(), memory.New(), 30*time.Minute, 15*time.Minute)
}

func TestCreateUser_ThenLookup(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "Dana@X.com", "secret1", "Dana")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.VerificationCode, 6)
	require.NotNil(t, created.VerificationExpiry)

	got, err := m.UserByEmail(ctx, "dana@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "dana@x.com", got.Email)
	assert.False(t, got.IsVerified)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.NotEmpty(t, got.VerificationCode)
	assert.NotNil(t, got.VerificationExpiry)
}

func TestNormalize_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.CreateUser(ctx, "  Foo@Bar.com ", "secret1", "Foo")
	require.NoError(t, err)

	upper, err := m.UserByEmail(ctx, "Foo@Bar.com")
	require.NoError(t, err)

	lower, err := m.UserByEmail(ctx, "foo@bar.com")
	require.NoError(t, err)

	assert.Equal(t, upper.ID, lower.ID)
	assert.Equal(t, Normalize(Normalize("Foo@Bar.com")), Normalize("Foo@Bar.com"))
}

func TestVerifyUser_OneShot(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	verified, err := m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Empty(t, verified.VerificationCode)
	assert.Nil(t, verified.VerificationExpiry)

	// Same correct code a second time must fail with the already-verified
	// reason, not succeed silently.
	_, err = m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyUser_Mismatch(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	wrong := "000000"
	if created.VerificationCode == wrong {
		wrong = "000001"
	}

	_, err = m.VerifyUser(ctx, "dana@x.com", wrong)
	require.ErrorIs(t, err, ErrCodeMismatch)
}

func TestVerifyUser_Expired(t *testing.T) {
	ctx := context.Background()
	m := New(testLogger(), memory.New(), -time.Minute, 15*time.Minute)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	// Correct code, lapsed expiry: the reason must be expiry, not mismatch.
	_, err = m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestVerifyUser_NotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.VerifyUser(context.Background(), "nobody@x.com", "123456")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyUser_NoPendingCode(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	created.VerificationCode = ""
	created.VerificationExpiry = nil
	require.NoError(t, m.saveUser(ctx, created))

	_, err = m.VerifyUser(ctx, "dana@x.com", "123456")
	require.ErrorIs(t, err, ErrNoPendingCode)
}

func TestRegenerateCode(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	code, err := m.RegenerateCode(ctx, "dana@x.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	got, err := m.UserByEmail(ctx, "dana@x.com")
	require.NoError(t, err)
	assert.Equal(t, code, got.VerificationCode)

	_, err = m.VerifyUser(ctx, "dana@x.com", code)
	require.NoError(t, err)
}

func TestRegenerateCode_Verified(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	_, err = m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.NoError(t, err)

	before, err := m.UserByEmail(ctx, "dana@x.com")
	require.NoError(t, err)

	_, err = m.RegenerateCode(ctx, "dana@x.com")
	require.ErrorIs(t, err, ErrAlreadyVerified)

	after, err := m.UserByEmail(ctx, "dana@x.com")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegenerateCode_NotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.RegenerateCode(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateLogin(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)

	// Correct password on an unverified account: a distinct reason, never the
	// generic credentials error.
	_, err = m.ValidateLogin(ctx, "dana@x.com", "secret1")
	require.ErrorIs(t, err, ErrNotVerified)

	_, err = m.ValidateLogin(ctx, "dana@x.com", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.ValidateLogin(ctx, "nobody@x.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.NoError(t, err)

	user, err := m.ValidateLogin(ctx, "dana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.EnsureAdmin(ctx, "Admin@Site.com", "adminpass"))

	first, err := m.UserByEmail(ctx, "admin@site.com")
	require.NoError(t, err)
	assert.True(t, first.IsVerified)
	assert.Equal(t, models.RoleAdmin, first.Role)
	assert.Empty(t, first.VerificationCode)

	require.NoError(t, m.EnsureAdmin(ctx, "admin@site.com", "otherpass"))

	second, err := m.UserByEmail(ctx, "admin@site.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PassHash, second.PassHash)
}

func TestResetPassword_Flow(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)
	_, err = m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.NoError(t, err)

	_, err = m.CreateResetCode(ctx, "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	code, err := m.CreateResetCode(ctx, "dana@x.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	_, err = m.ResetPassword(ctx, "dana@x.com", wrong, "newsecret")
	require.ErrorIs(t, err, ErrResetCodeMismatch)

	_, err = m.ResetPassword(ctx, "dana@x.com", code, "newsecret")
	require.NoError(t, err)

	_, err = m.ValidateLogin(ctx, "dana@x.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.ValidateLogin(ctx, "dana@x.com", "newsecret")
	require.NoError(t, err)

	// The code is single-use.
	_, err = m.ResetPassword(ctx, "dana@x.com", code, "thirdsecret")
	require.ErrorIs(t, err, ErrResetCodeExpired)
}

func TestResetPassword_Expired(t *testing.T) {
	ctx := context.Background()
	m := New(testLogger(), memory.New(), 30*time.Minute, -time.Minute)

	created, err := m.CreateUser(ctx, "dana@x.com", "secret1", "Dana")
	require.NoError(t, err)
	_, err = m.VerifyUser(ctx, "dana@x.com", created.VerificationCode)
	require.NoError(t, err)

	code, err := m.CreateResetCode(ctx, "dana@x.com")
	require.NoError(t, err)

	_, err = m.ResetPassword(ctx, "dana@x.com", code, "newsecret")
	require.ErrorIs(t, err, ErrResetCodeExpired)
}
