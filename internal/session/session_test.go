package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/account"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/models"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) (*Manager, *account.Manager, *memory.MemoryStore) {
	t.Helper()

	store := memory.New()
	accounts := account.New(testLogger(), store, 30*time.Minute, 15*time.Minute)
	sessions := New(testLogger(), store, accounts, 7*24*time.Hour)

	return sessions, accounts, store
}

func registerVerified(t *testing.T, accounts *account.Manager, email string) models.User {
	t.Helper()

	ctx := context.Background()

	created, err := accounts.CreateUser(ctx, email, "secret1", "Dana")
	require.NoError(t, err)

	verified, err := accounts.VerifyUser(ctx, email, created.VerificationCode)
	require.NoError(t, err)

	return verified
}

func TestCreateValidate_RoundTrip(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, _ := newTestEnv(t)

	user := registerVerified(t, accounts, "dana@x.com")

	token, err := sessions.Create(ctx, user.Email)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
}

func TestValidate_UnknownToken(t *testing.T) {
	sessions, _, _ := newTestEnv(t)

	_, err := sessions.Validate(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidate_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, store := newTestEnv(t)

	user := registerVerified(t, accounts, "dana@x.com")

	// A record the store failed to evict: present, but past its expiry.
	sess := models.Session{
		Email:     user.Email,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	data, err := json.Marshal(sess)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, sessionKey("stale-token"), data, 0))

	_, err = sessions.Validate(ctx, "stale-token")
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Validation deleted it rather than trusting store-side eviction.
	_, err = store.Get(ctx, sessionKey("stale-token"))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestValidate_UserVanished(t *testing.T) {
	ctx := context.Background()
	sessions, _, store := newTestEnv(t)

	sess := models.Session{
		Email:     "gone@x.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	data, err := json.Marshal(sess)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, sessionKey("orphan-token"), data, 0))

	_, err = sessions.Validate(ctx, "orphan-token")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, _ := newTestEnv(t)

	user := registerVerified(t, accounts, "dana@x.com")

	token, err := sessions.Create(ctx, user.Email)
	require.NoError(t, err)

	require.NoError(t, sessions.Delete(ctx, token))

	_, err = sessions.Validate(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, sessions.Delete(ctx, token))
}

func TestDeleteAllForEmail(t *testing.T) {
	ctx := context.Background()
	sessions, accounts, _ := newTestEnv(t)

	user := registerVerified(t, accounts, "dana@x.com")
	other := registerVerified(t, accounts, "lev@x.com")

	first, err := sessions.Create(ctx, user.Email)
	require.NoError(t, err)
	second, err := sessions.Create(ctx, user.Email)
	require.NoError(t, err)
	unrelated, err := sessions.Create(ctx, other.Email)
	require.NoError(t, err)

	require.NoError(t, sessions.DeleteAllForEmail(ctx, user.Email))

	_, err = sessions.Validate(ctx, first)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sessions.Validate(ctx, second)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sessions.Validate(ctx, unrelated)
	require.NoError(t, err)
}
