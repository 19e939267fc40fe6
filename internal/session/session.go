package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/account"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/codes"
	sl "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/logger"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/models"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage"
)

var ErrSessionNotFound = errors.New("session not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

type Manager struct {
	log   *slog.Logger
	store Store
	users UserProvider
	ttl   time.Duration
}

func New(log *slog.Logger, store Store, users UserProvider, ttl time.Duration) *Manager {
	return &Manager{
		log:   log,
		store: store,
		users: users,
		ttl:   ttl,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func indexKey(email string) string {
	return fmt.Sprintf("usersessions:%s", email)
}

// Create issues an opaque bearer token for the email. The store TTL matches
// the record's own expiry as cleanup only; Validate rechecks the expiry.
func (m *Manager) Create(ctx context.Context, email string) (string, error) {
	const op = "session.Create"

	log := m.log.With(slog.String("op", op))

	token, err := codes.Token()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	email = account.Normalize(email)

	sess := models.Session{
		Email:     email,
		ExpiresAt: time.Now().Add(m.ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Set(ctx, sessionKey(token), data, m.ttl); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	m.indexAdd(ctx, email, token)

	log.Info("session created", slog.String("email", email))

	return token, nil
}

// Validate resolves a token to its user. Expiry is enforced lazily: a lapsed
// record is deleted on sight and reported absent, whether or not the store
// evicted it.
func (m *Manager) Validate(ctx context.Context, token string) (models.User, error) {
	const op = "session.Validate"

	data, err := m.store.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrSessionNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if sess.IsExpired() {
		if err := m.Delete(ctx, token); err != nil {
			m.log.Warn("failed to delete expired session", sl.Err(err))
		}

		return models.User{}, ErrSessionNotFound
	}

	user, err := m.users.UserByEmail(ctx, sess.Email)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			return models.User{}, ErrSessionNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Delete revokes a token. Idempotent: deleting an absent token is not an
// error.
func (m *Manager) Delete(ctx context.Context, token string) error {
	const op = "session.Delete"

	data, err := m.store.Get(ctx, sessionKey(token))
	if err == nil {
		var sess models.Session
		if err := json.Unmarshal(data, &sess); err == nil {
			m.indexRemove(ctx, sess.Email, token)
		}
	}

	if err := m.store.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteAllForEmail revokes every known session for the email. Used on
// password reset.
func (m *Manager) DeleteAllForEmail(ctx context.Context, email string) error {
	const op = "session.DeleteAllForEmail"

	log := m.log.With(slog.String("op", op))

	email = account.Normalize(email)

	tokens, err := m.indexTokens(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, token := range tokens {
		if err := m.store.Delete(ctx, sessionKey(token)); err != nil {
			log.Warn("failed to delete session", sl.Err(err))
		}
	}

	if err := m.store.Delete(ctx, indexKey(email)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("sessions revoked", slog.String("email", email), slog.Int("count", len(tokens)))

	return nil
}

// The per-email token index is best-effort bookkeeping for revocation.
// Read-modify-write races between concurrent logins are acceptable; the
// session records themselves stay authoritative.
func (m *Manager) indexAdd(ctx context.Context, email, token string) {
	tokens, err := m.indexTokens(ctx, email)
	if err != nil {
		m.log.Warn("failed to read session index", sl.Err(err))
		return
	}

	tokens = append(tokens, token)

	data, err := json.Marshal(tokens)
	if err != nil {
		m.log.Warn("failed to marshal session index", sl.Err(err))
		return
	}

	if err := m.store.Set(ctx, indexKey(email), data, m.ttl); err != nil {
		m.log.Warn("failed to save session index", sl.Err(err))
	}
}

func (m *Manager) indexRemove(ctx context.Context, email, token string) {
	tokens, err := m.indexTokens(ctx, email)
	if err != nil || len(tokens) == 0 {
		return
	}

	kept := tokens[:0]
	for _, t := range tokens {
		if t != token {
			kept = append(kept, t)
		}
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return
	}

	if err := m.store.Set(ctx, indexKey(email), data, m.ttl); err != nil {
		m.log.Warn("failed to save session index", sl.Err(err))
	}
}

func (m *Manager) indexTokens(ctx context.Context, email string) ([]string, error) {
	data, err := m.store.Get(ctx, indexKey(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}

	return tokens, nil
}
