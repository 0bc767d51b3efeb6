package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
	"github.com/RetailPe/retailpe-backend/internal/utils"
)

func newSessionFixture(t *testing.T, ttl time.Duration) (*SessionService, storage.Store, *models.User) {
	t.Helper()
	store := storage.NewMemoryStore()

	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)

	user := &models.User{
		Name:           "Raghav",
		WhatsAppNumber: "919876543210",
		PasswordHash:   hash,
	}
	require.NoError(t, store.CreateUser(user))

	return NewSessionService(store, ttl), store, user
}

func TestLoginCreatesSession(t *testing.T) {
	sessions, _, user := newSessionFixture(t, time.Hour)

	session, got, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, models.BotInventory, session.BotType)
	assert.NotEmpty(t, session.SessionToken)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestLoginWrongPassword(t *testing.T) {
	sessions, _, user := newSessionFixture(t, time.Hour)

	_, _, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	sessions, _, _ := newSessionFixture(t, time.Hour)

	_, _, err := sessions.Login(models.BotInventory, "910000000000", "99", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestReLoginSupersedesSession(t *testing.T) {
	sessions, store, user := newSessionFixture(t, time.Hour)

	first, _, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)

	second, _, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionToken, second.SessionToken)

	current, err := store.GetActiveSession(user.WhatsAppNumber, models.BotInventory)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestSessionsIndependentPerPersona(t *testing.T) {
	sessions, _, user := newSessionFixture(t, time.Hour)

	_, _, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)

	// No invoice session exists yet.
	_, _, err = sessions.Current(models.BotInvoice, user.WhatsAppNumber)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	_, _, err = sessions.Login(models.BotInvoice, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)

	_, _, err = sessions.Current(models.BotInventory, user.WhatsAppNumber)
	assert.NoError(t, err)
	_, _, err = sessions.Current(models.BotInvoice, user.WhatsAppNumber)
	assert.NoError(t, err)
}

func TestCurrentTreatsExpiredAsAbsent(t *testing.T) {
	sessions, _, user := newSessionFixture(t, -time.Minute)

	_, _, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)

	_, _, err = sessions.Current(models.BotInventory, user.WhatsAppNumber)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestLogoutIsIdempotent(t *testing.T) {
	sessions, _, user := newSessionFixture(t, time.Hour)

	session, _, err := sessions.Login(models.BotInventory, user.WhatsAppNumber, "1", "secret123")
	require.NoError(t, err)

	require.NoError(t, sessions.Logout(session))
	assert.NoError(t, sessions.Logout(session))

	_, _, err = sessions.Current(models.BotInventory, user.WhatsAppNumber)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
