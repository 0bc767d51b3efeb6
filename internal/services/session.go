package services

import (
	"errors"
	"log"
	"time"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
	"github.com/RetailPe/retailpe-backend/internal/utils"
)

// SessionService owns WhatsApp bot sessions: one active session per
// (phone number, bot persona), superseded on re-login, lazily expired.
type SessionService struct {
	store      storage.Store
	sessionTTL time.Duration
	stopReaper chan struct{}
}

// NewSessionService creates a session service with the given session TTL.
func NewSessionService(store storage.Store, ttl time.Duration) *SessionService {
	return &SessionService{
		store:      store,
		sessionTTL: ttl,
		stopReaper: make(chan struct{}),
	}
}

// Login verifies credentials and, on success, deactivates all prior sessions
// for (phone, botType) and creates a fresh one. Unknown identity and wrong
// password both come back as ErrInvalidCredentials.
func (s *SessionService) Login(botType models.BotType, phone, identifier, password string) (*models.WhatsAppSession, *models.User, error) {
	user, err := s.store.FindUserForLogin(identifier, phone)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive || !utils.VerifyPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session := &models.WhatsAppSession{
		UserID:         user.ID,
		WhatsAppNumber: phone,
		SessionToken:   utils.GenerateSessionToken(),
		BotType:        botType,
		ExpiresAt:      time.Now().Add(s.sessionTTL),
		LastActivity:   time.Now(),
	}
	if err := s.store.ReplaceSession(session); err != nil {
		return nil, nil, err
	}

	log.Printf("Session created for %s (%s, %s bot)", user.Name, phone, botType)
	return session, user, nil
}

// Current returns the active, non-expired session and its user, or
// storage.ErrSessionNotFound. Expired sessions are treated as absent.
func (s *SessionService) Current(botType models.BotType, phone string) (*models.WhatsAppSession, *models.User, error) {
	session, err := s.store.GetActiveSession(phone, botType)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.store.GetUser(session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Logout deactivates the given session. Idempotent: deactivating an already
// inactive session is not an error.
func (s *SessionService) Logout(session *models.WhatsAppSession) error {
	err := s.store.DeactivateSession(session.ID)
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return err
	}
	return nil
}

// StartReaper periodically deactivates expired sessions. Lazy expiry in
// Current already keeps reads correct; the reaper only tidies rows.
func (s *SessionService) StartReaper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				count, err := s.store.DeactivateExpiredSessions()
				if err != nil {
					log.Printf("Failed to clean up expired sessions: %v", err)
					continue
				}
				if count > 0 {
					log.Printf("Cleaned up %d expired sessions", count)
				}
			case <-s.stopReaper:
				return
			}
		}
	}()
}

// StopReaper stops the cleanup goroutine.
func (s *SessionService) StopReaper() {
	close(s.stopReaper)
}
