package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type registeredSession struct {
	session  *DiscoverySession
	lastSeen time.Time
}

// SessionRegistry keeps the discovery sessions of concurrent users
type SessionRegistry struct {
	catalog  *CatalogStore
	provider domain.AnalysisProvider
	logger   logrus.FieldLogger
	config   SessionConfig
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*registeredSession
}

// NewSessionRegistry creates an empty registry. Every session shares the
// catalog and provider.
func NewSessionRegistry(
	catalog *CatalogStore,
	provider domain.AnalysisProvider,
	logger logrus.FieldLogger,
	config SessionConfig,
) *SessionRegistry {
	return &SessionRegistry{
		catalog:  catalog,
		provider: provider,
		logger:   logger,
		config:   config,
		now:      time.Now,
		sessions: make(map[string]*registeredSession),
	}
}

// Create starts a new session and returns its id
func (r *SessionRegistry) Create() (string, *DiscoverySession) {
	id := uuid.NewString()
	session := NewDiscoverySession(r.catalog, r.provider, r.logger.WithField("session_id", id), r.config)

	r.mu.Lock()
	r.sessions[id] = &registeredSession{session: session, lastSeen: r.now()}
	r.mu.Unlock()

	r.logger.WithField("session_id", id).Debug("Discovery session created")
	return id, session
}

// Get returns the session with the given id and marks it as recently used
func (r *SessionRegistry) Get(id string) (*DiscoverySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	entry.lastSeen = r.now()
	return entry.session, nil
}

// Delete closes and forgets a session
func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	entry.session.Close()
	return nil
}

// Len returns the number of open sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many it closed
func (r *SessionRegistry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*DiscoverySession
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range idle {
		session.Close()
	}
	if len(idle) > 0 {
		r.logger.WithField("closed", len(idle)).Info("Swept idle discovery sessions")
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done, then closes
// every remaining session
func (r *SessionRegistry) Run(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return nil
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}

// CloseAll closes and forgets every session
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*registeredSession)
	r.mu.Unlock()

	for _, entry := range sessions {
		entry.session.Close()
	}
}
